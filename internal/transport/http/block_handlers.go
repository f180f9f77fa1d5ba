package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/service/blocks"
)

// BlockHandlers provides HTTP handlers for the block list of a stream owner.
type BlockHandlers struct {
	service *blocks.Service
	log     *zerolog.Logger
}

// NewBlockHandlers creates a new block handlers instance.
func NewBlockHandlers(svc *blocks.Service, logger *zerolog.Logger) *BlockHandlers {
	return &BlockHandlers{
		service: svc,
		log:     logger,
	}
}

// BlockRequest represents the request body for blocking a user.
type BlockRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

// ListBlocked lists the users blocked by the authenticated user.
// GET /api/blocks
func (h *BlockHandlers) ListBlocked(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list blocked users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, blockedUserResponses(list))
}

// Block adds a user to the block list.
// POST /api/blocks
func (h *BlockHandlers) Block(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	blocked, err := h.service.Block(c.Request.Context(), uid, req.Nickname)
	if err != nil {
		h.fail(c, err, uid)
		return
	}

	h.log.Info().Int64("user_id", uid).Str("blocked", blocked.BlockedNickname).Msg("user blocked")
	c.JSON(http.StatusCreated, blockedUserResponse(blocked))
}

// Unblock removes a user from the block list.
// DELETE /api/blocks/:nickname
func (h *BlockHandlers) Unblock(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	removed, err := h.service.Unblock(c.Request.Context(), uid, c.Param("nickname"))
	if err != nil {
		h.fail(c, err, uid)
		return
	}

	h.log.Info().Int64("user_id", uid).Str("unblocked", removed.BlockedNickname).Msg("user unblocked")
	c.JSON(http.StatusOK, blockedUserResponse(removed))
}

func (h *BlockHandlers) fail(c *gin.Context, err error, uid int64) {
	switch {
	case errors.Is(err, blocks.ErrUserNotFound), errors.Is(err, blocks.ErrNotBlocked):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, blocks.ErrCannotBlockSelf), errors.Is(err, blocks.ErrNicknameEmpty):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Int64("user_id", uid).Msg("block operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
