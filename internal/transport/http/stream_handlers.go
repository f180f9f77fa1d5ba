package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/service/streams"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/upload"
)

const (
	defaultChatPage = 50
	maxChatPage     = 200
)

// StreamHandlers provides HTTP handlers for stream management endpoints.
type StreamHandlers struct {
	service *streams.Service
	store   store.Store
	hub     *core.Hub
	uploads *upload.Store
	log     *zerolog.Logger
}

// NewStreamHandlers creates a new stream handlers instance.
func NewStreamHandlers(svc *streams.Service, st store.Store, hub *core.Hub, uploads *upload.Store, logger *zerolog.Logger) *StreamHandlers {
	return &StreamHandlers{
		service: svc,
		store:   st,
		hub:     hub,
		uploads: uploads,
		log:     logger,
	}
}

// StreamRequest represents the create and update stream request body.
type StreamRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Descript string `json:"descript" binding:"max=5000"`
}

// StreamStateRequest represents the state change request body.
type StreamStateRequest struct {
	State string `json:"state" binding:"required"`
}

// CountResponse carries a number of chat messages.
type CountResponse struct {
	Count int64 `json:"count"`
}

func (h *StreamHandlers) viewers(id int64) int {
	if h.hub == nil {
		return 0
	}
	return h.hub.Count(core.RoomID(id))
}

// ListStreams handles listing streams.
// GET /api/streams?live=true&limit=n
func (h *StreamHandlers) ListStreams(c *gin.Context) {
	liveOnly, _ := strconv.ParseBool(c.Query("live"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.service.List(c.Request.Context(), liveOnly, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list streams")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, streamResponses(list, h.viewers))
}

// GetStream returns a stream.
// GET /api/streams/:id
func (h *StreamHandlers) GetStream(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	stream, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, streamResponse(stream, h.viewers))
}

// CreateStream handles stream creation.
// POST /api/streams
func (h *StreamHandlers) CreateStream(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create stream request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	stream, err := h.service.Create(c.Request.Context(), uid, streams.Input{Title: req.Title, Descript: req.Descript})
	if err != nil {
		h.fail(c, err, 0)
		return
	}

	h.log.Info().Int64("stream_id", stream.ID).Int64("owner_id", uid).Msg("stream created successfully")
	c.JSON(http.StatusCreated, streamResponse(stream, nil))
}

// UpdateStream changes title and description.
// PUT /api/streams/:id
func (h *StreamHandlers) UpdateStream(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	id, ok := streamID(c)
	if !ok {
		return
	}

	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update stream request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	stream, err := h.service.Update(c.Request.Context(), uid, id, streams.Input{Title: req.Title, Descript: req.Descript})
	if err != nil {
		h.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, streamResponse(stream, h.viewers))
}

// DeleteStream removes a stream.
// DELETE /api/streams/:id
func (h *StreamHandlers) DeleteStream(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	id, ok := streamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), uid, id); err != nil {
		h.fail(c, err, id)
		return
	}

	h.log.Info().Int64("stream_id", id).Msg("stream deleted")
	c.Status(http.StatusNoContent)
}

// SetState changes the lifecycle state of a stream.
// PUT /api/streams/:id/state
func (h *StreamHandlers) SetState(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	id, ok := streamID(c)
	if !ok {
		return
	}

	var req StreamStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	stream, err := h.service.SetState(c.Request.Context(), uid, id, store.StreamState(req.State))
	if err != nil {
		h.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, streamResponse(stream, h.viewers))
}

// UploadLogo stores a logo image for a stream.
// POST /api/streams/:id/logo (multipart field "file")
func (h *StreamHandlers) UploadLogo(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	id, ok := streamID(c)
	if !ok {
		return
	}

	current, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	if current.UserID != uid {
		h.fail(c, streams.ErrNotOwner, id)
		return
	}

	path, ok := saveUpload(c, h.uploads, "logos", h.log)
	if !ok {
		return
	}

	stream, err := h.service.SetLogo(c.Request.Context(), uid, id, path)
	if err != nil {
		_ = h.uploads.Remove(path)
		h.fail(c, err, id)
		return
	}
	if current.Logo != nil {
		if err := h.uploads.Remove(*current.Logo); err != nil {
			h.log.Warn().Err(err).Str("path", *current.Logo).Msg("failed to remove old logo")
		}
	}
	c.JSON(http.StatusOK, streamResponse(stream, h.viewers))
}

// ChatHistory returns stored chat messages, oldest first.
// GET /api/streams/:id/chat?before=<message id>&limit=n
func (h *StreamHandlers) ChatHistory(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	limit := defaultChatPage
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxChatPage)
	}

	var before *int64
	if v := c.Query("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before"})
			return
		}
		before = &n
	}

	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err, id)
		return
	}

	messages, err := h.store.ListChatMessages(c.Request.Context(), id, limit, before)
	if err != nil {
		h.log.Error().Err(err).Int64("stream_id", id).Msg("failed to list chat messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, chatMessageResponses(messages))
}

// ChatCount returns the number of chat messages of a stream.
// GET /api/streams/:id/chat/count
func (h *StreamHandlers) ChatCount(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}
	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err, id)
		return
	}

	n, err := h.store.CountChatMessages(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("stream_id", id).Msg("failed to count chat messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: n})
}

// MediaToken returns media server credentials for a stream.
// GET /api/streams/:id/media-token
func (h *StreamHandlers) MediaToken(c *gin.Context) {
	uid, nickname, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	id, ok := streamID(c)
	if !ok {
		return
	}

	info, err := h.service.MediaToken(c.Request.Context(), uid, nickname, id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, info)
}

func streamID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stream id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors to responses.
func (h *StreamHandlers) fail(c *gin.Context, err error, id int64) {
	switch {
	case errors.Is(err, streams.ErrStreamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, streams.ErrNotOwner), errors.Is(err, streams.ErrBlocked):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, streams.ErrInvalidTitle), errors.Is(err, streams.ErrInvalidState):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, streams.ErrInvalidTransition), errors.Is(err, streams.ErrStreamNotLive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, streams.ErrMediaDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Int64("stream_id", id).Msg("stream operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
