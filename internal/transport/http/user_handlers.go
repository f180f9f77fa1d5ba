package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/upload"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store       store.Store
	authService *auth.Service
	uploads     *upload.Store
	log         *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, authService *auth.Service, uploads *upload.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store:       st,
		authService: authService,
		uploads:     uploads,
		log:         logger,
	}
}

// UpdateProfileRequest carries the profile fields to change. Absent fields are kept.
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname" binding:"omitempty,min=3,max=32,excludesall=/@"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Descript *string `json:"descript" binding:"omitempty,max=1000"`
}

// UpdateProfileResponse returns the updated profile and, after a nickname
// change, a token carrying the new nickname.
type UpdateProfileResponse struct {
	Profile ProfileResponse `json:"profile"`
	Token   string          `json:"token,omitempty"`
}

// SearchUsers handles searching for users.
// GET /api/users/search?q=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	trimmed := strings.TrimSpace(c.Query("q"))
	if len(trimmed) < 3 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query must be at least 3 characters"})
		return
	}

	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), trimmed)
	if err != nil {
		h.log.Error().Err(err).Str("query", trimmed).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// don't show self
	others := lo.Reject(users, func(u *store.User, _ int) bool { return u.ID == uid })
	c.JSON(http.StatusOK, lo.Map(others, func(u *store.User, _ int) UserResponse {
		return userResponse(u)
	}))
}

// GetProfile returns the profile of the authenticated user.
// GET /api/profile
func (h *UserHandlers) GetProfile(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profileResponse(user))
}

// UpdateProfile changes nickname, email or description.
// PUT /api/profile
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update profile request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	oldNickname := user.Nickname
	if req.Nickname != nil {
		user.Nickname = strings.TrimSpace(*req.Nickname)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Descript != nil {
		user.Descript = strings.TrimSpace(*req.Descript)
	}

	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "nickname or email already taken"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := UpdateProfileResponse{Profile: profileResponse(user)}
	if user.Nickname != oldNickname {
		token, err := h.authService.IssueToken(user)
		if err != nil {
			h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		resp.Token = token
	}

	c.JSON(http.StatusOK, resp)
}

// UploadAvatar stores a new avatar image for the authenticated user.
// POST /api/profile/avatar (multipart field "file")
func (h *UserHandlers) UploadAvatar(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	path, ok := saveUpload(c, h.uploads, "avatars", h.log)
	if !ok {
		return
	}

	previous := user.Avatar
	user.Avatar = &path
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		_ = h.uploads.Remove(path)
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to save avatar")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if previous != nil {
		if err := h.uploads.Remove(*previous); err != nil {
			h.log.Warn().Err(err).Str("path", *previous).Msg("failed to remove old avatar")
		}
	}

	c.JSON(http.StatusOK, profileResponse(user))
}

func (h *UserHandlers) loadUser(c *gin.Context) (*store.User, bool) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return nil, false
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return nil, false
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return user, true
}

// saveUpload stores the multipart "file" field and writes the error response on failure.
func saveUpload(c *gin.Context, uploads *upload.Store, kind string, logger *zerolog.Logger) (string, bool) {
	if uploads == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "uploads are disabled"})
		return "", false
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return "", false
	}
	f, err := header.Open()
	if err != nil {
		logger.Error().Err(err).Msg("failed to open upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return "", false
	}
	defer f.Close()

	path, err := uploads.SaveImage(kind, f)
	switch {
	case err == nil:
		return path, true
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
	case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrEmpty):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Str("kind", kind).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
	return "", false
}
