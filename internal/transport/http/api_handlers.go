package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/notify"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	mailer      notify.Mailer
	dispatcher  core.Dispatcher
	siteName    string
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. mailer may be nil.
func NewAPIHandlers(authService *auth.Service, mailer notify.Mailer, dispatcher core.Dispatcher, siteName string, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		mailer:      mailer,
		dispatcher:  dispatcher,
		siteName:    siteName,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Nickname, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidNickname),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("nickname", req.Nickname).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.sendWelcome(user.Nickname, user.Email)

	h.log.Info().Str("nickname", user.Nickname).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// sendWelcome mails the new user off the request goroutine.
func (h *APIHandlers) sendWelcome(nickname, email string) {
	if h.mailer == nil || h.dispatcher == nil {
		return
	}

	msg, err := notify.Welcome(h.siteName, nickname, email)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render welcome mail")
		return
	}
	h.dispatcher.Go(func() {
		if err := h.mailer.Send(context.Background(), msg); err != nil {
			h.log.Warn().Err(err).Str("nickname", nickname).Msg("failed to send welcome mail")
		}
	})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("nickname", req.Nickname).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("nickname", req.Nickname).Msg("user logged in successfully")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}
