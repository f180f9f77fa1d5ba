package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/config"
	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/notify"
	"github.com/vovakirdan/streamchat-server/internal/service/blocks"
	"github.com/vovakirdan/streamchat-server/internal/service/streams"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/upload"
)

// Deps carries the services the HTTP layer is built on.
type Deps struct {
	Hub        *core.Hub
	Auth       *auth.Service
	Store      store.Store
	Streams    *streams.Service
	Blocks     *blocks.Service
	Uploads    *upload.Store
	Mailer     notify.Mailer
	Dispatcher core.Dispatcher
	Censor     core.Censor
}

// HealthResponse reports liveness and chat load.
type HealthResponse struct {
	Status  string `json:"status"`
	Rooms   int    `json:"rooms"`
	Members int    `json:"members"`
}

// NewServer builds the HTTP server with REST and WebSocket routes.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers all routes on a gin engine.
func NewRouter(deps Deps, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		rooms, members := deps.Hub.Stats()
		c.JSON(stdhttp.StatusOK, HealthResponse{Status: "ok", Rooms: rooms, Members: members})
	})

	router.GET("/ws", gin.WrapH(NewWSHandler(deps.Hub, deps.Store, deps.Dispatcher, deps.Censor, deps.Auth, WSOptions{
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionBuffer:      cfg.SessionBuffer,
		MaxChatMessageLen:  cfg.MaxChatMessageLen,
	}, logger)))

	if deps.Uploads != nil {
		router.Static("/uploads", deps.Uploads.Root())
	}

	apiHandlers := NewAPIHandlers(deps.Auth, deps.Mailer, deps.Dispatcher, cfg.SiteName, logger)
	userHandlers := NewUserHandlers(deps.Store, deps.Auth, deps.Uploads, logger)
	streamHandlers := NewStreamHandlers(deps.Streams, deps.Store, deps.Hub, deps.Uploads, logger)
	blockHandlers := NewBlockHandlers(deps.Blocks, logger)

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	api.GET("/streams", streamHandlers.ListStreams)
	api.GET("/streams/:id", streamHandlers.GetStream)
	api.GET("/streams/:id/chat", streamHandlers.ChatHistory)
	api.GET("/streams/:id/chat/count", streamHandlers.ChatCount)

	authed := api.Group("")
	authed.Use(AuthMiddleware(deps.Auth, logger))

	authed.GET("/users/search", userHandlers.SearchUsers)
	authed.GET("/profile", userHandlers.GetProfile)
	authed.PUT("/profile", userHandlers.UpdateProfile)
	authed.POST("/profile/avatar", userHandlers.UploadAvatar)

	authed.POST("/streams", streamHandlers.CreateStream)
	authed.PUT("/streams/:id", streamHandlers.UpdateStream)
	authed.DELETE("/streams/:id", streamHandlers.DeleteStream)
	authed.PUT("/streams/:id/state", streamHandlers.SetState)
	authed.POST("/streams/:id/logo", streamHandlers.UploadLogo)
	authed.GET("/streams/:id/media-token", streamHandlers.MediaToken)

	authed.GET("/blocks", blockHandlers.ListBlocked)
	authed.POST("/blocks", blockHandlers.Block)
	authed.DELETE("/blocks/:nickname", blockHandlers.Unblock)

	return router
}
