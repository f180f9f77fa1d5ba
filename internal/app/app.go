package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/config"
	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/media"
	"github.com/vovakirdan/streamchat-server/internal/media/livekit"
	"github.com/vovakirdan/streamchat-server/internal/moderation"
	"github.com/vovakirdan/streamchat-server/internal/notify"
	"github.com/vovakirdan/streamchat-server/internal/service/blocks"
	"github.com/vovakirdan/streamchat-server/internal/service/streams"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/streamchat-server/internal/transport/http"
	"github.com/vovakirdan/streamchat-server/internal/upload"
)

// The SQLite store backs the chat sessions directly.
var _ core.ChatGateway = (*sqlite.SQLiteStore)(nil)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	dispatcher      *poolDispatcher
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	// Initialize database store
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	censor, err := moderation.New(cfg.CensorWords, cfg.Mask())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init censor: %w", err)
	}

	uploads, err := upload.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init uploads: %w", err)
	}

	// engine stays nil when LiveKit is disabled
	var engine media.Engine
	if cfg.LiveKit.Enabled {
		engine = livekit.New(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.LiveKit.URL)
		logger.Info().Str("url", cfg.LiveKit.URL).Msg("livekit media enabled")
	}

	var mailer notify.Mailer = notify.NewLogMailer(*logger)
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	hub := core.NewHub(logger.With().Str("component", "hub").Logger())
	dispatcher := newPoolDispatcher(cfg.PersistenceWorkers)

	server := transporthttp.NewServer(transporthttp.Deps{
		Hub:        hub,
		Auth:       authService,
		Store:      st,
		Streams:    streams.New(st, engine, *logger),
		Blocks:     blocks.New(st, hub, *logger),
		Uploads:    uploads,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Censor:     censor,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		dispatcher:      dispatcher,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("http server started")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup drains background work, then closes the database.
func (a *App) cleanup() {
	if a.dispatcher != nil {
		a.dispatcher.Wait()
		rooms, members := a.hub.Stats()
		a.log.Info().Int("rooms", rooms).Int("members", members).Msg("background tasks drained")
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
