package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/streamchat-server/internal/app"
	"github.com/vovakirdan/streamchat-server/internal/config"
	applog "github.com/vovakirdan/streamchat-server/internal/log"
)

var (
	configPath      string
	addr            string
	logLevel        string
	databasePath    string
	shutdownTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "streamchat-server",
	Short:         "Live stream chat server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file (default config.yaml or $STREAMCHAT_CONFIG_DEFAULT_PATH)")
	flags.StringVar(&addr, "addr", "", "HTTP listen address")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&databasePath, "db", "", "SQLite database path")
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "streamchat-server:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, path, err := config.Load(&boot, configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{
		Addr:            addr,
		LogLevel:        logLevel,
		DatabasePath:    databasePath,
		ShutdownTimeout: shutdownTimeout,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Msg("starting streamchat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
