package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/config"
)

func TestAppRunAndShutdown(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(dir, "test.db")
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.CensorWords = []string{"darn"}
	cfg.ShutdownTimeout = time.Second

	logger := zerolog.Nop()
	application, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
}
