package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/config"
	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/moderation"
	"github.com/vovakirdan/streamchat-server/internal/notify"
	"github.com/vovakirdan/streamchat-server/internal/service/blocks"
	"github.com/vovakirdan/streamchat-server/internal/service/streams"
	"github.com/vovakirdan/streamchat-server/internal/store/sqlite"
	"github.com/vovakirdan/streamchat-server/internal/upload"
)

const testJWTSecret = "test-secret-change-me"

// goDispatcher runs every task on its own goroutine.
type goDispatcher struct{}

func (goDispatcher) Go(task func()) { go task() }

// recordingMailer keeps sent messages.
type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

type testEnv struct {
	ts     *httptest.Server
	cfg    config.Config
	store  *sqlite.SQLiteStore
	auth   *auth.Service
	hub    *core.Hub
	mailer *recordingMailer
}

// newTestEnv starts a server backed by an in-memory store.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.JWTSecret = testJWTSecret
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	cfg.CensorWords = []string{"darn"}
	cfg.UploadDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := createTestAuthService(t, st, cfg)

	logger := zerolog.Nop()
	hub := core.NewHub(logger)
	censor, err := moderation.New(cfg.CensorWords, cfg.Mask())
	if err != nil {
		t.Fatalf("failed to create censor: %v", err)
	}
	uploads, err := upload.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}
	mailer := &recordingMailer{}

	server := NewServer(Deps{
		Hub:        hub,
		Auth:       authService,
		Store:      st,
		Streams:    streams.New(st, nil, logger),
		Blocks:     blocks.New(st, hub, logger),
		Uploads:    uploads,
		Mailer:     mailer,
		Dispatcher: goDispatcher{},
		Censor:     censor,
	}, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, cfg: cfg, store: st, auth: authService, hub: hub, mailer: mailer}
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st *sqlite.SQLiteStore, cfg config.Config) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// register creates a user and returns its id and token.
func (e *testEnv) register(t *testing.T, nickname string) (int64, string) {
	t.Helper()

	user, token, err := e.auth.Register(context.Background(), nickname, nickname+"@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", nickname, err)
	}
	return user.ID, token
}

// do sends a JSON request and decodes a JSON response into out when out is not nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
