package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/streamchat-server/internal/config"
	"github.com/vovakirdan/streamchat-server/internal/store"
)

func wsURL(env *testEnv, token string) string {
	u := strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialWS(t *testing.T, ctx context.Context, url string, opts *websocket.DialOptions) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, frame string) {
	t.Helper()

	if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("send %s: %v", frame, err)
	}
}

// readFrame reads frames until one starts with cmd and returns it decoded.
func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd string) map[string]any {
	t.Helper()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %q frame: %v", cmd, err)
		}
		if !strings.HasPrefix(string(data), `{"`+cmd+`"`) {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode frame %s: %v", data, err)
		}
		return m
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	var health HealthResponse
	if status := env.do(t, http.MethodGet, "/health", "", nil, &health); status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if health.Status != "ok" || health.Rooms != 0 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestWebSocketAnonymousEcho(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, wsURL(env, ""), nil)

	send(t, ctx, conn, `{"echo": "hello"}`)
	if ev := readFrame(t, ctx, conn, "echo"); ev["echo"] != "hello" {
		t.Fatalf("unexpected echo: %+v", ev)
	}

	send(t, ctx, conn, `{"bogus": 1}`)
	if ev := readFrame(t, ctx, conn, "err"); ev["code"] != "bad_request" {
		t.Fatalf("unexpected error frame: %+v", ev)
	}

	send(t, ctx, conn, `{"msg": "hi"}`)
	if ev := readFrame(t, ctx, conn, "err"); ev["code"] != "not_joined" {
		t.Fatalf("expected not_joined, got %+v", ev)
	}
}

func TestWebSocketChatBetweenClients(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerID, ownerToken := env.register(t, "owner")
	_, viewerToken := env.register(t, "viewer")

	stream := &store.Stream{UserID: ownerID, Title: "live", State: store.StreamStateStarted}
	if err := env.store.CreateStream(context.Background(), stream); err != nil {
		t.Fatalf("create stream: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	owner := dialWS(t, ctx, wsURL(env, ownerToken), nil)
	viewer := dialWS(t, ctx, wsURL(env, viewerToken), nil)
	anon := dialWS(t, ctx, wsURL(env, ""), nil)

	join := fmt.Sprintf(`{"join": %d}`, stream.ID)
	send(t, ctx, owner, join)
	if ev := readFrame(t, ctx, owner, "join"); ev["member"] != "owner" || ev["isOwner"] != true {
		t.Fatalf("unexpected owner join: %+v", ev)
	}
	send(t, ctx, viewer, join)
	if ev := readFrame(t, ctx, owner, "join"); ev["member"] != "viewer" || ev["count"] != float64(2) {
		t.Fatalf("unexpected viewer join: %+v", ev)
	}
	send(t, ctx, anon, join)
	readFrame(t, ctx, anon, "join")

	send(t, ctx, viewer, `{"msg": "well darn"}`)
	ev := readFrame(t, ctx, owner, "msg")
	if ev["msg"] != "well ****" || ev["member"] != "viewer" {
		t.Fatalf("unexpected msg frame: %+v", ev)
	}
	readFrame(t, ctx, anon, "msg")

	// Anonymous members may read but not write.
	send(t, ctx, anon, `{"msg": "hi"}`)
	if ev := readFrame(t, ctx, anon, "err"); ev["code"] != "unauthorized" {
		t.Fatalf("expected unauthorized, got %+v", ev)
	}

	// Blocking through REST reaches the live chat.
	if status := env.do(t, http.MethodPost, "/api/blocks", ownerToken, BlockRequest{Nickname: "viewer"}, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if ev := readFrame(t, ctx, owner, "block"); ev["block"] != "viewer" || ev["isInChat"] != true {
		t.Fatalf("unexpected block frame: %+v", ev)
	}
	readFrame(t, ctx, viewer, "block")
	send(t, ctx, viewer, `{"msg": "still here"}`)
	if ev := readFrame(t, ctx, viewer, "err"); ev["code"] != "blocked" {
		t.Fatalf("expected blocked, got %+v", ev)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	env.do(t, http.MethodGet, fmt.Sprintf("/api/streams/%d/chat/count", stream.ID), "", nil, &count)
	if count.Count != 1 {
		t.Fatalf("expected one stored message, got %d", count.Count)
	}
}

func TestWebSocketJoinInactiveStream(t *testing.T) {
	env := newTestEnv(t, nil)
	ownerID, ownerToken := env.register(t, "owner")

	stream := &store.Stream{UserID: ownerID, Title: "later", State: store.StreamStateWaiting}
	if err := env.store.CreateStream(context.Background(), stream); err != nil {
		t.Fatalf("create stream: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, wsURL(env, ownerToken), nil)

	send(t, ctx, conn, fmt.Sprintf(`{"join": %d}`, stream.ID))
	if ev := readFrame(t, ctx, conn, "err"); ev["code"] != "not_active" {
		t.Fatalf("expected not_active, got %+v", ev)
	}

	send(t, ctx, conn, `{"join": 9999}`)
	if ev := readFrame(t, ctx, conn, "err"); ev["status"] != float64(404) {
		t.Fatalf("expected 404 error, got %+v", ev)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RateLimitPerMinute = 2
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, wsURL(env, ""), nil)
	for i := range 3 {
		send(t, ctx, conn, fmt.Sprintf(`{"echo": "%d"}`, i))
	}

	seen := map[string]bool{}
	for len(seen) < 3 {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		switch {
		case m["echo"] != nil:
			seen[m["echo"].(string)] = true
		case m["err"] == "rate limit exceeded":
			if m["status"] != float64(http.StatusTooManyRequests) {
				t.Fatalf("unexpected rate limit frame: %+v", m)
			}
			seen["limited"] = true
		default:
			t.Fatalf("unexpected frame: %s", data)
		}
	}
	if !seen["0"] || !seen["1"] || !seen["limited"] {
		t.Fatalf("expected two echoes and one rate limit error, got %v", seen)
	}
}
