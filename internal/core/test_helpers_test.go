package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func mustPush(t *testing.T, ch <-chan Push, kind PushKind) Push {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-ch:
			if p.Kind == kind {
				return p
			}
		case <-deadline:
			t.Fatalf("expected push kind %v not received", kind)
			return Push{}
		}
	}
}

// mustFrame waits for a frame whose first key is cmd, skipping other frames.
func mustFrame(t *testing.T, ch <-chan Push, cmd string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-ch:
			if p.Kind != PushFrame || !strings.HasPrefix(p.Frame, `{"`+cmd+`"`) {
				continue
			}
			return decodeFrame(t, p.Frame)
		case <-deadline:
			t.Fatalf("expected %q frame not received", cmd)
			return nil
		}
	}
}

// mustOut waits for a session reply whose first key is cmd, skipping other frames.
func mustOut(t *testing.T, out <-chan string, cmd string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame, ok := <-out:
			if !ok {
				t.Fatalf("session output closed while waiting for %q", cmd)
			}
			if strings.HasPrefix(frame, `{"`+cmd+`"`) {
				return decodeFrame(t, frame)
			}
		case <-deadline:
			t.Fatalf("expected %q frame not received", cmd)
			return nil
		}
	}
}

func decodeFrame(t *testing.T, frame string) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal([]byte(frame), &m); err != nil {
		t.Fatalf("decode frame %q: %v", frame, err)
	}
	return m
}

// toggleSink accepts pushes until failing is set.
type toggleSink struct {
	ch      ChanSink
	failing atomic.Bool
}

func newToggleSink(buffer int) *toggleSink {
	return &toggleSink{ch: NewChanSink(buffer)}
}

func (s *toggleSink) TrySend(p Push) error {
	if s.failing.Load() {
		return ErrUnreachable
	}
	return s.ch.TrySend(p)
}

// funcSink runs a hook for every push.
type funcSink func(Push) error

func (f funcSink) TrySend(p Push) error { return f(p) }

// goDispatcher runs every task on its own goroutine.
type goDispatcher struct{}

func (goDispatcher) Go(task func()) { go task() }

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

// startSession runs a session until the test ends and returns its inbound queue.
func startSession(t *testing.T, s *Session) chan<- string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	inbound := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, inbound)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return inbound
}
