package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT access token, anonymous when empty")
	stream := flag.Int64("stream", 0, "stream id to join, skipped when 0")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if *token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + *token}}
	}
	conn, _, err := websocket.Dial(ctx, *addr, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frame map[string]any) error {
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	if err := send(map[string]any{"echo": *text}); err != nil {
		return err
	}
	if err := expect(ctx, conn, "echo"); err != nil {
		return err
	}
	if *stream == 0 {
		return nil
	}

	if err := send(map[string]any{"join": *stream}); err != nil {
		return err
	}
	if err := expect(ctx, conn, "join"); err != nil {
		return err
	}
	if *token == "" {
		// anonymous members may only read
		return nil
	}
	if err := send(map[string]any{"msg": *text}); err != nil {
		return err
	}
	return expect(ctx, conn, "msg")
}

// expect prints frames until one carries key, failing on an err frame.
func expect(ctx context.Context, conn *websocket.Conn, key string) error {
	for {
		var frame map[string]any
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("received: %v\n", frame)

		if msg, ok := frame["err"]; ok {
			return fmt.Errorf("server error: %v (code %v)", msg, frame["code"])
		}
		if _, ok := frame[key]; ok {
			return nil
		}
	}
}
