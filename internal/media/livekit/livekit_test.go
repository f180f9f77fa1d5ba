package livekit

import (
	"context"
	"testing"

	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

func TestGenerateJoinInfoGrants(t *testing.T) {
	e := New("devkey", "secret-secret-secret-secret-secret", "ws://localhost:7880")
	stream := &store.Stream{ID: 12}

	tests := []struct {
		name      string
		publisher bool
	}{
		{name: "owner publishes", publisher: true},
		{name: "viewer subscribes", publisher: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := e.GenerateJoinInfo(context.Background(), stream, 7, "alice", tt.publisher)
			if err != nil {
				t.Fatalf("GenerateJoinInfo failed: %v", err)
			}
			if info.RoomName != "streamchat-stream-12" || info.Identity != "user-7" || info.CanPublish != tt.publisher {
				t.Fatalf("unexpected join info: %+v", info)
			}

			verifier, err := auth.ParseAPIToken(info.Token)
			if err != nil {
				t.Fatalf("parse token: %v", err)
			}
			_, grants, err := verifier.Verify("secret-secret-secret-secret-secret")
			if err != nil {
				t.Fatalf("verify token: %v", err)
			}
			if grants.Video == nil || grants.Video.Room != "streamchat-stream-12" {
				t.Fatalf("unexpected grants: %+v", grants.Video)
			}
			if grants.Video.GetCanPublish() != tt.publisher || !grants.Video.GetCanSubscribe() {
				t.Fatalf("unexpected publish/subscribe grants: %+v", grants.Video)
			}
		})
	}
}
