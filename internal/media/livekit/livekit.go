package livekit

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/streamchat-server/internal/media"
	"github.com/vovakirdan/streamchat-server/internal/store"
)

const tokenTTL = time.Hour

// LiveKitEngine implements media.Engine using LiveKit as the media backend.
type LiveKitEngine struct {
	apiKey    string
	apiSecret string
	wsURL     string
}

// New creates a new LiveKitEngine.
func New(apiKey, apiSecret, wsURL string) *LiveKitEngine {
	return &LiveKitEngine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
	}
}

// RoomName returns the LiveKit room of a stream. LiveKit creates rooms on
// demand when the first participant joins.
func (e *LiveKitEngine) RoomName(stream *store.Stream) string {
	return fmt.Sprintf("streamchat-stream-%d", stream.ID)
}

// CloseRoom is a no-op: LiveKit rooms expire once empty.
// TODO: delete the room through the LiveKit room service so viewers are disconnected when a stream stops.
func (e *LiveKitEngine) CloseRoom(_ context.Context, _ *store.Stream) error {
	return nil
}

// GenerateJoinInfo creates join credentials for a user.
func (e *LiveKitEngine) GenerateJoinInfo(_ context.Context, stream *store.Stream, userID int64, nickname string, publisher bool) (*media.JoinInfo, error) {
	roomName := e.RoomName(stream)
	identity := fmt.Sprintf("user-%d", userID)

	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	grant.SetCanPublish(publisher)
	grant.SetCanPublishData(publisher)
	grant.SetCanSubscribe(true)

	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(nickname).
		SetValidFor(tokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &media.JoinInfo{
		URL:        e.wsURL,
		Token:      token,
		RoomName:   roomName,
		Identity:   identity,
		CanPublish: publisher,
	}, nil
}

// Ensure LiveKitEngine implements media.Engine
var _ media.Engine = (*LiveKitEngine)(nil)
