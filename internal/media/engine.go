package media

import (
	"context"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

// JoinInfo contains information needed to connect to the media room of a stream.
type JoinInfo struct {
	URL        string `json:"url"`         // WebSocket URL (e.g., ws://localhost:7880)
	Token      string `json:"token"`       // access token for the media server
	RoomName   string `json:"room_name"`   // media room name
	Identity   string `json:"identity"`    // participant identity in the room
	CanPublish bool   `json:"can_publish"` // true for the stream owner
}

// Engine abstracts the media backend that carries the video of a stream.
type Engine interface {
	// RoomName returns the media room a stream is broadcast in.
	RoomName(stream *store.Stream) string

	// GenerateJoinInfo creates credentials for a user. Publishers may send media,
	// everyone else only subscribes.
	GenerateJoinInfo(ctx context.Context, stream *store.Stream, userID int64, nickname string, publisher bool) (*JoinInfo, error)

	// CloseRoom releases the media room of a stopped stream.
	CloseRoom(ctx context.Context, stream *store.Stream) error
}
