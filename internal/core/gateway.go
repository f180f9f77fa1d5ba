package core

import (
	"context"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks . ChatGateway

// ChatGateway is the persistence surface used by chat sessions.
// Lookups that match nothing return an error wrapping store.ErrNotFound.
// Calls may block; sessions only invoke them through a Dispatcher.
type ChatGateway interface {
	CreateChatMessage(ctx context.Context, streamID, userID int64, text string) (*store.ChatMessage, error)
	ModifyChatMessage(ctx context.Context, id, userID int64, text string) (*store.ChatMessage, error)
	DeleteChatMessage(ctx context.Context, id, userID int64) (*store.ChatMessage, error)
	CreateBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*store.BlockedUser, error)
	DeleteBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*store.BlockedUser, error)
	GetChatAccess(ctx context.Context, streamID int64, userID *int64) (*store.ChatAccess, error)
}

// Dispatcher runs background tasks off the session goroutine.
type Dispatcher interface {
	Go(task func())
}

// Censor rewrites chat text before it is stored.
type Censor interface {
	Censor(text string) string
}

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID   int64
	Nickname string
}
