package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is wrapped by lookups that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is wrapped when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// User represents a registered user.
type User struct {
	ID           int64
	Nickname     string
	Email        string
	PasswordHash string
	Avatar       *string
	Descript     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StreamState is the broadcast lifecycle state of a stream.
type StreamState string

const (
	StreamStateWaiting   StreamState = "waiting"
	StreamStatePreparing StreamState = "preparing"
	StreamStateStarted   StreamState = "started"
	StreamStatePaused    StreamState = "paused"
	StreamStateStopped   StreamState = "stopped"
)

// Valid reports whether s is a known state.
func (s StreamState) Valid() bool {
	switch s {
	case StreamStateWaiting, StreamStatePreparing, StreamStateStarted, StreamStatePaused, StreamStateStopped:
		return true
	}
	return false
}

// Live reports whether viewers may join the stream chat in this state.
func (s StreamState) Live() bool {
	return s == StreamStatePreparing || s == StreamStateStarted || s == StreamStatePaused
}

// Stream represents a broadcast owned by a user.
type Stream struct {
	ID        int64
	UserID    int64
	Title     string
	Descript  string
	Logo      *string
	State     StreamState
	StartTime *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage represents a persisted chat message of a stream.
type ChatMessage struct {
	ID       int64
	StreamID int64
	UserID   int64
	Nickname string
	Msg      string
	DateCrt  time.Time
	DateEdt  *time.Time
	DateRmv  *time.Time
}

// BlockedUser records that UserID blocked BlockedID in the chats of UserID's streams.
type BlockedUser struct {
	ID              int64
	UserID          int64
	BlockedID       int64
	BlockedNickname string
	BlockDate       time.Time
}

// ChatAccess describes what a user may do in the chat of a stream.
type ChatAccess struct {
	StreamID    int64
	StreamOwner int64
	StreamState StreamState
	IsOwner     bool
	IsBlocked   bool
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, nickname, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByNickname retrieves a user by nickname.
	GetUserByNickname(ctx context.Context, nickname string) (*User, error)

	// UpdateUser updates nickname, email, description and avatar.
	UpdateUser(ctx context.Context, user *User) error

	// SearchUsers searches for users by nickname.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// StreamStore handles stream persistence.
type StreamStore interface {
	CreateStream(ctx context.Context, stream *Stream) error
	GetStream(ctx context.Context, id int64) (*Stream, error)
	UpdateStream(ctx context.Context, stream *Stream) error
	DeleteStream(ctx context.Context, id int64) error

	// ListStreams lists streams, only the live ones when liveOnly is set.
	ListStreams(ctx context.Context, liveOnly bool, limit int) ([]*Stream, error)

	// ListStreamsByUser lists the streams owned by userID.
	ListStreamsByUser(ctx context.Context, userID int64) ([]*Stream, error)
}

// ChatStore handles chat message persistence.
type ChatStore interface {
	// CreateChatMessage persists a new message of a stream chat.
	CreateChatMessage(ctx context.Context, streamID, userID int64, text string) (*ChatMessage, error)

	// ModifyChatMessage replaces the text of a message written by userID.
	ModifyChatMessage(ctx context.Context, id, userID int64, text string) (*ChatMessage, error)

	// DeleteChatMessage soft-deletes a message. The author and the stream owner may delete.
	DeleteChatMessage(ctx context.Context, id, userID int64) (*ChatMessage, error)

	// ListChatMessages retrieves messages of a stream with pagination.
	// If beforeID is provided, returns messages older than that ID.
	ListChatMessages(ctx context.Context, streamID int64, limit int, beforeID *int64) ([]*ChatMessage, error)

	// CountChatMessages counts the non-removed messages of a stream.
	CountChatMessages(ctx context.Context, streamID int64) (int64, error)
}

// BlockStore handles the block lists of stream owners.
type BlockStore interface {
	// CreateBlockedUser blocks a user identified by id or, when id is nil, by nickname.
	CreateBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*BlockedUser, error)

	// DeleteBlockedUser removes a block and returns the removed record.
	DeleteBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*BlockedUser, error)

	// ListBlockedUsers lists the users blocked by userID.
	ListBlockedUsers(ctx context.Context, userID int64) ([]*BlockedUser, error)

	// GetChatAccess resolves the stream and, for a known user, its ownership and block state.
	GetChatAccess(ctx context.Context, streamID int64, userID *int64) (*ChatAccess, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	StreamStore
	ChatStore
	BlockStore

	// Close closes the underlying database connection.
	Close() error
}
