package blocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/store"
)

// Common errors for block list operations.
var (
	ErrCannotBlockSelf = errors.New("cannot block yourself")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotBlocked      = errors.New("user is not blocked")
	ErrNicknameEmpty   = errors.New("nickname is required")
)

// RoomNotifier tells the chat of a stream that a member was blocked or unblocked.
type RoomNotifier interface {
	Block(room core.RoomID, name string, blocked bool)
}

// Service manages the block lists of stream owners.
type Service struct {
	store    store.Store
	notifier RoomNotifier
	log      zerolog.Logger
}

// New creates a new block list Service. notifier may be nil.
func New(st store.Store, notifier RoomNotifier, log zerolog.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		log:      log,
	}
}

// List returns the users blocked by userID.
func (s *Service) List(ctx context.Context, userID int64) ([]*store.BlockedUser, error) {
	blocked, err := s.store.ListBlockedUsers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	return blocked, nil
}

// Block adds nickname to the block list of userID and tells the chats of the
// owner's live streams.
func (s *Service) Block(ctx context.Context, userID int64, nickname string) (*store.BlockedUser, error) {
	target, err := s.target(ctx, userID, nickname)
	if err != nil {
		return nil, err
	}

	blocked, err := s.store.CreateBlockedUser(ctx, userID, &target.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("block user: %w", err)
	}

	s.notify(ctx, userID, target.Nickname, true)
	return blocked, nil
}

// Unblock removes nickname from the block list of userID.
func (s *Service) Unblock(ctx context.Context, userID int64, nickname string) (*store.BlockedUser, error) {
	target, err := s.target(ctx, userID, nickname)
	if err != nil {
		return nil, err
	}

	removed, err := s.store.DeleteBlockedUser(ctx, userID, &target.ID, nil)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotBlocked
		}
		return nil, fmt.Errorf("unblock user: %w", err)
	}

	s.notify(ctx, userID, target.Nickname, false)
	return removed, nil
}

func (s *Service) target(ctx context.Context, userID int64, nickname string) (*store.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrNicknameEmpty
	}

	user, err := s.store.GetUserByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.ID == userID {
		return nil, ErrCannotBlockSelf
	}
	return user, nil
}

// notify is best effort: the block is already persisted.
func (s *Service) notify(ctx context.Context, userID int64, nickname string, blocked bool) {
	if s.notifier == nil {
		return
	}

	streams, err := s.store.ListStreamsByUser(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to list streams for block notification")
		return
	}
	for _, stream := range streams {
		if stream.State.Live() {
			s.notifier.Block(core.RoomID(stream.ID), nickname, blocked)
		}
	}
}
