package streams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/streamchat-server/internal/media"
	"github.com/vovakirdan/streamchat-server/internal/store"
)

const (
	maxTitleLen = 255
	defaultList = 50
	maxList     = 200
)

// Common errors for stream operations.
var (
	ErrStreamNotFound    = errors.New("stream not found")
	ErrNotOwner          = errors.New("not the owner of this stream")
	ErrInvalidTitle      = errors.New("title must be 1-255 characters")
	ErrInvalidState      = errors.New("invalid stream state")
	ErrInvalidTransition = errors.New("stream state transition not allowed")
	ErrStreamNotLive     = errors.New("stream is not live")
	ErrBlocked           = errors.New("you are blocked in this stream")
	ErrMediaDisabled     = errors.New("media server is not enabled")
)

// transitions lists the states reachable from each state.
var transitions = map[store.StreamState][]store.StreamState{
	store.StreamStateWaiting:   {store.StreamStatePreparing, store.StreamStateStarted, store.StreamStateStopped},
	store.StreamStatePreparing: {store.StreamStateWaiting, store.StreamStateStarted, store.StreamStateStopped},
	store.StreamStateStarted:   {store.StreamStatePaused, store.StreamStateStopped},
	store.StreamStatePaused:    {store.StreamStateStarted, store.StreamStateStopped},
	store.StreamStateStopped:   {store.StreamStateWaiting},
}

// CanTransition reports whether a stream in state from may move to state to.
func CanTransition(from, to store.StreamState) bool {
	return lo.Contains(transitions[from], to)
}

// Input carries the editable fields of a stream.
type Input struct {
	Title    string
	Descript string
}

// Service provides stream management business logic.
type Service struct {
	store  store.Store
	engine media.Engine
	log    zerolog.Logger
}

// New creates a new stream Service.
// engine can be nil if the media server is not enabled.
func New(st store.Store, engine media.Engine, log zerolog.Logger) *Service {
	return &Service{
		store:  st,
		engine: engine,
		log:    log,
	}
}

// Create creates a stream owned by userID in the waiting state.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*store.Stream, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	stream := &store.Stream{
		UserID:   userID,
		Title:    title,
		Descript: strings.TrimSpace(in.Descript),
		State:    store.StreamStateWaiting,
	}
	if err := s.store.CreateStream(ctx, stream); err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}
	return stream, nil
}

// Get returns a stream by ID.
func (s *Service) Get(ctx context.Context, id int64) (*store.Stream, error) {
	stream, err := s.store.GetStream(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, err
	}
	return stream, nil
}

// List lists streams, newest first. A non-positive limit selects the default.
func (s *Service) List(ctx context.Context, liveOnly bool, limit int) ([]*store.Stream, error) {
	if limit <= 0 {
		limit = defaultList
	}
	return s.store.ListStreams(ctx, liveOnly, min(limit, maxList))
}

// Update changes the title and description of a stream owned by userID.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (*store.Stream, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	stream, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	stream.Title = title
	stream.Descript = strings.TrimSpace(in.Descript)
	if err := s.store.UpdateStream(ctx, stream); err != nil {
		return nil, fmt.Errorf("update stream: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a stream owned by userID together with its chat.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	stream, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if stream.State.Live() {
		s.closeRoom(ctx, stream)
	}
	if err := s.store.DeleteStream(ctx, id); err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}
	return nil
}

// SetState moves a stream owned by userID to a new lifecycle state.
// The first start records the start time; stopping releases the media room.
func (s *Service) SetState(ctx context.Context, userID, id int64, state store.StreamState) (*store.Stream, error) {
	if !state.Valid() {
		return nil, ErrInvalidState
	}

	stream, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if stream.State == state {
		return stream, nil
	}
	if !CanTransition(stream.State, state) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, stream.State, state)
	}

	if state == store.StreamStateStarted && stream.StartTime == nil {
		stream.StartTime = lo.ToPtr(time.Now().UTC())
	}
	stream.State = state
	if err := s.store.UpdateStream(ctx, stream); err != nil {
		return nil, fmt.Errorf("update stream state: %w", err)
	}

	if state == store.StreamStateStopped {
		s.closeRoom(ctx, stream)
	}

	s.log.Info().
		Int64("stream_id", id).
		Str("state", string(state)).
		Msg("stream state changed")

	return s.Get(ctx, id)
}

// SetLogo stores the logo path of a stream owned by userID.
func (s *Service) SetLogo(ctx context.Context, userID, id int64, logo string) (*store.Stream, error) {
	stream, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	stream.Logo = &logo
	if err := s.store.UpdateStream(ctx, stream); err != nil {
		return nil, fmt.Errorf("update stream logo: %w", err)
	}
	return stream, nil
}

// MediaToken returns media server credentials for a stream. The owner may
// publish at any time; viewers need a live stream they are not blocked in.
func (s *Service) MediaToken(ctx context.Context, userID int64, nickname string, id int64) (*media.JoinInfo, error) {
	if s.engine == nil {
		return nil, ErrMediaDisabled
	}

	uid := userID
	access, err := s.store.GetChatAccess(ctx, id, &uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, fmt.Errorf("get chat access: %w", err)
	}

	if !access.IsOwner {
		if !access.StreamState.Live() {
			return nil, ErrStreamNotLive
		}
		if access.IsBlocked {
			return nil, ErrBlocked
		}
	}

	stream, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := s.engine.GenerateJoinInfo(ctx, stream, userID, nickname, access.IsOwner)
	if err != nil {
		return nil, fmt.Errorf("generate join info: %w", err)
	}
	return info, nil
}

// owned loads a stream and checks that userID owns it.
func (s *Service) owned(ctx context.Context, userID, id int64) (*store.Stream, error) {
	stream, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if stream.UserID != userID {
		return nil, ErrNotOwner
	}
	return stream, nil
}

func (s *Service) closeRoom(ctx context.Context, stream *store.Stream) {
	if s.engine == nil {
		return
	}
	if err := s.engine.CloseRoom(ctx, stream); err != nil {
		s.log.Warn().Err(err).Int64("stream_id", stream.ID).Msg("failed to close media room")
	}
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return "", ErrInvalidTitle
	}
	return title, nil
}
