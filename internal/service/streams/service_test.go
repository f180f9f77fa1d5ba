package streams

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/streamchat-server/internal/media"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/store/sqlite"
)

type fakeEngine struct {
	closed []int64
}

func (e *fakeEngine) RoomName(stream *store.Stream) string {
	return "room"
}

func (e *fakeEngine) GenerateJoinInfo(_ context.Context, stream *store.Stream, userID int64, nickname string, publisher bool) (*media.JoinInfo, error) {
	return &media.JoinInfo{Token: nickname, RoomName: e.RoomName(stream), CanPublish: publisher}, nil
}

func (e *fakeEngine) CloseRoom(_ context.Context, stream *store.Stream) error {
	e.closed = append(e.closed, stream.ID)
	return nil
}

type fixture struct {
	svc    *Service
	store  *sqlite.SQLiteStore
	engine *fakeEngine
	owner  *store.User
	viewer *store.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	owner, err := st.CreateUser(ctx, "owner", "owner@example.com", "hash")
	require.NoError(t, err)
	viewer, err := st.CreateUser(ctx, "viewer", "viewer@example.com", "hash")
	require.NoError(t, err)

	engine := &fakeEngine{}
	return &fixture{
		svc:    New(st, engine, zerolog.Nop()),
		store:  st,
		engine: engine,
		owner:  owner,
		viewer: viewer,
	}
}

func TestCreateValidatesTitle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner.ID, Input{Title: "   "})
	req.ErrorIs(err, ErrInvalidTitle)

	stream, err := f.svc.Create(ctx, f.owner.ID, Input{Title: "  Evening show ", Descript: "music"})
	req.NoError(err)
	req.Equal("Evening show", stream.Title)
	req.Equal(store.StreamStateWaiting, stream.State)
	req.Equal(f.owner.ID, stream.UserID)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	stream, err := f.svc.Create(ctx, f.owner.ID, Input{Title: "show"})
	req.NoError(err)

	_, err = f.svc.Update(ctx, f.viewer.ID, stream.ID, Input{Title: "hijack"})
	req.ErrorIs(err, ErrNotOwner)
	req.ErrorIs(f.svc.Delete(ctx, f.viewer.ID, stream.ID), ErrNotOwner)

	updated, err := f.svc.Update(ctx, f.owner.ID, stream.ID, Input{Title: "renamed", Descript: "d"})
	req.NoError(err)
	req.Equal("renamed", updated.Title)
	req.Equal("d", updated.Descript)

	req.NoError(f.svc.Delete(ctx, f.owner.ID, stream.ID))
	_, err = f.svc.Get(ctx, stream.ID)
	req.ErrorIs(err, ErrStreamNotFound)
}

func TestSetStateLifecycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	stream, err := f.svc.Create(ctx, f.owner.ID, Input{Title: "show"})
	req.NoError(err)

	_, err = f.svc.SetState(ctx, f.owner.ID, stream.ID, "bogus")
	req.ErrorIs(err, ErrInvalidState)
	_, err = f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStatePaused)
	req.ErrorIs(err, ErrInvalidTransition)
	_, err = f.svc.SetState(ctx, f.viewer.ID, stream.ID, store.StreamStateStarted)
	req.ErrorIs(err, ErrNotOwner)

	started, err := f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStateStarted)
	req.NoError(err)
	req.Equal(store.StreamStateStarted, started.State)
	req.NotNil(started.StartTime)
	firstStart := *started.StartTime

	_, err = f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStatePaused)
	req.NoError(err)
	resumed, err := f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStateStarted)
	req.NoError(err)
	req.True(firstStart.Equal(*resumed.StartTime))

	stopped, err := f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStateStopped)
	req.NoError(err)
	req.Equal(store.StreamStateStopped, stopped.State)
	req.Equal([]int64{stream.ID}, f.engine.closed)

	live, err := f.svc.List(ctx, true, 0)
	req.NoError(err)
	req.Empty(live)
}

func TestMediaToken(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	stream, err := f.svc.Create(ctx, f.owner.ID, Input{Title: "show"})
	req.NoError(err)

	info, err := f.svc.MediaToken(ctx, f.owner.ID, "owner", stream.ID)
	req.NoError(err)
	req.True(info.CanPublish)

	_, err = f.svc.MediaToken(ctx, f.viewer.ID, "viewer", stream.ID)
	req.ErrorIs(err, ErrStreamNotLive)

	_, err = f.svc.SetState(ctx, f.owner.ID, stream.ID, store.StreamStateStarted)
	req.NoError(err)

	info, err = f.svc.MediaToken(ctx, f.viewer.ID, "viewer", stream.ID)
	req.NoError(err)
	req.False(info.CanPublish)
	req.Equal("viewer", info.Token)

	_, err = f.store.CreateBlockedUser(ctx, f.owner.ID, &f.viewer.ID, nil)
	req.NoError(err)
	_, err = f.svc.MediaToken(ctx, f.viewer.ID, "viewer", stream.ID)
	req.ErrorIs(err, ErrBlocked)

	_, err = f.svc.MediaToken(ctx, f.viewer.ID, "viewer", stream.ID+100)
	req.ErrorIs(err, ErrStreamNotFound)

	disabled := New(f.store, nil, zerolog.Nop())
	_, err = disabled.MediaToken(ctx, f.owner.ID, "owner", stream.ID)
	req.ErrorIs(err, ErrMediaDisabled)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to store.StreamState
		want     bool
	}{
		{store.StreamStateWaiting, store.StreamStateStarted, true},
		{store.StreamStateStarted, store.StreamStateWaiting, false},
		{store.StreamStatePaused, store.StreamStateStarted, true},
		{store.StreamStateStopped, store.StreamStateStarted, false},
		{store.StreamStateStopped, store.StreamStateWaiting, true},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
