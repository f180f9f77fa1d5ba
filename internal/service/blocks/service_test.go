package blocks

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/store"
	"github.com/vovakirdan/streamchat-server/internal/store/sqlite"
)

type notification struct {
	room    core.RoomID
	name    string
	blocked bool
}

type recordingNotifier struct {
	calls []notification
}

func (n *recordingNotifier) Block(room core.RoomID, name string, blocked bool) {
	n.calls = append(n.calls, notification{room: room, name: name, blocked: blocked})
}

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore, *recordingNotifier) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	notifier := &recordingNotifier{}
	return New(st, notifier, zerolog.Nop()), st, notifier
}

func TestBlockAndUnblockNotifiesLiveStreams(t *testing.T) {
	req := require.New(t)
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	owner, err := st.CreateUser(ctx, "owner", "owner@example.com", "hash")
	req.NoError(err)
	_, err = st.CreateUser(ctx, "troll", "troll@example.com", "hash")
	req.NoError(err)

	live := &store.Stream{UserID: owner.ID, Title: "live", State: store.StreamStateStarted}
	req.NoError(st.CreateStream(ctx, live))
	idle := &store.Stream{UserID: owner.ID, Title: "idle", State: store.StreamStateStopped}
	req.NoError(st.CreateStream(ctx, idle))

	blocked, err := svc.Block(ctx, owner.ID, " troll ")
	req.NoError(err)
	req.Equal("troll", blocked.BlockedNickname)
	req.Equal([]notification{{room: core.RoomID(live.ID), name: "troll", blocked: true}}, notifier.calls)

	list, err := svc.List(ctx, owner.ID)
	req.NoError(err)
	req.Len(list, 1)

	_, err = svc.Unblock(ctx, owner.ID, "troll")
	req.NoError(err)
	req.Len(notifier.calls, 2)
	req.False(notifier.calls[1].blocked)

	_, err = svc.Unblock(ctx, owner.ID, "troll")
	req.ErrorIs(err, ErrNotBlocked)
}

func TestBlockRejectsInvalidTargets(t *testing.T) {
	req := require.New(t)
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	owner, err := st.CreateUser(ctx, "owner", "owner@example.com", "hash")
	req.NoError(err)

	_, err = svc.Block(ctx, owner.ID, "owner")
	req.ErrorIs(err, ErrCannotBlockSelf)
	_, err = svc.Block(ctx, owner.ID, "nobody")
	req.ErrorIs(err, ErrUserNotFound)
	_, err = svc.Block(ctx, owner.ID, "  ")
	req.ErrorIs(err, ErrNicknameEmpty)
	req.Empty(notifier.calls)
}
