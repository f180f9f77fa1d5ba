package core

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/proto"
	"github.com/vovakirdan/streamchat-server/internal/utils"
)

// Hub coordinates the chat rooms of all streams.
// Lock order: room.sendMu before Hub.mu.
type Hub struct {
	mu    sync.Mutex
	rooms map[RoomID]*room

	// inflight counts members detached by a running broadcast, per room.
	inflight map[RoomID]int

	newID func() ConnID
	log   zerolog.Logger
}

// NewHub creates a new chat hub instance.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[RoomID]*room),
		inflight: make(map[RoomID]int),
		newID:    func() ConnID { return ConnID(utils.NewConnID()) },
		log:      log,
	}
}

// Join inserts a member into the room and announces it to everyone in the room,
// the new member included. A zero id asks the hub to pick a fresh random one;
// a non-zero id replaces the handle stored under it.
func (h *Hub) Join(roomID RoomID, id ConnID, name string, flags JoinFlags, sink Sink) ConnID {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom(roomID)
		h.rooms[roomID] = r
	}
	if id == 0 {
		for {
			id = h.newID()
			if _, taken := r.members[id]; id != 0 && !taken {
				break
			}
		}
	}
	r.members[id] = Handle{Name: name, Sink: sink}
	count := len(r.members) + h.inflight[roomID]
	h.mu.Unlock()

	h.log.Debug().Int64("room", int64(roomID)).Uint64("conn_id", uint64(id)).Str("member", name).Msg("member joined")

	h.Broadcast(roomID, proto.Encode(proto.JoinFrame{
		Join:      int64(roomID),
		Member:    name,
		Count:     count,
		IsOwner:   flags.IsOwner,
		IsBlocked: flags.IsBlocked,
	}))
	return id
}

// Leave removes a member. When it was present, the remaining members and the
// leaving member itself receive a leave frame.
func (h *Hub) Leave(roomID RoomID, id ConnID, name string) bool {
	r := h.room(roomID)
	if r == nil {
		return false
	}

	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	h.mu.Lock()
	handle, ok := r.members[id]
	if ok {
		delete(r.members, id)
	}
	count := len(r.members)
	h.mu.Unlock()

	if !ok {
		return false
	}

	h.log.Debug().Int64("room", int64(roomID)).Uint64("conn_id", uint64(id)).Str("member", name).Msg("member left")

	frame := proto.Encode(proto.LeaveFrame{Leave: int64(roomID), Member: name, Count: count})
	h.broadcastLocked(r, frame)
	_ = handle.Sink.TrySend(Push{Kind: PushFrame, Frame: frame})
	return true
}

// Count returns the number of members in the room, 0 for an unknown room.
func (h *Hub) Count(roomID RoomID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return 0
	}
	return len(r.members) + h.inflight[roomID]
}

// Broadcast delivers a frame to every member of the room. Members whose sink
// rejects the frame are dropped from the room. Members joining while the
// broadcast runs do not receive it.
func (h *Hub) Broadcast(roomID RoomID, frame string) {
	r := h.room(roomID)
	if r == nil {
		return
	}

	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	h.broadcastLocked(r, frame)
}

// broadcastLocked requires r.sendMu.
func (h *Hub) broadcastLocked(r *room, frame string) {
	h.mu.Lock()
	detached := r.detach()
	h.inflight[r.id] = len(detached)
	h.mu.Unlock()

	survivors := make(map[ConnID]Handle, len(detached))
	for id, handle := range detached {
		if err := handle.Sink.TrySend(Push{Kind: PushFrame, Frame: frame}); err != nil {
			h.log.Debug().Err(err).Int64("room", int64(r.id)).Uint64("conn_id", uint64(id)).Msg("dropping unreachable member")
			continue
		}
		survivors[id] = handle
	}

	h.mu.Lock()
	r.merge(survivors)
	delete(h.inflight, r.id)
	h.mu.Unlock()
}

// NotifyBlock pushes the block state to every member named name.
// It reports whether at least one of them accepted the push.
func (h *Hub) NotifyBlock(roomID RoomID, name string, blocked bool) bool {
	r := h.room(roomID)
	if r == nil {
		return false
	}

	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return h.notifyBlockLocked(r, name, blocked)
}

func (h *Hub) notifyBlockLocked(r *room, name string, blocked bool) bool {
	h.mu.Lock()
	targets := make([]Handle, 0, 1)
	for _, handle := range r.members {
		if handle.Name == name {
			targets = append(targets, handle)
		}
	}
	h.mu.Unlock()

	delivered := false
	for _, handle := range targets {
		if err := handle.Sink.TrySend(Push{Kind: PushBlockState, Blocked: blocked}); err == nil {
			delivered = true
		}
	}
	return delivered
}

// Block notifies the named member of its new state and tells the room,
// including whether the member is currently in the chat.
func (h *Hub) Block(roomID RoomID, name string, blocked bool) {
	r := h.room(roomID)
	if r == nil {
		return
	}

	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	inChat := h.notifyBlockLocked(r, name, blocked)

	var frame string
	if blocked {
		frame = proto.Encode(proto.BlockFrame{Block: name, IsInChat: inChat})
	} else {
		frame = proto.Encode(proto.UnblockFrame{Unblock: name, IsInChat: inChat})
	}
	h.broadcastLocked(r, frame)
}

// Stats reports the number of non-empty rooms and the total member count.
func (h *Hub) Stats() (rooms, members int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, r := range h.rooms {
		n := len(r.members) + h.inflight[id]
		if n > 0 {
			rooms++
			members += n
		}
	}
	return rooms, members
}

func (h *Hub) room(roomID RoomID) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID]
}
