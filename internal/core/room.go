package core

import "sync"

// room groups the members of one stream chat.
// members is guarded by the hub registry lock; sendMu serializes broadcasts
// and removals so a member dropped mid-broadcast is not merged back.
type room struct {
	id      RoomID
	sendMu  sync.Mutex
	members map[ConnID]Handle
}

func newRoom(id RoomID) *room {
	return &room{
		id:      id,
		members: make(map[ConnID]Handle),
	}
}

// detach swaps the member map for an empty one and returns the old map.
func (r *room) detach() map[ConnID]Handle {
	old := r.members
	r.members = make(map[ConnID]Handle, len(old))
	return old
}

// merge reinserts survivors of a broadcast. Entries added since the detach win.
func (r *room) merge(survivors map[ConnID]Handle) {
	for id, h := range survivors {
		if _, taken := r.members[id]; taken {
			continue
		}
		r.members[id] = h
	}
}
