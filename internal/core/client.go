package core

// ConnID identifies a live connection within a room. Zero means "not joined".
type ConnID uint64

// RoomID is the numeric stream id a chat room belongs to.
type RoomID int64

// PushKind tells a session what the coordinator pushed to it.
type PushKind int

const (
	// PushFrame carries a rendered wire frame for the client.
	PushFrame PushKind = iota
	// PushBlockState changes the session's blocked flag.
	PushBlockState
)

// Push is a single message from the coordinator to one session.
type Push struct {
	Kind    PushKind
	Frame   string
	Blocked bool
}

// Sink accepts pushes for one connection without blocking.
// TrySend returns ErrUnreachable when the push cannot be delivered right now.
type Sink interface {
	TrySend(Push) error
}

// Handle is what a room keeps for each member.
type Handle struct {
	Name string
	Sink Sink
}

// JoinFlags annotate the join broadcast of a member.
type JoinFlags struct {
	IsOwner   bool
	IsBlocked bool
}

// ChanSink is a Sink backed by a buffered channel.
type ChanSink chan Push

// NewChanSink creates a channel sink with the given buffer.
func NewChanSink(buffer int) ChanSink {
	if buffer < 1 {
		buffer = 1
	}
	return make(ChanSink, buffer)
}

// TrySend implements Sink.
func (s ChanSink) TrySend(p Push) error {
	select {
	case s <- p:
		return nil
	default:
		return ErrUnreachable
	}
}
