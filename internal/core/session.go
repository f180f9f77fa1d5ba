package core

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/proto"
	"github.com/vovakirdan/streamchat-server/internal/store"
)

const defaultSessionBuffer = 32

// SessionConfig carries the collaborators of a session.
type SessionConfig struct {
	Hub        *Hub
	Gateway    ChatGateway
	Dispatcher Dispatcher
	Censor     Censor
	Log        zerolog.Logger

	// User is nil for anonymous connections.
	User *Identity

	// Buffer sizes the push and reply queues.
	Buffer int
	// MaxMessageLen limits chat text in runes. Zero disables the check.
	MaxMessageLen int
}

// Session is the protocol state of one connection. All fields are owned by
// the goroutine running Run; the hub and background tasks talk to it through
// its sink and result queue.
type Session struct {
	hub        *Hub
	gateway    ChatGateway
	dispatcher Dispatcher
	censor     Censor
	log        zerolog.Logger
	user       *Identity
	maxLen     int

	sink    ChanSink
	out     chan string
	results chan func(context.Context)

	id      ConnID
	room    RoomID
	joined  bool
	member  string
	name    string
	blocked bool
	owner   bool
}

// NewSession builds a session that has not joined any room.
func NewSession(cfg SessionConfig) *Session {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultSessionBuffer
	}
	log := cfg.Log
	if cfg.User != nil {
		log = log.With().Int64("user_id", cfg.User.UserID).Logger()
	}
	return &Session{
		hub:        cfg.Hub,
		gateway:    cfg.Gateway,
		dispatcher: cfg.Dispatcher,
		censor:     cfg.Censor,
		log:        log,
		user:       cfg.User,
		maxLen:     cfg.MaxMessageLen,
		sink:       NewChanSink(buffer),
		out:        make(chan string, buffer),
		results:    make(chan func(context.Context), buffer),
	}
}

// Out yields frames for the client. It is closed when Run returns.
func (s *Session) Out() <-chan string {
	return s.out
}

// Run processes inbound frames, coordinator pushes and background results
// until ctx is done or inbound is closed. The session leaves its room on return.
func (s *Session) Run(ctx context.Context, inbound <-chan string) error {
	defer close(s.out)
	defer s.leaveRoom()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-inbound:
			if !ok {
				return nil
			}
			s.handle(ctx, text)
		case p := <-s.sink:
			s.apply(ctx, p)
		case fn := <-s.results:
			fn(ctx)
		}
	}
}

func (s *Session) handle(ctx context.Context, text string) {
	ev, err := proto.Parse(text)
	if err != nil {
		s.replyErr(ctx, errCodec(err))
		return
	}
	if cerr := s.dispatch(ctx, ev); cerr != nil {
		s.replyErr(ctx, cerr)
	}
}

func (s *Session) apply(ctx context.Context, p Push) {
	switch p.Kind {
	case PushFrame:
		s.write(ctx, p.Frame)
	case PushBlockState:
		s.blocked = p.Blocked
		s.log.Debug().Bool("blocked", p.Blocked).Int64("room", int64(s.room)).Msg("block state changed")
	}
}

// dispatch validates and executes one command. Checks run in a fixed order:
// required fields, room membership, owner rights, blocked state.
func (s *Session) dispatch(ctx context.Context, ev *proto.Event) *CoreError {
	switch ev.Kind() {
	case proto.KindEcho:
		v, _ := ev.GetString("echo")
		if v == "" {
			return errFieldRequired("echo")
		}
		s.write(ctx, proto.Encode(proto.EchoFrame{Echo: v}))
	case proto.KindName:
		v, _ := ev.GetString("name")
		if v == "" {
			return errFieldRequired("name")
		}
		s.name = v
		s.write(ctx, proto.Encode(proto.NameFrame{Name: v, ID: uint64(s.id)}))
	case proto.KindJoin:
		return s.join(ev)
	case proto.KindLeave:
		if !s.joined {
			return errNotJoined
		}
		s.leaveRoom()
	case proto.KindCount:
		return s.count(ctx, ev)
	case proto.KindBlock:
		return s.block(ev, true)
	case proto.KindUnblock:
		return s.block(ev, false)
	case proto.KindPrmBool, proto.KindPrmInt, proto.KindPrmStr:
		return s.param(ev)
	case proto.KindMsg:
		return s.sendMessage(ev)
	case proto.KindMsgPut:
		return s.editMessage(ev)
	case proto.KindMsgCut:
		return s.removeMessage(ev)
	default:
		return errUnsupported
	}
	return nil
}

func (s *Session) join(ev *proto.Event) *CoreError {
	raw, ok := ev.GetInt64("join")
	if !ok {
		return errFieldRequired("join")
	}
	target := RoomID(raw)
	if s.joined && s.room == target {
		return errAlreadyJoined
	}

	var userID *int64
	if s.user != nil {
		uid := s.user.UserID
		userID = &uid
	}

	s.background(func(ctx context.Context) func(context.Context) {
		access, err := s.gateway.GetChatAccess(ctx, raw, userID)
		return func(ctx context.Context) {
			if err != nil {
				s.replyErr(ctx, s.gatewayError(err, errStreamMissing, "get chat access"))
				return
			}
			if !access.StreamState.Live() {
				s.replyErr(ctx, errNotActive)
				return
			}
			if s.joined && s.room == target {
				s.replyErr(ctx, errAlreadyJoined)
				return
			}
			s.leaveRoom()

			s.owner = access.IsOwner
			s.blocked = access.IsBlocked
			s.member = s.displayName()
			s.id = s.hub.Join(target, s.id, s.member, JoinFlags{IsOwner: s.owner, IsBlocked: s.blocked}, s.sink)
			s.room = target
			s.joined = true
			s.log.Info().Int64("room", int64(target)).Uint64("conn_id", uint64(s.id)).Msg("joined chat")
		}
	})
	return nil
}

func (s *Session) count(ctx context.Context, ev *proto.Event) *CoreError {
	room := s.room
	if raw, ok := ev.GetInt64("count"); ok {
		room = RoomID(raw)
	} else if !s.joined {
		return errNotJoined
	}
	s.write(ctx, proto.Encode(proto.CountFrame{Count: s.hub.Count(room), Room: int64(room)}))
	return nil
}

func (s *Session) block(ev *proto.Event, blocked bool) *CoreError {
	field := ev.Kind().String()
	target, _ := ev.GetString(field)
	if target == "" {
		return errFieldRequired(field)
	}
	if !s.joined {
		return errNotJoined
	}
	if !s.owner || s.user == nil {
		return errNotOwner
	}
	if target == s.user.Nickname {
		return errSelfBlock
	}

	room := s.room
	ownerID := s.user.UserID
	s.background(func(ctx context.Context) func(context.Context) {
		var err error
		if blocked {
			_, err = s.gateway.CreateBlockedUser(ctx, ownerID, nil, &target)
		} else {
			_, err = s.gateway.DeleteBlockedUser(ctx, ownerID, nil, &target)
		}
		if err != nil {
			cerr := s.gatewayError(err, errUserMissing, "update block list")
			return func(ctx context.Context) { s.replyErr(ctx, cerr) }
		}
		s.hub.Block(room, target, blocked)
		s.log.Info().Int64("room", int64(room)).Str("target", target).Bool("blocked", blocked).Msg("block list updated")
		return nil
	})
	return nil
}

func (s *Session) param(ev *proto.Event) *CoreError {
	kind := ev.Kind()
	field := kind.String()
	name, _ := ev.GetString(field)
	if name == "" {
		return errFieldRequired(field)
	}
	if !ev.Has("val") {
		return errFieldRequired("val")
	}

	member := s.displayName()
	var frame any
	switch kind {
	case proto.KindPrmBool:
		v, ok := ev.GetBool("val")
		if !ok {
			return errInvalidField("val")
		}
		frame = proto.PrmBoolFrame{PrmBool: name, Val: v, Member: member, IsOwner: s.owner}
	case proto.KindPrmInt:
		v, ok := ev.GetInt32("val")
		if !ok {
			return errInvalidField("val")
		}
		frame = proto.PrmIntFrame{PrmInt: name, Val: v, Member: member, IsOwner: s.owner}
	default:
		v, ok := ev.GetString("val")
		if !ok {
			return errInvalidField("val")
		}
		frame = proto.PrmStrFrame{PrmStr: name, Val: v, Member: member, IsOwner: s.owner}
	}

	if !s.joined {
		return errNotJoined
	}
	if s.blocked {
		return errBlocked
	}
	s.hub.Broadcast(s.room, proto.Encode(frame))
	return nil
}

func (s *Session) sendMessage(ev *proto.Event) *CoreError {
	text, cerr := s.messageText(ev)
	if cerr != nil {
		return cerr
	}
	if cerr := s.checkChatter(); cerr != nil {
		return cerr
	}

	room, userID, member := s.room, s.user.UserID, s.displayName()
	text = s.censorText(text)
	s.background(func(ctx context.Context) func(context.Context) {
		msg, err := s.gateway.CreateChatMessage(ctx, int64(room), userID, text)
		if err != nil {
			cerr := s.gatewayError(err, errStreamMissing, "create chat message")
			return func(ctx context.Context) { s.replyErr(ctx, cerr) }
		}
		s.hub.Broadcast(room, proto.Encode(proto.MsgFrame{
			Msg:    msg.Msg,
			ID:     msg.ID,
			Member: member,
			Date:   msg.DateCrt.Format(time.RFC3339),
		}))
		return nil
	})
	return nil
}

func (s *Session) editMessage(ev *proto.Event) *CoreError {
	id, ok := ev.GetInt64("msgPut")
	if !ok {
		return errFieldRequired("msgPut")
	}
	text, cerr := s.messageText(ev)
	if cerr != nil {
		return cerr
	}
	if cerr := s.checkChatter(); cerr != nil {
		return cerr
	}

	room, userID, member := s.room, s.user.UserID, s.displayName()
	text = s.censorText(text)
	s.background(func(ctx context.Context) func(context.Context) {
		msg, err := s.gateway.ModifyChatMessage(ctx, id, userID, text)
		if err != nil {
			cerr := s.gatewayError(err, errMsgMissing, "modify chat message")
			return func(ctx context.Context) { s.replyErr(ctx, cerr) }
		}
		date := msg.DateCrt
		if msg.DateEdt != nil {
			date = *msg.DateEdt
		}
		s.hub.Broadcast(room, proto.Encode(proto.MsgPutFrame{
			MsgPut: msg.ID,
			Msg:    msg.Msg,
			Member: member,
			Date:   date.Format(time.RFC3339),
			IsEdt:  true,
		}))
		return nil
	})
	return nil
}

func (s *Session) removeMessage(ev *proto.Event) *CoreError {
	id, ok := ev.GetInt64("msgCut")
	if !ok {
		return errFieldRequired("msgCut")
	}
	if cerr := s.checkChatter(); cerr != nil {
		return cerr
	}

	room, userID := s.room, s.user.UserID
	s.background(func(ctx context.Context) func(context.Context) {
		msg, err := s.gateway.DeleteChatMessage(ctx, id, userID)
		if err != nil {
			cerr := s.gatewayError(err, errMsgMissing, "delete chat message")
			return func(ctx context.Context) { s.replyErr(ctx, cerr) }
		}
		s.hub.Broadcast(room, proto.Encode(proto.MsgCutFrame{MsgCut: msg.ID, IsRmv: true}))
		return nil
	})
	return nil
}

func (s *Session) messageText(ev *proto.Event) (string, *CoreError) {
	text, _ := ev.GetString("msg")
	if text == "" {
		return "", errFieldRequired("msg")
	}
	if s.maxLen > 0 && utf8.RuneCountInString(text) > s.maxLen {
		return "", errInvalidField("msg")
	}
	return text, nil
}

// checkChatter applies the membership, authentication and block checks shared
// by the chat content commands.
func (s *Session) checkChatter() *CoreError {
	if !s.joined {
		return errNotJoined
	}
	if s.user == nil {
		return errAuthRequired
	}
	if s.blocked {
		return errBlocked
	}
	return nil
}

func (s *Session) censorText(text string) string {
	if s.censor == nil {
		return text
	}
	return s.censor.Censor(text)
}

// background runs task on the dispatcher. A non-nil function returned by the
// task is executed on the session goroutine.
func (s *Session) background(task func(ctx context.Context) func(context.Context)) {
	s.dispatcher.Go(func() {
		fn := task(context.Background())
		if fn == nil {
			return
		}
		select {
		case s.results <- fn:
		default:
			s.log.Warn().Msg("session result queue full, dropping result")
		}
	})
}

func (s *Session) gatewayError(err error, notFound *CoreError, op string) *CoreError {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	s.log.Error().Err(err).Str("op", op).Msg("chat persistence failed")
	return errInternal
}

func (s *Session) leaveRoom() {
	if !s.joined {
		return
	}
	s.hub.Leave(s.room, s.id, s.member)
	s.log.Info().Int64("room", int64(s.room)).Uint64("conn_id", uint64(s.id)).Msg("left chat")
	s.joined = false
	s.room = 0
	s.owner = false
	s.blocked = false
}

func (s *Session) displayName() string {
	if s.name != "" {
		return s.name
	}
	if s.user != nil {
		return s.user.Nickname
	}
	return ""
}

func (s *Session) replyErr(ctx context.Context, err *CoreError) {
	s.write(ctx, err.Frame())
}

func (s *Session) write(ctx context.Context, frame string) {
	select {
	case s.out <- frame:
	case <-ctx.Done():
	}
}
