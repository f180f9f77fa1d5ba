package proto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEcho(t *testing.T) {
	req := require.New(t)

	ev, err := Parse(`{"echo": "hi"}`)
	req.NoError(err)
	req.Equal(KindEcho, ev.Kind())

	v, ok := ev.GetString("echo")
	req.True(ok)
	req.Equal("hi", v)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(*require.Assertions, error)
	}{
		{
			name: "unknown command",
			text: `{"foo": "bar"}`,
			check: func(req *require.Assertions, err error) {
				req.ErrorIs(err, ErrUnknownCommand)
			},
		},
		{
			name: "unknown command with invalid body",
			text: `{"foo": }`,
			check: func(req *require.Assertions, err error) {
				req.ErrorIs(err, ErrUnknownCommand)
			},
		},
		{
			name: "no opening brace",
			text: `"echo": "hi"}`,
			check: func(req *require.Assertions, err error) {
				req.ErrorIs(err, ErrMalformedFrame)
			},
		},
		{
			name: "no closing brace",
			text: `{"echo": "hi"`,
			check: func(req *require.Assertions, err error) {
				req.ErrorIs(err, ErrMalformedFrame)
			},
		},
		{
			name: "empty object",
			text: `{}`,
			check: func(req *require.Assertions, err error) {
				req.ErrorIs(err, ErrUnknownCommand)
			},
		},
		{
			name: "invalid json",
			text: `{"echo": hi}`,
			check: func(req *require.Assertions, err error) {
				var serr *SerializationError
				req.True(errors.As(err, &serr))
			},
		},
		{
			name: "trailing data",
			text: `{"echo": "a"} {"echo": "b"}`,
			check: func(req *require.Assertions, err error) {
				var serr *SerializationError
				req.True(errors.As(err, &serr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ev, err := Parse(tt.text)
			req.Nil(ev)
			req.Error(err)
			tt.check(req, err)
		})
	}
}

func TestLookupKindIgnoresCase(t *testing.T) {
	req := require.New(t)

	for _, k := range Kinds() {
		got, ok := LookupKind(k.String())
		req.True(ok, k.String())
		req.Equal(k, got)
	}

	got, ok := LookupKind("MSGCUT")
	req.True(ok)
	req.Equal(KindMsgCut, got)
	req.Equal("msgCut", got.String())

	_, ok = LookupKind("")
	req.False(ok)
}

func TestAccessors(t *testing.T) {
	req := require.New(t)

	ev, err := Parse(`{"prmInt": "volume", "val": 12, "big": 4294967296, "flag": true, "text": "x"}`)
	req.NoError(err)

	n, ok := ev.GetInt32("val")
	req.True(ok)
	req.Equal(int32(12), n)

	_, ok = ev.GetInt32("big")
	req.False(ok)
	big, ok := ev.GetInt64("big")
	req.True(ok)
	req.Equal(int64(4294967296), big)

	b, ok := ev.GetBool("flag")
	req.True(ok)
	req.True(b)

	_, ok = ev.GetBool("text")
	req.False(ok)
	_, ok = ev.GetString("val")
	req.False(ok)
	_, ok = ev.GetString("missing")
	req.False(ok)
	req.True(ev.Has("text"))
	req.False(ev.Has("missing"))
}

func TestEventRoundTrip(t *testing.T) {
	events := []*Event{
		NewEvent(KindEcho, map[string]any{"echo": "hello"}),
		NewEvent(KindName, map[string]any{"name": "bob"}),
		NewEvent(KindJoin, map[string]any{"join": 42}),
		NewEvent(KindLeave, map[string]any{"leave": 42}),
		NewEvent(KindCount, map[string]any{"count": 7}),
		NewEvent(KindBlock, map[string]any{"block": "eve"}),
		NewEvent(KindUnblock, map[string]any{"unblock": "eve"}),
		NewEvent(KindErr, map[string]any{"err": "boom"}),
		NewEvent(KindMsg, map[string]any{"msg": "hi there"}),
		NewEvent(KindMsgPut, map[string]any{"msgPut": 3, "msg": "edited"}),
		NewEvent(KindMsgCut, map[string]any{"msgCut": 3}),
		NewEvent(KindPrmBool, map[string]any{"prmBool": "muted", "val": true}),
		NewEvent(KindPrmInt, map[string]any{"prmInt": "volume", "val": -5}),
		NewEvent(KindPrmStr, map[string]any{"prmStr": "title", "val": "Live"}),
	}

	for _, want := range events {
		t.Run(want.Kind().String(), func(t *testing.T) {
			req := require.New(t)

			text, err := want.Encode()
			req.NoError(err)
			req.Regexp(`^\{"`+want.Kind().String()+`":`, text)

			got, err := Parse(text)
			req.NoError(err)
			req.Equal(want.Kind(), got.Kind())

			for name, v := range want.fields {
				switch v := v.(type) {
				case string:
					s, ok := got.GetString(name)
					req.True(ok, name)
					req.Equal(v, s)
				case bool:
					b, ok := got.GetBool(name)
					req.True(ok, name)
					req.Equal(v, b)
				case int:
					n, ok := got.GetInt32(name)
					req.True(ok, name)
					req.Equal(int32(v), n)
				}
			}
		})
	}
}

func TestEncodeFramesPutCommandFirst(t *testing.T) {
	req := require.New(t)

	req.Equal(`{"echo":"hi"}`, Encode(EchoFrame{Echo: "hi"}))
	req.Equal(`{"join":42,"member":"bob","count":3,"isOwner":false,"isBlocked":false}`,
		Encode(JoinFrame{Join: 42, Member: "bob", Count: 3}))
	req.Equal(`{"leave":42,"member":"bob","count":2}`, Encode(LeaveFrame{Leave: 42, Member: "bob", Count: 2}))
	req.Equal(`{"block":"bob","isInChat":true}`, Encode(BlockFrame{Block: "bob", IsInChat: true}))
	req.Equal(`{"err":"x","code":"not_joined","status":400}`, Encode(ErrFrame{Err: "x", Code: "not_joined", Status: 400}))
	req.Equal(`{"msgCut":7,"isRmv":true}`, Encode(MsgCutFrame{MsgCut: 7, IsRmv: true}))

	for _, frame := range []string{
		Encode(NameFrame{Name: "bob", ID: 1}),
		Encode(CountFrame{Count: 1, Room: 2}),
		Encode(UnblockFrame{Unblock: "bob"}),
		Encode(MsgFrame{Msg: "hi", ID: 1}),
		Encode(MsgPutFrame{MsgPut: 1, Msg: "hi"}),
		Encode(PrmBoolFrame{PrmBool: "a"}),
		Encode(PrmIntFrame{PrmInt: "a"}),
		Encode(PrmStrFrame{PrmStr: "a"}),
	} {
		_, err := Parse(frame)
		req.NoError(err, frame)
	}
}
