package proto

import "encoding/json"

// Outbound frames. Field order matters: the first JSON key names the command.

// EchoFrame answers an echo request.
type EchoFrame struct {
	Echo string `json:"echo"`
}

// NameFrame confirms the display name of a connection.
type NameFrame struct {
	Name string `json:"name"`
	ID   uint64 `json:"id"`
}

// JoinFrame announces a member entering a room.
type JoinFrame struct {
	Join      int64  `json:"join"`
	Member    string `json:"member"`
	Count     int    `json:"count"`
	IsOwner   bool   `json:"isOwner"`
	IsBlocked bool   `json:"isBlocked"`
}

// LeaveFrame announces a member leaving a room.
type LeaveFrame struct {
	Leave  int64  `json:"leave"`
	Member string `json:"member"`
	Count  int    `json:"count"`
}

// CountFrame reports the member count of a room.
type CountFrame struct {
	Count int   `json:"count"`
	Room  int64 `json:"room"`
}

// BlockFrame announces that a member was blocked by the stream owner.
type BlockFrame struct {
	Block    string `json:"block"`
	IsInChat bool   `json:"isInChat"`
}

// UnblockFrame announces that a member was unblocked by the stream owner.
type UnblockFrame struct {
	Unblock  string `json:"unblock"`
	IsInChat bool   `json:"isInChat"`
}

// ErrFrame describes a failure of the sender's own command.
type ErrFrame struct {
	Err    string `json:"err"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status,omitempty"`
}

// MsgFrame carries a new chat message.
type MsgFrame struct {
	Msg    string `json:"msg"`
	ID     int64  `json:"id"`
	Member string `json:"member"`
	Date   string `json:"date"`
}

// MsgPutFrame carries an edited chat message.
type MsgPutFrame struct {
	MsgPut int64  `json:"msgPut"`
	Msg    string `json:"msg"`
	Member string `json:"member"`
	Date   string `json:"date"`
	IsEdt  bool   `json:"isEdt"`
}

// MsgCutFrame announces a removed chat message.
type MsgCutFrame struct {
	MsgCut int64 `json:"msgCut"`
	IsRmv  bool  `json:"isRmv"`
}

// PrmBoolFrame broadcasts a boolean parameter update.
type PrmBoolFrame struct {
	PrmBool string `json:"prmBool"`
	Val     bool   `json:"val"`
	Member  string `json:"member"`
	IsOwner bool   `json:"isOwner"`
}

// PrmIntFrame broadcasts an integer parameter update.
type PrmIntFrame struct {
	PrmInt  string `json:"prmInt"`
	Val     int32  `json:"val"`
	Member  string `json:"member"`
	IsOwner bool   `json:"isOwner"`
}

// PrmStrFrame broadcasts a string parameter update.
type PrmStrFrame struct {
	PrmStr  string `json:"prmStr"`
	Val     string `json:"val"`
	Member  string `json:"member"`
	IsOwner bool   `json:"isOwner"`
}

// Encode renders an outbound frame to its wire text.
func Encode(frame any) string {
	data, err := json.Marshal(frame)
	if err != nil {
		// Only reachable with unsupported values; frames are plain structs.
		data, _ = json.Marshal(ErrFrame{Err: err.Error(), Code: "internal", Status: 500})
	}
	return string(data)
}
