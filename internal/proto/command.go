package proto

import "strings"

// Kind names a command of the chat protocol. The first key of every frame is a Kind.
type Kind int

const (
	KindUnknown Kind = iota
	KindBlock
	KindCount
	KindEcho
	KindErr
	KindJoin
	KindLeave
	KindMsg
	KindMsgCut
	KindMsgPut
	KindName
	KindUnblock
	KindPrmBool
	KindPrmInt
	KindPrmStr
)

var kindNames = [...]string{
	KindUnknown: "",
	KindBlock:   "block",
	KindCount:   "count",
	KindEcho:    "echo",
	KindErr:     "err",
	KindJoin:    "join",
	KindLeave:   "leave",
	KindMsg:     "msg",
	KindMsgCut:  "msgCut",
	KindMsgPut:  "msgPut",
	KindName:    "name",
	KindUnblock: "unblock",
	KindPrmBool: "prmBool",
	KindPrmInt:  "prmInt",
	KindPrmStr:  "prmStr",
}

// String returns the wire form of the command name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return ""
	}
	return kindNames[k]
}

// Kinds lists every recognized command.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := KindBlock; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

// LookupKind resolves a command name, ignoring case.
func LookupKind(name string) (Kind, bool) {
	for k := KindBlock; int(k) < len(kindNames); k++ {
		if strings.EqualFold(kindNames[k], name) {
			return k, true
		}
	}
	return KindUnknown, false
}
