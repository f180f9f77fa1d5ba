package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vovakirdan/streamchat-server/internal/proto"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotJoined     = "not_joined"
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeNotOwner      = "not_owner"
	ErrCodeBlocked       = "blocked"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeNotActive     = "not_active"
	ErrCodeInternal      = "internal"
	ErrCodeRateLimited   = "rate_limited"
)

// ErrUnreachable is returned by a Sink that cannot accept a push without blocking.
var ErrUnreachable = errors.New("client unreachable")

// CoreError wraps a code, a human-readable message and the HTTP-like status
// reported to the client.
type CoreError struct {
	Code    string
	Message string
	Status  int
}

func (e *CoreError) Error() string {
	return e.Message
}

// Frame renders the error as an err frame.
func (e *CoreError) Frame() string {
	return proto.Encode(proto.ErrFrame{Err: e.Message, Code: e.Code, Status: e.Status})
}

func coreError(code, msg string, status int) *CoreError {
	return &CoreError{Code: code, Message: msg, Status: status}
}

func errFieldRequired(name string) *CoreError {
	return coreError(ErrCodeBadRequest, fmt.Sprintf("%q parameter not defined", name), http.StatusBadRequest)
}

func errInvalidField(name string) *CoreError {
	return coreError(ErrCodeBadRequest, fmt.Sprintf("%q parameter is invalid", name), http.StatusBadRequest)
}

var (
	errNotJoined     = coreError(ErrCodeNotJoined, "was not joined to the room", http.StatusBadRequest)
	errAlreadyJoined = coreError(ErrCodeAlreadyJoined, "already joined to this room", http.StatusBadRequest)
	errNotOwner      = coreError(ErrCodeNotOwner, "there are no owner rights", http.StatusForbidden)
	errBlocked       = coreError(ErrCodeBlocked, "you are blocked in this chat", http.StatusForbidden)
	errAuthRequired  = coreError(ErrCodeUnauthorized, "authentication required", http.StatusUnauthorized)
	errSelfBlock     = coreError(ErrCodeBadRequest, "cannot block yourself", http.StatusBadRequest)
	errStreamMissing = coreError(ErrCodeNotFound, "stream not found", http.StatusNotFound)
	errNotActive     = coreError(ErrCodeNotActive, "stream not active", http.StatusForbidden)
	errUserMissing   = coreError(ErrCodeNotFound, "user not found", http.StatusNotFound)
	errMsgMissing    = coreError(ErrCodeNotFound, "message not found", http.StatusNotFound)
	errUnsupported   = coreError(ErrCodeBadRequest, "unsupported command", http.StatusBadRequest)
	errInternal      = coreError(ErrCodeInternal, "internal server error", http.StatusInternalServerError)
)

// ErrRateLimited is reported to a client that exceeded its frame budget.
var ErrRateLimited = coreError(ErrCodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)

func errCodec(err error) *CoreError {
	return coreError(ErrCodeBadRequest, err.Error(), http.StatusBadRequest)
}
