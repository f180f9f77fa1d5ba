package proto

import "errors"

var (
	// ErrMalformedFrame is returned when a frame is not wrapped in braces.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownCommand is returned when the first key of a frame is not a known command.
	ErrUnknownCommand = errors.New("unknown command")
)

// SerializationError wraps a JSON decoding failure of an otherwise recognized frame.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "serialization error: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
