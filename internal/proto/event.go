package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Event is a decoded client frame: a command kind plus the flat object it came with.
type Event struct {
	kind   Kind
	fields map[string]any
}

// NewEvent builds an event from a kind and its fields. The command key itself
// is expected among fields under kind.String().
func NewEvent(kind Kind, fields map[string]any) *Event {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Event{kind: kind, fields: fields}
}

// Parse decodes a wire frame. The command is sniffed from the first key before
// the body is decoded, so an unknown command is reported even for invalid JSON.
func Parse(text string) (*Event, error) {
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, ErrMalformedFrame
	}

	name, ok := firstKey(text)
	if !ok {
		return nil, fmt.Errorf("%w: missing command name", ErrUnknownCommand)
	}
	kind, ok := LookupKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, &SerializationError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SerializationError{Err: errors.New("unexpected data after frame")}
	}

	return &Event{kind: kind, fields: fields}, nil
}

// firstKey returns the text between the first and second double quote after the opening brace.
func firstKey(text string) (string, bool) {
	rest := text[1:]
	start := strings.IndexByte(rest, '"')
	if start < 0 {
		return "", false
	}
	rest = rest[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// Kind returns the command of the event.
func (e *Event) Kind() Kind {
	return e.kind
}

// Has reports whether the field is present, whatever its type.
func (e *Event) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

// GetString returns a string field.
func (e *Event) GetString(name string) (string, bool) {
	v, ok := e.fields[name].(string)
	return v, ok
}

// GetBool returns a boolean field.
func (e *Event) GetBool(name string) (bool, bool) {
	v, ok := e.fields[name].(bool)
	return v, ok
}

// GetInt64 returns an integral numeric field.
func (e *Event) GetInt64(name string) (int64, bool) {
	switch v := e.fields[name].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// GetInt32 returns an integral numeric field that fits into 32 bits.
func (e *Event) GetInt32(name string) (int32, bool) {
	n, ok := e.GetInt64(name)
	if !ok || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

// Encode renders the event back to wire form with the command key first and
// the remaining keys sorted.
func (e *Event) Encode() (string, error) {
	cmd := e.kind.String()

	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		if k != cmd {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, cmd, e.fields[cmd]); err != nil {
		return "", err
	}
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeField(&buf, k, e.fields[k]); err != nil {
			return "", err
		}
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
