package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a best-effort unique identifier.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// NewConnID returns a random non-zero 64-bit connection id.
// Ids are hard to guess; uniqueness within a room is checked by the caller.
func NewConnID() uint64 {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return uint64(time.Now().UnixNano())
		}
		if id := binary.LittleEndian.Uint64(buf[:]); id != 0 {
			return id
		}
	}
}
