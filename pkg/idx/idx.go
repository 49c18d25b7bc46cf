// Package idx generates the identifiers roomkey hands out: ULIDs for rooms,
// invites and requests, random UUIDs for token nonces.
package idx

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string. Room and invite ids fit well
// inside the 64 character external id limit of meeting providers.
type ID string

// String returns the canonical string form.
func (id ID) String() string { return string(id) }

// Source mints ULIDs from a monotonic entropy stream, so ids minted in the
// same millisecond still sort in creation order. Safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSource reads entropy from r, crypto/rand when nil.
func NewSource(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}
	return &Source{entropy: ulid.Monotonic(r, 0)}
}

// NewAt mints an id stamped with t.
func (s *Source) NewAt(t time.Time) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), s.entropy).String())
}

var (
	defaultOnce   sync.Once
	defaultSource *Source
)

func source() *Source {
	defaultOnce.Do(func() { defaultSource = NewSource(nil) })
	return defaultSource
}

// New mints an id for the current time.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt mints an id stamped with t from the process-wide source. Rooms and
// their invites share the room's issue time.
func NewAt(t time.Time) ID {
	return source().NewAt(t)
}

// NewNonce returns a random UUIDv4 string. Nonces salt token claims so two
// tokens never share a payload.
func NewNonce() string {
	return uuid.NewString()
}
