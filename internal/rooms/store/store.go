package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrAlreadyUsed is returned by ConsumeInvite when the invite was
	// consumed before this call.
	ErrAlreadyUsed = errors.New("store: invite already used")

	// ErrExpired is returned by ConsumeInvite when the invite is unused but
	// its redemption deadline has passed.
	ErrExpired = errors.New("store: invite expired")
)

// Store is the root data access interface. Concrete drivers (sqlite, redis)
// implement this. The contract is a key-value store with atomic conditional
// writes, so there are no transactions: every state transition that has to
// be exclusive is a single conditional write inside the driver.
type Store interface {
	Rooms() Rooms
	Invites() Invites

	// ApplyMigrations brings the schema up to date. Schemaless drivers
	// return nil.
	ApplyMigrations() error

	// Close releases the underlying connection or pool.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

type Rooms interface {
	// CreateRoom inserts a new room. The id is generated by the caller.
	CreateRoom(ctx context.Context, r domain.Room) error

	// GetRoomByID returns the room or ErrNotFound.
	GetRoomByID(ctx context.Context, id string) (domain.Room, error)

	// SetMeetingIfAbsent stores meetingID on the room only if no meeting id
	// is set yet, and returns whichever id is stored afterwards. Concurrent
	// callers all observe the first writer's id.
	SetMeetingIfAbsent(ctx context.Context, roomID, meetingID string) (string, error)

	// DeleteExpiredRooms removes rooms whose purge time is at or before now
	// and reports how many were removed.
	DeleteExpiredRooms(ctx context.Context, now time.Time) (int64, error)
}

type Invites interface {
	// CreateInvite writes a new unused invite.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInviteByID returns the invite or ErrNotFound.
	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)

	// ConsumeInvite flips used to true iff the invite is unused and expires
	// after now, in one atomic step. When the condition fails the cause is
	// reported as ErrNotFound, ErrAlreadyUsed or ErrExpired.
	ConsumeInvite(ctx context.Context, id string, now time.Time) error

	// DeleteExpiredInvites removes invites whose purge time is at or before
	// now and reports how many were removed.
	DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}
