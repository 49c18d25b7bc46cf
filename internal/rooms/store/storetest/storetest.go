// Package storetest holds the behavioural contract every store driver must
// satisfy. Drivers call Run from their own tests with a constructor.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

// Options tune the suite to a driver.
type Options struct {
	// NativeExpiry drivers drop records at PurgeAt by themselves, so the
	// explicit delete methods are expected to report zero.
	NativeExpiry bool

	// Concurrency is the number of racing goroutines in the CAS tests.
	Concurrency int
}

// Run executes the contract suite. newStore must return a fresh, migrated
// and empty store for every call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store, opts Options) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	t.Run("RoomRoundTrip", func(t *testing.T) { testRoomRoundTrip(t, newStore(t)) })
	t.Run("RoomNotFound", func(t *testing.T) { testRoomNotFound(t, newStore(t)) })
	t.Run("RoomDuplicate", func(t *testing.T) { testRoomDuplicate(t, newStore(t)) })
	t.Run("SetMeetingIfAbsent", func(t *testing.T) { testSetMeetingIfAbsent(t, newStore(t)) })
	t.Run("SetMeetingIfAbsentConcurrent", func(t *testing.T) {
		testSetMeetingIfAbsentConcurrent(t, newStore(t), opts.Concurrency)
	})
	t.Run("InviteRoundTrip", func(t *testing.T) { testInviteRoundTrip(t, newStore(t)) })
	t.Run("InviteNotFound", func(t *testing.T) { testInviteNotFound(t, newStore(t)) })
	t.Run("InviteDuplicate", func(t *testing.T) { testInviteDuplicate(t, newStore(t)) })
	t.Run("ConsumeInvite", func(t *testing.T) { testConsumeInvite(t, newStore(t)) })
	t.Run("ConsumeInviteExpired", func(t *testing.T) { testConsumeInviteExpired(t, newStore(t)) })
	t.Run("ConsumeInviteConcurrent", func(t *testing.T) {
		testConsumeInviteConcurrent(t, newStore(t), opts.Concurrency)
	})
	t.Run("DeleteExpired", func(t *testing.T) { testDeleteExpired(t, newStore(t), opts.NativeExpiry) })
}

// Times are anchored to the wall clock so drivers with native expiry keep
// the records for the duration of the test.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func newRoom(at time.Time) domain.Room {
	return domain.Room{
		ID:        ulid.Make().String(),
		Status:    domain.RoomStatusActive,
		CreatedAt: at,
		PurgeAt:   at.Add(24 * time.Hour),
	}
}

func newInvite(roomID string, role domain.Role, at time.Time, ttl time.Duration) domain.Invite {
	return domain.Invite{
		ID:        ulid.Make().String(),
		RoomID:    roomID,
		Role:      role,
		ExpiresAt: at.Add(ttl),
		CreatedAt: at,
		PurgeAt:   at.Add(ttl + time.Hour),
	}
}

func seedRoom(t *testing.T, s store.Store, at time.Time) domain.Room {
	t.Helper()
	room := newRoom(at)
	require.NoError(t, s.Rooms().CreateRoom(context.Background(), room))
	return room
}

func testRoomRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	room := newRoom(now())

	require.NoError(t, s.Rooms().CreateRoom(ctx, room))

	got, err := s.Rooms().GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, room.ID, got.ID)
	require.Equal(t, domain.RoomStatusActive, got.Status)
	require.Empty(t, got.MeetingID)
	require.True(t, room.CreatedAt.Equal(got.CreatedAt))
	require.True(t, room.PurgeAt.Equal(got.PurgeAt))
}

func testRoomNotFound(t *testing.T, s store.Store) {
	_, err := s.Rooms().GetRoomByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testRoomDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	room := seedRoom(t, s, now())

	err := s.Rooms().CreateRoom(ctx, room)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testSetMeetingIfAbsent(t *testing.T, s store.Store) {
	ctx := context.Background()
	room := seedRoom(t, s, now())

	stored, err := s.Rooms().SetMeetingIfAbsent(ctx, room.ID, "meeting-a")
	require.NoError(t, err)
	require.Equal(t, "meeting-a", stored)

	stored, err = s.Rooms().SetMeetingIfAbsent(ctx, room.ID, "meeting-b")
	require.NoError(t, err)
	require.Equal(t, "meeting-a", stored, "first writer wins")

	got, err := s.Rooms().GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, "meeting-a", got.MeetingID)

	_, err = s.Rooms().SetMeetingIfAbsent(ctx, "missing", "meeting-c")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testSetMeetingIfAbsentConcurrent(t *testing.T, s store.Store, n int) {
	ctx := context.Background()
	room := seedRoom(t, s, now())

	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)

	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = s.Rooms().SetMeetingIfAbsent(ctx, room.ID, fmt.Sprintf("meeting-%d", i))
		}(i)
	}
	close(start)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, results[0], results[i], "every racer observes the same meeting id")
	}

	got, err := s.Rooms().GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, results[0], got.MeetingID)
}

func testInviteRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := now()
	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleHost, at, 45*time.Minute)

	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	got, err := s.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, room.ID, got.RoomID)
	require.Equal(t, domain.RoleHost, got.Role)
	require.False(t, got.Used)
	require.Nil(t, got.UsedAt)
	require.True(t, inv.ExpiresAt.Equal(got.ExpiresAt))
	require.True(t, inv.CreatedAt.Equal(got.CreatedAt))
	require.True(t, inv.PurgeAt.Equal(got.PurgeAt))
}

func testInviteNotFound(t *testing.T, s store.Store) {
	_, err := s.Invites().GetInviteByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testInviteDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := now()
	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleGuest, at, time.Hour)

	require.NoError(t, s.Invites().CreateInvite(ctx, inv))
	require.ErrorIs(t, s.Invites().CreateInvite(ctx, inv), store.ErrAlreadyExists)
}

func testConsumeInvite(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := now()
	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleHost, at, time.Hour)
	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	consumedAt := at.Add(time.Minute)
	require.NoError(t, s.Invites().ConsumeInvite(ctx, inv.ID, consumedAt))

	got, err := s.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
	require.True(t, consumedAt.Equal(*got.UsedAt))

	err = s.Invites().ConsumeInvite(ctx, inv.ID, consumedAt)
	require.ErrorIs(t, err, store.ErrAlreadyUsed)

	err = s.Invites().ConsumeInvite(ctx, "missing", consumedAt)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testConsumeInviteExpired(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := now()
	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleGuest, at, time.Minute)
	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	// Exactly at the deadline the invite is no longer redeemable.
	err := s.Invites().ConsumeInvite(ctx, inv.ID, inv.ExpiresAt)
	require.ErrorIs(t, err, store.ErrExpired)

	got, err := s.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, got.Used, "a failed consume must not mutate the invite")

	// One second earlier it still works.
	require.NoError(t, s.Invites().ConsumeInvite(ctx, inv.ID, inv.ExpiresAt.Add(-time.Second)))
}

func testConsumeInviteConcurrent(t *testing.T, s store.Store, n int) {
	ctx := context.Background()
	at := now()
	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleHost, at, time.Hour)
	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	var wg sync.WaitGroup
	errs := make([]error, n)

	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = s.Invites().ConsumeInvite(ctx, inv.ID, at)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, used int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrAlreadyUsed):
			used++
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one consumer wins")
	require.Equal(t, n-1, used)
}

func testDeleteExpired(t *testing.T, s store.Store, nativeExpiry bool) {
	ctx := context.Background()
	at := now()

	room := seedRoom(t, s, at)
	inv := newInvite(room.ID, domain.RoleHost, at, time.Minute)
	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	// Nothing is due yet.
	n, err := s.Invites().DeleteExpiredInvites(ctx, at)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.Rooms().DeleteExpiredRooms(ctx, at)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.Invites().DeleteExpiredInvites(ctx, inv.PurgeAt)
	require.NoError(t, err)
	if nativeExpiry {
		require.Zero(t, n)
		return
	}
	require.EqualValues(t, 1, n)

	_, err = s.Invites().GetInviteByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err = s.Rooms().DeleteExpiredRooms(ctx, room.PurgeAt)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Rooms().GetRoomByID(ctx, room.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
