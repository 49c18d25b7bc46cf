package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	roomredis "github.com/aussiebroadwan/roomkey/internal/rooms/store/drivers/redis"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*roomredis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return roomredis.NewStoreWithClient(client), mr
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newTestStore(t)
		return s
	}, storetest.Options{NativeExpiry: true})
}

func TestNewStore_FromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := roomredis.NewStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

func TestNewStore_BadURL(t *testing.T) {
	_, err := roomredis.NewStore(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestKeysExpireAtPurgeTime(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	room := domain.Room{
		ID:        "room-1",
		Status:    domain.RoomStatusActive,
		CreatedAt: now,
		PurgeAt:   now.Add(24 * time.Hour),
	}
	require.NoError(t, s.Rooms().CreateRoom(ctx, room))

	inv := domain.Invite{
		ID:        "invite-1",
		RoomID:    room.ID,
		Role:      domain.RoleHost,
		ExpiresAt: now.Add(45 * time.Minute),
		CreatedAt: now,
		PurgeAt:   now.Add(45*time.Minute + time.Hour),
	}
	require.NoError(t, s.Invites().CreateInvite(ctx, inv))

	require.True(t, mr.Exists("roomkey:room:room-1"))
	require.True(t, mr.Exists("roomkey:invite:invite-1"))
	require.Greater(t, mr.TTL("roomkey:invite:invite-1"), time.Hour)

	mr.FastForward(2 * time.Hour)

	_, err := s.Invites().GetInviteByID(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Rooms().GetRoomByID(ctx, room.ID)
	require.NoError(t, err, "room outlives its invites")

	mr.FastForward(24 * time.Hour)

	_, err = s.Rooms().GetRoomByID(ctx, room.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumeWritesHashFields(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Invites().CreateInvite(ctx, domain.Invite{
		ID:        "invite-1",
		RoomID:    "room-1",
		Role:      domain.RoleGuest,
		ExpiresAt: now.Add(time.Minute),
		CreatedAt: now,
		PurgeAt:   now.Add(time.Hour),
	}))
	require.Equal(t, "0", mr.HGet("roomkey:invite:invite-1", "used"))

	require.NoError(t, s.Invites().ConsumeInvite(ctx, "invite-1", now))
	require.Equal(t, "1", mr.HGet("roomkey:invite:invite-1", "used"))
	require.NotEmpty(t, mr.HGet("roomkey:invite:invite-1", "used_at"))
}

func TestGetInvite_RejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Invites().CreateInvite(ctx, domain.Invite{
		ID:        "invite-1",
		RoomID:    "room-1",
		Role:      domain.RoleHost,
		ExpiresAt: now.Add(time.Minute),
		CreatedAt: now,
		PurgeAt:   now.Add(time.Hour),
	}))
	mr.HSet("roomkey:invite:invite-1", "role", "owner")

	_, err := s.Invites().GetInviteByID(ctx, "invite-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNotFound)
	require.Contains(t, err.Error(), `unknown role "owner"`)
}

func TestCloseLeavesInjectedClientOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := roomredis.NewStoreWithClient(client)
	require.NoError(t, s.Close())
	require.NoError(t, client.Ping(context.Background()).Err())
}
