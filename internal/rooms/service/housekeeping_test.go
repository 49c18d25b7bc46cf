package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeeping_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createRoom(t)

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Hour)
	hk.Now = f.clock.Now

	require.Equal(t, service.SweepResult{}, hk.Sweep(ctx))

	// Past the invite deadline plus grace, the room is still within its TTL.
	f.clock.Advance(45*time.Minute + service.DefaultInviteGrace)
	require.Equal(t, service.SweepResult{Invites: 2}, hk.Sweep(ctx))

	_, err := f.store.Rooms().GetRoomByID(ctx, created.RoomID)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	require.EqualValues(t, 1, hk.Sweep(ctx).Rooms)
}

func TestHousekeeping_StartStop(t *testing.T) {
	f := newFixture(t)

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), 0)
	require.Equal(t, service.DefaultHousekeepingInterval, hk.Interval)

	hk.Stop() // never started

	hk.Start()
	hk.Start()
	hk.Stop()
	hk.Stop()
}

func TestHousekeeping_RunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hk.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
