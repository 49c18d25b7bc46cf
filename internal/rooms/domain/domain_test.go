package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("host")
	require.NoError(t, err)
	require.Equal(t, domain.RoleHost, r)

	r, err = domain.ParseRole("guest")
	require.NoError(t, err)
	require.Equal(t, domain.RoleGuest, r)

	_, err = domain.ParseRole("admin")
	require.Error(t, err)

	_, err = domain.ParseRole("")
	require.Error(t, err)
}

func TestInviteRedeemable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	inv := domain.Invite{ExpiresAt: now.Add(time.Minute)}

	require.True(t, inv.Redeemable(now))
	require.False(t, inv.Redeemable(now.Add(time.Minute)), "exp is exclusive")

	inv.Used = true
	require.False(t, inv.Redeemable(now))
}

func TestRoomActive(t *testing.T) {
	require.True(t, domain.Room{Status: domain.RoomStatusActive}.Active())
	require.False(t, domain.Room{Status: "closed"}.Active())
	require.False(t, domain.Room{}.HasMeeting())
	require.True(t, domain.Room{MeetingID: "m"}.HasMeeting())
}
