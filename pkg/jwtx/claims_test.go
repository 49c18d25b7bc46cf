package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateTime(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(base),
			ExpiresAt: jwt.NewNumericDate(base.Add(time.Minute)),
		},
	}

	tests := []struct {
		name string
		now  time.Time
		err  error
	}{
		{"before nbf", base.Add(-time.Second), jwtx.ErrNotYetValid},
		{"at nbf", base, nil},
		{"sub-second before exp", base.Add(59*time.Second + 900*time.Millisecond), nil},
		{"at exp", base.Add(time.Minute), jwtx.ErrExpired},
		{"after exp", base.Add(2 * time.Minute), jwtx.ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateTime(tt.now)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewInviteClaims(t *testing.T) {
	t.Run("zero issuedAt leaves iat unset", func(t *testing.T) {
		c := jwtx.NewInviteClaims("r", "i", "guest", "n", time.Time{})
		require.Nil(t, c.IssuedAt)
		require.Equal(t, "r", c.RoomID)
		require.Equal(t, "i", c.InviteID)
		require.Equal(t, "guest", c.Role)
		require.Equal(t, "n", c.Nonce)
	})

	t.Run("explicit issuedAt", func(t *testing.T) {
		at := time.Unix(1_700_000_000, 0)
		c := jwtx.NewInviteClaims("r", "i", "host", "n", at)
		require.Equal(t, at.Unix(), c.IssuedAtTime().Unix())
	})
}
