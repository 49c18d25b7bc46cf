package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinTTL is the smallest lifetime a token can be signed with. Claims are
// stored with second precision so anything shorter would expire on issue.
const MinTTL = time.Second

// Claims are the room invite token claims. The registered claims carry the
// temporal fields (iat, nbf, exp), the rest identify the invite the bearer is
// allowed to redeem.
type Claims struct {
	jwt.RegisteredClaims

	// RoomID the invite belongs to.
	RoomID string `json:"roomId,omitempty"`

	// InviteID of the persisted invite record.
	InviteID string `json:"inviteId,omitempty"`

	// Role granted on redemption ("host" or "guest").
	Role string `json:"role,omitempty"`

	// Nonce salts the claim set so two tokens for the same invite never share
	// content.
	Nonce string `json:"nonce,omitempty"`
}

// NewInviteClaims builds the claim set for a freshly minted invite. Temporal
// claims are left for the codec to stamp unless issuedAt is non-zero.
func NewInviteClaims(roomID, inviteID, role, nonce string, issuedAt time.Time) Claims {
	c := Claims{
		RoomID:   roomID,
		InviteID: inviteID,
		Role:     role,
		Nonce:    nonce,
	}
	if !issuedAt.IsZero() {
		c.IssuedAt = jwt.NewNumericDate(issuedAt)
	}
	return c
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateTime checks nbf and exp against now at second resolution. A token
// is usable from nbf inclusive until exp exclusive. Absent claims are not
// enforced.
func (c *Claims) ValidateTime(now time.Time) error {
	sec := now.Unix()

	if c.NotBefore != nil && sec < c.NotBefore.Unix() {
		return ErrNotYetValid
	}

	if c.ExpiresAt != nil && sec >= c.ExpiresAt.Unix() {
		return ErrExpired
	}

	return nil
}
