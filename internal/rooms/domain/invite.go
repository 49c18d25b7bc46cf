package domain

import "time"

type Invite struct {
	ID     string
	RoomID string
	Role   Role

	// ExpiresAt is the redemption deadline, equal to the token exp.
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time // Nil until consumed
	CreatedAt time.Time

	// PurgeAt is when storage may drop the record (ExpiresAt plus grace).
	PurgeAt time.Time
}

// Expired reports whether the invite can no longer be redeemed at now.
func (i Invite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Redeemable reports whether the invite is unused and unexpired at now.
func (i Invite) Redeemable(now time.Time) bool {
	return !i.Used && !i.Expired(now)
}
