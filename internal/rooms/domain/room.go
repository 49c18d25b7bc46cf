package domain

import "time"

// RoomStatusActive is the only status that accepts joins.
const RoomStatusActive = "active"

type Room struct {
	ID        string
	Status    string
	MeetingID string // Empty until the first join provisions a meeting
	CreatedAt time.Time
	PurgeAt   time.Time
}

// Active reports whether invites for the room can still be redeemed.
func (r Room) Active() bool {
	return r.Status == RoomStatusActive
}

// HasMeeting reports whether a conferencing meeting has been bound to the room.
func (r Room) HasMeeting() bool {
	return r.MeetingID != ""
}
