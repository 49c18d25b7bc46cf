package roomsdk

// CreateRoomRequest is the optional body of POST /v1/rooms. Zero values fall
// back to the server defaults.
type CreateRoomRequest struct {
	// InviteMinutes is how long both invites can be redeemed.
	InviteMinutes int `json:"inviteMinutes,omitempty" example:"45"`

	// RoomTTLDays is how long the room record is kept.
	RoomTTLDays int `json:"roomTtlDays,omitempty" example:"1"`
}

// Invite is one role's invite as returned on room creation.
type Invite struct {
	InviteID string `json:"inviteId" example:"01J9Z6N4W2C0Q8T1V3X5Y7Z9AB"`

	// Token is the bearer credential. It is only returned once.
	Token string `json:"token"`

	// Exp is the redemption deadline in unix seconds.
	Exp int64 `json:"exp" example:"1700002700"`
}

type RoomInvites struct {
	Host  Invite `json:"host"`
	Guest Invite `json:"guest"`
}

// CreateRoomResponse is returned by POST /v1/rooms.
type CreateRoomResponse struct {
	RoomID  string      `json:"roomId" example:"01J9Z6N4W2C0Q8T1V3X5Y7Z9AA"`
	Invites RoomInvites `json:"invites"`
}

// JoinRequest is the body of POST /v1/rooms/{roomId}/join.
type JoinRequest struct {
	// T is the invite token.
	T string `json:"t"`
}

type MediaPlacement struct {
	AudioHostURL      string `json:"AudioHostUrl,omitempty"`
	AudioFallbackURL  string `json:"AudioFallbackUrl,omitempty"`
	SignalingURL      string `json:"SignalingUrl,omitempty"`
	TurnControlURL    string `json:"TurnControlUrl,omitempty"`
	ScreenDataURL     string `json:"ScreenDataUrl,omitempty"`
	ScreenViewingURL  string `json:"ScreenViewingUrl,omitempty"`
	ScreenSharingURL  string `json:"ScreenSharingUrl,omitempty"`
	EventIngestionURL string `json:"EventIngestionUrl,omitempty"`
}

type Meeting struct {
	MeetingID         string          `json:"MeetingId"`
	ExternalMeetingID string          `json:"ExternalMeetingId,omitempty"`
	MediaRegion       string          `json:"MediaRegion,omitempty"`
	MediaPlacement    *MediaPlacement `json:"MediaPlacement,omitempty"`
}

type Attendee struct {
	AttendeeID     string `json:"AttendeeId"`
	ExternalUserID string `json:"ExternalUserId,omitempty"`
	JoinToken      string `json:"JoinToken,omitempty"`
}

// JoinResponse is returned by a successful join.
type JoinResponse struct {
	Meeting  Meeting  `json:"meeting"`
	Attendee Attendee `json:"attendee"`
	Role     string   `json:"role" example:"host"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks is only present on /readyz.
	Checks *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Store string `json:"store"`
}
