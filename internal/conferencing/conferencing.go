// Package conferencing abstracts the meetings backend rooms are bound to.
// Types marshal with the Chime SDK member names so join responses can be
// handed to the Chime client libraries unchanged.
package conferencing

import (
	"context"
	"errors"
	"unicode/utf8"
)

// MaxExternalIDLength is the provider limit for ExternalMeetingId and
// ExternalUserId.
const MaxExternalIDLength = 64

var (
	ErrMeetingNotFound = errors.New("conferencing: meeting not found")
	ErrInvalidInput    = errors.New("conferencing: invalid input")
)

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

type CreateMeetingInput struct {
	// ClientRequestToken makes creation idempotent: repeating a request with
	// the same token returns the meeting created the first time.
	ClientRequestToken string `json:"ClientRequestToken"`
	MediaRegion        string `json:"MediaRegion"`
	ExternalMeetingID  string `json:"ExternalMeetingId,omitempty"`
}

// Provider is the meetings backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	CreateMeeting(ctx context.Context, in CreateMeetingInput) (Meeting, error)
	GetMeeting(ctx context.Context, meetingID string) (Meeting, error)
	CreateAttendee(ctx context.Context, meetingID, externalUserID string) (Attendee, error)
}

// TruncateExternalID cuts s to MaxExternalIDLength bytes without splitting a
// UTF-8 sequence.
func TruncateExternalID(s string) string {
	if len(s) <= MaxExternalIDLength {
		return s
	}
	cut := MaxExternalIDLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
