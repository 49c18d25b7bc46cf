// Package fake is an in-memory conferencing provider for development and
// tests. Meetings live for the lifetime of the process.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/google/uuid"
)

type Provider struct {
	mu        sync.Mutex
	meetings  map[string]conferencing.Meeting
	byToken   map[string]string
	attendees map[string][]conferencing.Attendee

	createCalls int
}

func New() *Provider {
	return &Provider{
		meetings:  make(map[string]conferencing.Meeting),
		byToken:   make(map[string]string),
		attendees: make(map[string][]conferencing.Attendee),
	}
}

var _ conferencing.Provider = (*Provider)(nil)

func (p *Provider) CreateMeeting(ctx context.Context, in conferencing.CreateMeetingInput) (conferencing.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return conferencing.Meeting{}, err
	}
	if in.ClientRequestToken == "" || in.MediaRegion == "" {
		return conferencing.Meeting{}, conferencing.ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.createCalls++

	if id, ok := p.byToken[in.ClientRequestToken]; ok {
		return p.meetings[id], nil
	}

	id := uuid.NewString()
	m := conferencing.Meeting{
		MeetingID:         id,
		ExternalMeetingID: conferencing.TruncateExternalID(in.ExternalMeetingID),
		MediaRegion:       in.MediaRegion,
		MediaPlacement:    placement(in.MediaRegion, id),
	}
	p.meetings[id] = m
	p.byToken[in.ClientRequestToken] = id
	return m, nil
}

func (p *Provider) GetMeeting(ctx context.Context, meetingID string) (conferencing.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return conferencing.Meeting{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.meetings[meetingID]
	if !ok {
		return conferencing.Meeting{}, conferencing.ErrMeetingNotFound
	}
	return m, nil
}

func (p *Provider) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (conferencing.Attendee, error) {
	if err := ctx.Err(); err != nil {
		return conferencing.Attendee{}, err
	}
	if externalUserID == "" {
		return conferencing.Attendee{}, conferencing.ErrInvalidInput
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.meetings[meetingID]; !ok {
		return conferencing.Attendee{}, conferencing.ErrMeetingNotFound
	}

	a := conferencing.Attendee{
		AttendeeID:     uuid.NewString(),
		ExternalUserID: conferencing.TruncateExternalID(externalUserID),
		JoinToken:      uuid.NewString(),
	}
	p.attendees[meetingID] = append(p.attendees[meetingID], a)
	return a, nil
}

// End removes a meeting, as if it had timed out on the provider side.
func (p *Provider) End(meetingID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.meetings, meetingID)
	for token, id := range p.byToken {
		if id == meetingID {
			delete(p.byToken, token)
		}
	}
	delete(p.attendees, meetingID)
}

// Attendees returns the attendees created for a meeting.
func (p *Provider) Attendees(meetingID string) []conferencing.Attendee {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]conferencing.Attendee(nil), p.attendees[meetingID]...)
}

// MeetingCount is the number of distinct live meetings.
func (p *Provider) MeetingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.meetings)
}

// CreateCalls counts CreateMeeting calls, including idempotent repeats.
func (p *Provider) CreateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls
}

func placement(region, meetingID string) *conferencing.MediaPlacement {
	host := fmt.Sprintf("%s.meetings.invalid", region)
	return &conferencing.MediaPlacement{
		AudioHostURL:      fmt.Sprintf("%s.audio.%s:3478", meetingID, host),
		AudioFallbackURL:  fmt.Sprintf("wss://audio.%s:443/calls/%s", host, meetingID),
		SignalingURL:      fmt.Sprintf("wss://signal.%s/control/%s", host, meetingID),
		TurnControlURL:    fmt.Sprintf("https://turn.%s/v2/turn_sessions", host),
		EventIngestionURL: fmt.Sprintf("https://data.%s/v1/client-events", host),
	}
}
