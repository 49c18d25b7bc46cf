package fake_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/conferencing/fake"
	"github.com/stretchr/testify/require"
)

func TestCreateMeeting_IdempotentOnRequestToken(t *testing.T) {
	ctx := context.Background()
	p := fake.New()

	in := conferencing.CreateMeetingInput{
		ClientRequestToken: "room-1",
		MediaRegion:        "eu-central-1",
		ExternalMeetingID:  "room-1",
	}

	first, err := p.CreateMeeting(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, first.MeetingID)
	require.Equal(t, "eu-central-1", first.MediaRegion)
	require.NotNil(t, first.MediaPlacement)

	second, err := p.CreateMeeting(ctx, in)
	require.NoError(t, err)
	require.Equal(t, first.MeetingID, second.MeetingID)
	require.Equal(t, 1, p.MeetingCount())
	require.Equal(t, 2, p.CreateCalls())

	in.ClientRequestToken = "room-2"
	third, err := p.CreateMeeting(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, first.MeetingID, third.MeetingID)
}

func TestCreateMeeting_InvalidInput(t *testing.T) {
	_, err := fake.New().CreateMeeting(context.Background(), conferencing.CreateMeetingInput{})
	require.ErrorIs(t, err, conferencing.ErrInvalidInput)
}

func TestGetMeeting(t *testing.T) {
	ctx := context.Background()
	p := fake.New()

	_, err := p.GetMeeting(ctx, "missing")
	require.ErrorIs(t, err, conferencing.ErrMeetingNotFound)

	m, err := p.CreateMeeting(ctx, conferencing.CreateMeetingInput{ClientRequestToken: "r", MediaRegion: "us-east-1"})
	require.NoError(t, err)

	got, err := p.GetMeeting(ctx, m.MeetingID)
	require.NoError(t, err)
	require.Equal(t, m, got)

	p.End(m.MeetingID)
	_, err = p.GetMeeting(ctx, m.MeetingID)
	require.ErrorIs(t, err, conferencing.ErrMeetingNotFound)
}

func TestCreateAttendee(t *testing.T) {
	ctx := context.Background()
	p := fake.New()

	_, err := p.CreateAttendee(ctx, "missing", "invite-1")
	require.ErrorIs(t, err, conferencing.ErrMeetingNotFound)

	m, err := p.CreateMeeting(ctx, conferencing.CreateMeetingInput{ClientRequestToken: "r", MediaRegion: "us-east-1"})
	require.NoError(t, err)

	a, err := p.CreateAttendee(ctx, m.MeetingID, "invite-1")
	require.NoError(t, err)
	require.NotEmpty(t, a.AttendeeID)
	require.NotEmpty(t, a.JoinToken)
	require.Equal(t, "invite-1", a.ExternalUserID)
	require.Len(t, p.Attendees(m.MeetingID), 1)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fake.New().CreateMeeting(ctx, conferencing.CreateMeetingInput{ClientRequestToken: "r", MediaRegion: "x"})
	require.ErrorIs(t, err, context.Canceled)
}
