package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/conferencing/httpapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, handler http.HandlerFunc) *httpapi.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := httpapi.New(srv.URL+"/", "secret-token", time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := httpapi.New("not a url", "", 0)
	require.Error(t, err)

	_, err = httpapi.New("/relative", "", 0)
	require.Error(t, err)
}

func TestCreateMeeting(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/meetings", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in conferencing.CreateMeetingInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "room-1", in.ClientRequestToken)
		assert.Equal(t, "eu-central-1", in.MediaRegion)
		assert.Equal(t, "room-1", in.ExternalMeetingID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Meeting":{"MeetingId":"m-1","ExternalMeetingId":"room-1","MediaRegion":"eu-central-1","MediaPlacement":{"AudioHostUrl":"a"}}}`))
	})

	m, err := c.CreateMeeting(context.Background(), conferencing.CreateMeetingInput{
		ClientRequestToken: "room-1",
		MediaRegion:        "eu-central-1",
		ExternalMeetingID:  "room-1",
	})
	require.NoError(t, err)
	require.Equal(t, "m-1", m.MeetingID)
	require.NotNil(t, m.MediaPlacement)
	require.Equal(t, "a", m.MediaPlacement.AudioHostURL)
}

func TestGetMeeting_NotFound(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/meetings/m-404", r.URL.Path)

		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"Code":"NotFound","Message":"meeting ended"}`))
	})

	_, err := c.GetMeeting(context.Background(), "m-404")
	require.ErrorIs(t, err, conferencing.ErrMeetingNotFound)

	apiErr, ok := httpapi.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, "NotFound", apiErr.Code)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCreateAttendee(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/meetings/m-1/attendees", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "invite-1", body["ExternalUserId"])

		_, _ = w.Write([]byte(`{"Attendee":{"AttendeeId":"a-1","ExternalUserId":"invite-1","JoinToken":"jt"}}`))
	})

	a, err := c.CreateAttendee(context.Background(), "m-1", "invite-1")
	require.NoError(t, err)
	require.Equal(t, conferencing.Attendee{AttendeeID: "a-1", ExternalUserID: "invite-1", JoinToken: "jt"}, a)
}

func TestServerError(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetMeeting(context.Background(), "m-1")
	require.Error(t, err)
	require.NotErrorIs(t, err, conferencing.ErrMeetingNotFound)

	apiErr, ok := httpapi.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestBadRequest(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"Code":"BadRequest","Message":"MediaRegion required"}`))
	})

	_, err := c.CreateMeeting(context.Background(), conferencing.CreateMeetingInput{ClientRequestToken: "r"})
	require.ErrorIs(t, err, conferencing.ErrInvalidInput)
}

func TestMalformedResponse(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.GetMeeting(context.Background(), "m-1")
	require.Error(t, err)
}

func TestIncompleteResponse(t *testing.T) {
	c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/meetings/m-1/attendees" {
			_, _ = w.Write([]byte(`{"Attendee":{"ExternalUserId":"inv-1"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"Meeting":{"MediaRegion":"eu-central-1"}}`))
	})
	ctx := context.Background()

	_, err := c.CreateMeeting(ctx, conferencing.CreateMeetingInput{ClientRequestToken: "room-1"})
	require.ErrorIs(t, err, httpapi.ErrIncompleteResponse)

	_, err = c.GetMeeting(ctx, "m-1")
	require.ErrorIs(t, err, httpapi.ErrIncompleteResponse)

	_, err = c.CreateAttendee(ctx, "m-1", "inv-1")
	require.ErrorIs(t, err, httpapi.ErrIncompleteResponse)
}
