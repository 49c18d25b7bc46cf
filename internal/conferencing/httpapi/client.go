// Package httpapi talks to a meetings gateway that exposes the Chime SDK
// meetings operations as JSON over HTTP:
//
//	POST /meetings                      {ClientRequestToken, MediaRegion, ExternalMeetingId} -> {"Meeting": ...}
//	GET  /meetings/{meetingId}                                                             -> {"Meeting": ...}
//	POST /meetings/{meetingId}/attendees {ExternalUserId}                                  -> {"Attendee": ...}
//
// Errors come back as {"Code": ..., "Message": ...} with a matching status.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes caps how much of a gateway response is read.
const maxResponseBytes = 1 << 20

// ErrIncompleteResponse is returned when a 2xx body lacks the id the
// operation promises.
var ErrIncompleteResponse = errors.New("httpapi: response missing id")

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

var _ conferencing.Provider = (*Client)(nil)

// New creates a gateway client. token is sent as a bearer token when set.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpapi: invalid base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type meetingEnvelope struct {
	Meeting conferencing.Meeting `json:"Meeting"`
}

type attendeeEnvelope struct {
	Attendee conferencing.Attendee `json:"Attendee"`
}

type createAttendeeRequest struct {
	ExternalUserID string `json:"ExternalUserId"`
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Code       string `json:"Code"`
	Message    string `json:"Message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("httpapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("httpapi: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) CreateMeeting(ctx context.Context, in conferencing.CreateMeetingInput) (conferencing.Meeting, error) {
	var out meetingEnvelope
	if err := c.do(ctx, http.MethodPost, "/meetings", in, &out); err != nil {
		return conferencing.Meeting{}, err
	}
	return out.meeting()
}

func (c *Client) GetMeeting(ctx context.Context, meetingID string) (conferencing.Meeting, error) {
	var out meetingEnvelope
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(meetingID), nil, &out); err != nil {
		return conferencing.Meeting{}, err
	}
	return out.meeting()
}

// An empty MeetingId would be stored on the room as if provisioned.
func (e meetingEnvelope) meeting() (conferencing.Meeting, error) {
	if e.Meeting.MeetingID == "" {
		return conferencing.Meeting{}, fmt.Errorf("%w: MeetingId", ErrIncompleteResponse)
	}
	return e.Meeting, nil
}

func (c *Client) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (conferencing.Attendee, error) {
	var out attendeeEnvelope
	path := "/meetings/" + url.PathEscape(meetingID) + "/attendees"
	if err := c.do(ctx, http.MethodPost, path, createAttendeeRequest{ExternalUserID: externalUserID}, &out); err != nil {
		return conferencing.Attendee{}, err
	}
	if out.Attendee.AttendeeID == "" {
		return conferencing.Attendee{}, fmt.Errorf("%w: AttendeeId", ErrIncompleteResponse)
	}
	return out.Attendee, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpapi: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpapi: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("httpapi: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpapi: decode response: %w", err)
	}
	return nil
}

func parseError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status}
	_ = json.Unmarshal(raw, apiErr)

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", conferencing.ErrMeetingNotFound, apiErr)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", conferencing.ErrInvalidInput, apiErr)
	}
	return apiErr
}

// AsAPIError unwraps a gateway error.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
