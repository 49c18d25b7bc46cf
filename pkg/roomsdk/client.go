package roomsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/roomkey/pkg/httpx"
)

// ErrMissingAdminKey is returned by CreateRoom when AdminKey is empty.
var ErrMissingAdminKey = errors.New("roomsdk: admin key not set")

// SDKClient is a client for the roomkey service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// AdminKey is sent as X-Admin-Key on room creation.
	AdminKey string
}

// NewSDKClient creates a new roomkey client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CreateRoom creates a room with a host and a guest invite. Requires AdminKey.
func (c *SDKClient) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	if c.AdminKey == "" {
		return nil, ErrMissingAdminKey
	}

	header := http.Header{}
	header.Set(httpx.AdminKeyHeader, c.AdminKey)

	var out CreateRoomResponse
	if err := c.call(ctx, http.MethodPost, "/v1/rooms", header, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Join redeems an invite token for roomID. This is a public endpoint.
func (c *SDKClient) Join(ctx context.Context, roomID, token string) (*JoinResponse, error) {
	if roomID == "" || token == "" {
		return nil, ErrInvalidRequest
	}

	var out JoinResponse
	path := "/v1/rooms/" + url.PathEscape(roomID) + "/join"
	if err := c.call(ctx, http.MethodPost, path, nil, JoinRequest{T: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready. A degraded service returns
// an *APIError with status 503; the decoded body is not returned.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
