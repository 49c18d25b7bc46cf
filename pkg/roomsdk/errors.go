package roomsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/roomkey/pkg/httpx"
)

// Error codes returned in the "error" member of error responses.
const (
	ErrorCodeInvalidRequest    = httpx.ErrorCodeInvalidRequest
	ErrorCodeUnauthorized      = httpx.ErrorCodeUnauthorized
	ErrorCodeRateLimitExceeded = httpx.ErrorCodeRateLimitExceeded
	ErrorCodeServerError       = httpx.ErrorCodeServerError

	ErrorCodeMalformedToken    = "malformed_token"
	ErrorCodeBadSignature      = "bad_signature"
	ErrorCodeTokenNotYetValid  = "token_not_yet_valid"
	ErrorCodeTokenExpired      = "token_expired"
	ErrorCodeRoomMismatch      = "room_mismatch"
	ErrorCodeInvalidInvite     = "invalid_invite"
	ErrorCodeInviteAlreadyUsed = "invite_already_used"
	ErrorCodeInviteExpired     = "invite_expired"
	ErrorCodeRoomNotActive     = "room_not_active"
	ErrorCodeProviderError     = "provider_error"
)

// APIError is an error response from the service. The server writes these
// and the client parses them back.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the stable error code, e.g. "invite_already_used"
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code, so a parsed response compares equal to the predefined
// value regardless of description.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Code, e.Description)
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "missing or invalid admin key",
	}

	ErrMalformedToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeMalformedToken,
		Description: "invite token is malformed",
	}

	ErrBadSignature = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeBadSignature,
		Description: "invite token signature is invalid",
	}

	ErrTokenNotYetValid = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTokenNotYetValid,
		Description: "invite token is not valid yet",
	}

	ErrTokenExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeTokenExpired,
		Description: "invite token has expired",
	}

	ErrRoomMismatch = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeRoomMismatch,
		Description: "invite token was issued for a different room",
	}

	ErrInvalidInvite = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInvalidInvite,
		Description: "invite is invalid",
	}

	ErrInviteAlreadyUsed = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeInviteAlreadyUsed,
		Description: "invite has already been used",
	}

	ErrInviteExpired = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeInviteExpired,
		Description: "invite has expired",
	}

	ErrRoomNotActive = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeRoomNotActive,
		Description: "room not found or not active",
	}

	ErrProviderError = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeProviderError,
		Description: "conferencing provider request failed",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimitExceeded,
		Description: "too many requests",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-200 body into an *APIError, falling back to
// a server_error code when the body is not the service's error shape.
func parseErrorResponse(status int, body []byte) error {
	var errResp httpx.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  status,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  status,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}

// NewAPIError creates an APIError with a custom description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}
