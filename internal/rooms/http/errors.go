package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/pkg/roomsdk"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
)

// serviceErrors maps service sentinels to their response. Anything not
// listed is an internal error.
var serviceErrors = []struct {
	err  error
	resp *roomsdk.APIError
}{
	{service.ErrMalformedToken, roomsdk.ErrMalformedToken},
	{service.ErrBadSignature, roomsdk.ErrBadSignature},
	{service.ErrTokenNotYetValid, roomsdk.ErrTokenNotYetValid},
	{service.ErrTokenExpired, roomsdk.ErrTokenExpired},
	{service.ErrRoomMismatch, roomsdk.ErrRoomMismatch},
	{service.ErrInvalidInvite, roomsdk.ErrInvalidInvite},
	{service.ErrInviteAlreadyUsed, roomsdk.ErrInviteAlreadyUsed},
	{service.ErrInviteExpired, roomsdk.ErrInviteExpired},
	{service.ErrRoomNotActive, roomsdk.ErrRoomNotActive},
	{service.ErrProvider, roomsdk.ErrProviderError},
	{service.ErrInvalidRoomRequest, roomsdk.ErrInvalidRequest},
}

// writeServiceError writes the response for err. Internal errors are logged
// and never leak their message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.resp.WriteError(w)
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		slogx.FromContext(ctx).Info("request cancelled by client")
	} else {
		slogx.FromContext(ctx).Error("request failed", slog.Any("error", err))
	}
	roomsdk.ErrServerError.WriteError(w)
}

// writeBadRequest writes a 400 invalid_request with a specific description.
func writeBadRequest(w http.ResponseWriter, description string) {
	roomsdk.NewAPIError(http.StatusBadRequest, roomsdk.ErrorCodeInvalidRequest, description).WriteError(w)
}
