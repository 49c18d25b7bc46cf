package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/pkg/httpx"
	"github.com/aussiebroadwan/roomkey/pkg/roomsdk"
)

// maxInviteMinutes and maxRoomTTLDays bound caller overrides.
const (
	maxInviteMinutes = 7 * 24 * 60
	maxRoomTTLDays   = 365
)

type CreateRoomHandler struct {
	RoomService *service.RoomService
	Defaults    RoomDefaults
}

// ServeHTTP godoc
//
//	@Summary		Create Room
//	@Description	Create a room with one host and one guest invite. Each invite token can be redeemed exactly once.
//	@Description	The body is optional; omitted fields use the server defaults.
//	@Tags			Rooms
//	@Accept			json
//	@Produce		json
//	@Param			request	body		roomsdk.CreateRoomRequest	false	"TTL overrides"
//	@Success		200		{object}	roomsdk.CreateRoomResponse	"roomId, invites"
//	@Failure		400		{object}	roomsdk.APIError			"error, error_description"
//	@Failure		401		{object}	roomsdk.APIError			"error, error_description"
//	@Failure		429		{object}	roomsdk.APIError			"error, error_description"
//	@Failure		500		{object}	roomsdk.APIError			"error, error_description"
//	@Security		AdminKey
//	@Router			/v1/rooms [post].
func (h *CreateRoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req roomsdk.CreateRoomRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	inviteTTL := h.Defaults.InviteTTL
	if req.InviteMinutes != 0 {
		if req.InviteMinutes < 0 || req.InviteMinutes > maxInviteMinutes {
			writeBadRequest(w, "inviteMinutes must be between 1 and 10080")
			return
		}
		inviteTTL = time.Duration(req.InviteMinutes) * time.Minute
	}

	roomTTL := h.Defaults.RoomTTL
	if req.RoomTTLDays != 0 {
		if req.RoomTTLDays < 0 || req.RoomTTLDays > maxRoomTTLDays {
			writeBadRequest(w, "roomTtlDays must be between 1 and 365")
			return
		}
		roomTTL = time.Duration(req.RoomTTLDays) * 24 * time.Hour
	}

	created, err := h.RoomService.CreateRoom(ctx, inviteTTL, roomTTL)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, roomsdk.CreateRoomResponse{
		RoomID: created.RoomID,
		Invites: roomsdk.RoomInvites{
			Host:  toInvite(created.Invites[domain.RoleHost]),
			Guest: toInvite(created.Invites[domain.RoleGuest]),
		},
	})
}

func toInvite(i service.IssuedInvite) roomsdk.Invite {
	return roomsdk.Invite{
		InviteID: i.InviteID,
		Token:    i.Token,
		Exp:      i.ExpiresAt.Unix(),
	}
}
