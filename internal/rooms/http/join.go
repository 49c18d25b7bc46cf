package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/pkg/httpx"
	"github.com/aussiebroadwan/roomkey/pkg/roomsdk"
)

type JoinHandler struct {
	JoinService *service.JoinService
}

// ServeHTTP godoc
//
//	@Summary		Join Room
//	@Description	Redeem an invite token and receive meeting and attendee credentials.
//	@Description	A token can be redeemed once; failed attempts do not consume it.
//	@Tags			Rooms
//	@Accept			json
//	@Produce		json
//	@Param			roomId	path		string					true	"Room ID"
//	@Param			request	body		roomsdk.JoinRequest		true	"Invite token"
//	@Success		200		{object}	roomsdk.JoinResponse	"meeting, attendee, role"
//	@Failure		400		{object}	roomsdk.APIError		"error, error_description"
//	@Failure		401		{object}	roomsdk.APIError		"malformed_token, bad_signature, token_not_yet_valid, token_expired"
//	@Failure		403		{object}	roomsdk.APIError		"room_mismatch, invalid_invite"
//	@Failure		404		{object}	roomsdk.APIError		"room_not_active"
//	@Failure		409		{object}	roomsdk.APIError		"invite_already_used"
//	@Failure		410		{object}	roomsdk.APIError		"invite_expired"
//	@Failure		429		{object}	roomsdk.APIError		"rate_limit_exceeded"
//	@Failure		500		{object}	roomsdk.APIError		"server_error"
//	@Failure		502		{object}	roomsdk.APIError		"provider_error"
//	@Router			/v1/rooms/{roomId}/join [post].
func (h *JoinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roomID := strings.TrimSpace(r.PathValue("roomId"))

	var req roomsdk.JoinRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "roomId and token required")
		return
	}

	if roomID == "" || req.T == "" {
		writeBadRequest(w, "roomId and token required")
		return
	}

	res, err := h.JoinService.Join(ctx, roomID, req.T)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, roomsdk.JoinResponse{
		Meeting:  toMeeting(res.Meeting),
		Attendee: toAttendee(res.Attendee),
		Role:     res.Role.String(),
	})
}

func toMeeting(m conferencing.Meeting) roomsdk.Meeting {
	out := roomsdk.Meeting{
		MeetingID:         m.MeetingID,
		ExternalMeetingID: m.ExternalMeetingID,
		MediaRegion:       m.MediaRegion,
	}
	if p := m.MediaPlacement; p != nil {
		out.MediaPlacement = &roomsdk.MediaPlacement{
			AudioHostURL:      p.AudioHostURL,
			AudioFallbackURL:  p.AudioFallbackURL,
			SignalingURL:      p.SignalingURL,
			TurnControlURL:    p.TurnControlURL,
			ScreenDataURL:     p.ScreenDataURL,
			ScreenViewingURL:  p.ScreenViewingURL,
			ScreenSharingURL:  p.ScreenSharingURL,
			EventIngestionURL: p.EventIngestionURL,
		}
	}
	return out
}

func toAttendee(a conferencing.Attendee) roomsdk.Attendee {
	return roomsdk.Attendee{
		AttendeeID:     a.AttendeeID,
		ExternalUserID: a.ExternalUserID,
		JoinToken:      a.JoinToken,
	}
}
