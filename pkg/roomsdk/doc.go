/*
Package roomsdk is a Go client for the roomkey HTTP API.

# Overview

roomkey issues single-use, time-bounded invites to meeting rooms. An operator
holding the admin key creates a room and receives one host and one guest
invite token. Each token can be redeemed exactly once to join the room's
conferencing meeting.

	client := roomsdk.NewSDKClient("https://rooms.example.com")
	client.AdminKey = os.Getenv("ROOMKEY_ADMIN_KEY")

	room, err := client.CreateRoom(ctx, roomsdk.CreateRoomRequest{InviteMinutes: 30})
	if err != nil {
		return err
	}

	// Hand room.Invites.Host.Token to the host and room.Invites.Guest.Token to
	// the guest. Either party then joins with:
	joined, err := client.Join(ctx, room.RoomID, room.Invites.Host.Token)

joined.Meeting and joined.Attendee use the Chime SDK member names and can be
passed to the Chime client libraries unchanged.

# Error Handling

Non-2xx responses are returned as *APIError. Predefined values compare with
errors.Is on the error code:

	_, err := client.Join(ctx, roomID, token)
	switch {
	case errors.Is(err, roomsdk.ErrInviteAlreadyUsed):
		// 409: the invite was redeemed before
	case errors.Is(err, roomsdk.ErrInviteExpired):
		// 410: the redemption window closed
	}

Retrying a failed Join with the same token is safe: the invite is only
consumed by a successful join.

# Health

GetLiveness and GetReadiness query /livez and /readyz.
*/
package roomsdk
