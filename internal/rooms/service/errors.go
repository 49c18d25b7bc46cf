package service

import "errors"

// Redemption and issuance errors. Handlers map each one to a stable HTTP
// status and error code with errors.Is.
var (
	ErrMalformedToken   = errors.New("malformed invite token")
	ErrBadSignature     = errors.New("invite token signature mismatch")
	ErrTokenNotYetValid = errors.New("invite token not yet valid")
	ErrTokenExpired     = errors.New("invite token expired")

	ErrRoomMismatch      = errors.New("invite token was issued for a different room")
	ErrInvalidInvite     = errors.New("invalid invite")
	ErrInviteAlreadyUsed = errors.New("invite has already been used")
	ErrInviteExpired     = errors.New("invite has expired")
	ErrRoomNotActive     = errors.New("room not found or not active")

	ErrProvider           = errors.New("conferencing provider error")
	ErrInvalidRoomRequest = errors.New("invalid room request")
)
