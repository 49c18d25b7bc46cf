package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/metrics"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/aussiebroadwan/roomkey/pkg/jwtx"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMediaRegion is used when JoinService.MediaRegion is empty.
const DefaultMediaRegion = "eu-central-1"

// JoinResult is what a successful redemption hands back to the client.
type JoinResult struct {
	Meeting  conferencing.Meeting
	Attendee conferencing.Attendee
	Role     domain.Role
}

type JoinService struct {
	Store    store.Store
	Verifier jwtx.Verifier
	Provider conferencing.Provider

	MediaRegion string

	// Now defaults to time.Now. It must agree with the verifier's clock.
	Now func() time.Time
}

func (s *JoinService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *JoinService) mediaRegion() string {
	if s.MediaRegion != "" {
		return s.MediaRegion
	}
	return DefaultMediaRegion
}

// Join redeems an invite token for roomID:
//  1. Verifies the token and that it was issued for roomID
//  2. Checks the invite record matches the token and is still redeemable
//  3. Checks the room is active
//  4. Provisions the room's meeting on first use, otherwise loads it
//  5. Registers an attendee for the invite
//  6. Consumes the invite atomically; only one concurrent caller wins
//
// Every step before 6 is a read, so a failed Join can be retried safely.
func (s *JoinService) Join(ctx context.Context, roomID, token string) (_ JoinResult, err error) {
	ctx, span := tracer.Start(ctx, "JoinService.Join")
	defer func() {
		metrics.JoinsTotal.WithLabelValues(joinResult(err)).Inc()
		endSpan(span, err)
	}()

	span.SetAttributes(attribute.String("room.id", roomID))
	ctx = slogx.With(ctx, slog.String("room_id", roomID))
	log := slogx.FromContext(ctx)

	// 1. Token
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		log.Warn("invite token rejected", slog.Any("error", err))
		return JoinResult{}, mapTokenError(err)
	}

	if claims.RoomID != roomID {
		log.Warn("invite token presented for a different room",
			slog.String("token_room_id", claims.RoomID),
		)
		return JoinResult{}, ErrRoomMismatch
	}

	ctx = slogx.With(ctx, slog.String("invite_id", claims.InviteID))
	log = slogx.FromContext(ctx)
	span.SetAttributes(attribute.String("invite.id", claims.InviteID))

	// 2. Invite
	invite, err := s.Store.Invites().GetInviteByID(ctx, claims.InviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invite redemption for unknown invite")
			return JoinResult{}, ErrInvalidInvite
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return JoinResult{}, fmt.Errorf("get invite: %w", err)
	}

	if invite.RoomID != roomID || invite.Role.String() != claims.Role {
		log.Warn("invite record does not match token",
			slog.String("invite_room_id", invite.RoomID),
			slog.String("invite_role", invite.Role.String()),
			slog.String("token_role", claims.Role),
		)
		return JoinResult{}, ErrInvalidInvite
	}

	if !invite.Redeemable(s.now()) {
		if invite.Used {
			log.Warn("invite redemption replayed")
			return JoinResult{}, ErrInviteAlreadyUsed
		}
		log.Warn("invite redemption after deadline", slog.Time("expires_at", invite.ExpiresAt))
		return JoinResult{}, ErrInviteExpired
	}

	// 3. Room
	room, err := s.Store.Rooms().GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invite redemption for missing room")
			return JoinResult{}, ErrRoomNotActive
		}
		log.Error("failed to fetch room", slog.Any("error", err))
		return JoinResult{}, fmt.Errorf("get room: %w", err)
	}
	if !room.Active() {
		log.Warn("invite redemption for inactive room", slog.String("status", room.Status))
		return JoinResult{}, ErrRoomNotActive
	}

	// 4. Meeting
	meeting, err := s.ensureMeeting(ctx, room)
	if err != nil {
		return JoinResult{}, err
	}

	// 5. Attendee
	stop := observeProvider("create_attendee")
	attendee, err := s.Provider.CreateAttendee(ctx, meeting.MeetingID, conferencing.TruncateExternalID(invite.ID))
	stop()
	if err != nil {
		log.Error("failed to create attendee",
			slog.String("meeting_id", meeting.MeetingID),
			slog.Any("error", err),
		)
		return JoinResult{}, fmt.Errorf("%w: create attendee: %w", ErrProvider, err)
	}

	// 6. Consume
	if err := s.Store.Invites().ConsumeInvite(ctx, invite.ID, s.now()); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyUsed):
			log.Warn("lost invite redemption race, discarding attendee",
				slog.String("attendee_id", attendee.AttendeeID),
			)
			return JoinResult{}, ErrInviteAlreadyUsed
		case errors.Is(err, store.ErrExpired):
			log.Warn("invite expired during redemption",
				slog.String("attendee_id", attendee.AttendeeID),
			)
			return JoinResult{}, ErrInviteExpired
		case errors.Is(err, store.ErrNotFound):
			log.Warn("invite vanished during redemption")
			return JoinResult{}, ErrInvalidInvite
		default:
			log.Error("failed to consume invite", slog.Any("error", err))
			return JoinResult{}, fmt.Errorf("consume invite: %w", err)
		}
	}

	log.Info("invite redeemed",
		slog.String("role", invite.Role.String()),
		slog.String("meeting_id", meeting.MeetingID),
		slog.String("attendee_id", attendee.AttendeeID),
	)

	return JoinResult{
		Meeting:  meeting,
		Attendee: attendee,
		Role:     invite.Role,
	}, nil
}

// ensureMeeting returns the room's meeting, creating it if the room has none.
// Creation is idempotent at the provider (ClientRequestToken is the room id)
// and first-writer-wins in the store, so concurrent first joins converge on
// a single meeting id.
func (s *JoinService) ensureMeeting(ctx context.Context, room domain.Room) (conferencing.Meeting, error) {
	log := slogx.FromContext(ctx)

	if room.HasMeeting() {
		m, err := s.getMeeting(ctx, room.MeetingID)
		if err != nil {
			return conferencing.Meeting{}, err
		}
		metrics.MeetingsProvisioned.WithLabelValues(metrics.ProvisionReused).Inc()
		return m, nil
	}

	stop := observeProvider("create_meeting")
	created, err := s.Provider.CreateMeeting(ctx, conferencing.CreateMeetingInput{
		ClientRequestToken: room.ID,
		MediaRegion:        s.mediaRegion(),
		ExternalMeetingID:  conferencing.TruncateExternalID(room.ID),
	})
	stop()
	if err != nil {
		log.Error("failed to create meeting", slog.Any("error", err))
		return conferencing.Meeting{}, fmt.Errorf("%w: create meeting: %w", ErrProvider, err)
	}

	stored, err := s.Store.Rooms().SetMeetingIfAbsent(ctx, room.ID, created.MeetingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("room vanished while provisioning meeting")
			return conferencing.Meeting{}, ErrRoomNotActive
		}
		log.Error("failed to store meeting id",
			slog.String("meeting_id", created.MeetingID),
			slog.Any("error", err),
		)
		return conferencing.Meeting{}, fmt.Errorf("set meeting: %w", err)
	}

	if stored == created.MeetingID {
		metrics.MeetingsProvisioned.WithLabelValues(metrics.ProvisionCreated).Inc()
		log.Info("meeting provisioned", slog.String("meeting_id", stored))
		return created, nil
	}

	// Another join stored its meeting first. Adopt it so every attendee of the
	// room lands in the same session.
	log.Info("adopting concurrently provisioned meeting",
		slog.String("meeting_id", stored),
		slog.String("discarded_meeting_id", created.MeetingID),
	)
	m, err := s.getMeeting(ctx, stored)
	if err != nil {
		return conferencing.Meeting{}, err
	}
	metrics.MeetingsProvisioned.WithLabelValues(metrics.ProvisionAdopted).Inc()
	return m, nil
}

func (s *JoinService) getMeeting(ctx context.Context, meetingID string) (conferencing.Meeting, error) {
	stop := observeProvider("get_meeting")
	m, err := s.Provider.GetMeeting(ctx, meetingID)
	stop()
	if err != nil {
		slogx.FromContext(ctx).Error("failed to get meeting",
			slog.String("meeting_id", meetingID),
			slog.Any("error", err),
		)
		return conferencing.Meeting{}, fmt.Errorf("%w: get meeting: %w", ErrProvider, err)
	}
	return m, nil
}

func observeProvider(op string) func() {
	start := time.Now()
	return func() {
		metrics.ProviderLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrInvalidSig):
		return ErrBadSignature
	case errors.Is(err, jwtx.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtx.ErrNotYetValid):
		return ErrTokenNotYetValid
	default:
		return ErrMalformedToken
	}
}

// joinResult is the metrics label for a Join outcome.
func joinResult(err error) string {
	switch {
	case err == nil:
		return metrics.JoinResultOK
	case errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrBadSignature),
		errors.Is(err, ErrTokenNotYetValid),
		errors.Is(err, ErrTokenExpired):
		return metrics.JoinResultBadToken
	case errors.Is(err, ErrRoomMismatch), errors.Is(err, ErrInvalidInvite):
		return metrics.JoinResultForbidden
	case errors.Is(err, ErrInviteAlreadyUsed):
		return metrics.JoinResultUsed
	case errors.Is(err, ErrInviteExpired):
		return metrics.JoinResultExpired
	case errors.Is(err, ErrRoomNotActive):
		return metrics.JoinResultRoomInactive
	case errors.Is(err, ErrProvider):
		return metrics.JoinResultProviderErr
	default:
		return metrics.JoinResultInternal
	}
}
