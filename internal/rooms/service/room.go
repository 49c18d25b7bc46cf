package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/metrics"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/aussiebroadwan/roomkey/pkg/idx"
	"github.com/aussiebroadwan/roomkey/pkg/jwtx"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultInviteGrace is how long an invite record outlives its redemption
// deadline before storage may drop it.
const DefaultInviteGrace = time.Hour

// IssuedInvite is one role's invite as handed to the room creator. Token is
// only ever returned here; it is not stored.
type IssuedInvite struct {
	InviteID  string
	Token     string
	ExpiresAt time.Time
}

// CreatedRoom is the result of RoomService.CreateRoom.
type CreatedRoom struct {
	RoomID  string
	Invites map[domain.Role]IssuedInvite
}

type RoomService struct {
	Store  store.Store
	Signer jwtx.Signer

	// InviteGrace extends invite storage past ExpiresAt. Zero means
	// DefaultInviteGrace.
	InviteGrace time.Duration

	// Now defaults to time.Now. It must agree with the signer's clock.
	Now func() time.Time
}

func (s *RoomService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RoomService) grace() time.Duration {
	if s.InviteGrace > 0 {
		return s.InviteGrace
	}
	return DefaultInviteGrace
}

// CreateRoom creates an active room and one host and one guest invite, each
// with a signed token valid for inviteTTL. The room record is kept for
// roomTTL.
func (s *RoomService) CreateRoom(ctx context.Context, inviteTTL, roomTTL time.Duration) (_ CreatedRoom, err error) {
	ctx, span := tracer.Start(ctx, "RoomService.CreateRoom")
	defer func() { endSpan(span, err) }()

	log := slogx.FromContext(ctx)

	if inviteTTL < jwtx.MinTTL || roomTTL <= 0 {
		log.Warn("room creation rejected",
			slog.Duration("invite_ttl", inviteTTL),
			slog.Duration("room_ttl", roomTTL),
		)
		return CreatedRoom{}, ErrInvalidRoomRequest
	}

	// Tokens carry whole seconds, so the stored deadline is derived the same
	// way the signer derives exp.
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(inviteTTL.Truncate(time.Second))

	room := domain.Room{
		ID:        idx.NewAt(issuedAt).String(),
		Status:    domain.RoomStatusActive,
		CreatedAt: issuedAt,
		PurgeAt:   issuedAt.Add(roomTTL),
	}
	span.SetAttributes(attribute.String("room.id", room.ID))

	// Every token is signed before anything is written, so a signing
	// failure leaves no room behind. A store failure between writes leaves
	// records whose tokens were never returned; housekeeping purges them.
	pending := make([]pendingInvite, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		p, err := s.signInvite(ctx, room.ID, role, issuedAt, expiresAt, inviteTTL)
		if err != nil {
			return CreatedRoom{}, err
		}
		pending = append(pending, p)
	}

	if err := s.Store.Rooms().CreateRoom(ctx, room); err != nil {
		log.Error("failed to create room",
			slog.String("room_id", room.ID),
			slog.Any("error", err),
		)
		return CreatedRoom{}, fmt.Errorf("create room: %w", err)
	}

	out := CreatedRoom{
		RoomID:  room.ID,
		Invites: make(map[domain.Role]IssuedInvite, len(pending)),
	}

	for _, p := range pending {
		if err := s.Store.Invites().CreateInvite(ctx, p.invite); err != nil {
			log.Error("failed to create invite",
				slog.String("room_id", room.ID),
				slog.String("invite_id", p.invite.ID),
				slog.Any("error", err),
			)
			return CreatedRoom{}, fmt.Errorf("create %s invite: %w", p.invite.Role, err)
		}
		out.Invites[p.invite.Role] = IssuedInvite{
			InviteID:  p.invite.ID,
			Token:     p.token,
			ExpiresAt: expiresAt,
		}
	}

	metrics.RoomsCreated.Inc()

	log.Info("room created",
		slog.String("room_id", room.ID),
		slog.Time("invites_expire_at", expiresAt),
		slog.Time("purge_at", room.PurgeAt),
	)

	return out, nil
}

type pendingInvite struct {
	invite domain.Invite
	token  string
}

func (s *RoomService) signInvite(
	ctx context.Context,
	roomID string,
	role domain.Role,
	issuedAt, expiresAt time.Time,
	ttl time.Duration,
) (pendingInvite, error) {
	invite := domain.Invite{
		ID:        idx.NewAt(issuedAt).String(),
		RoomID:    roomID,
		Role:      role,
		ExpiresAt: expiresAt,
		CreatedAt: issuedAt,
		PurgeAt:   expiresAt.Add(s.grace()),
	}

	claims := jwtx.NewInviteClaims(roomID, invite.ID, role.String(), idx.NewNonce(), issuedAt)
	token, err := s.Signer.Sign(claims, ttl)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to sign invite token",
			slog.String("room_id", roomID),
			slog.String("role", role.String()),
			slog.Any("error", err),
		)
		return pendingInvite{}, fmt.Errorf("sign %s invite: %w", role, err)
	}

	return pendingInvite{invite: invite, token: token}, nil
}
