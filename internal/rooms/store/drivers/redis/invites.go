package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
)

type invitesRepo struct {
	s *Store
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	used := "0"
	if inv.Used {
		used = "1"
	}

	fields := []any{
		"id", inv.ID,
		"room_id", inv.RoomID,
		"role", string(inv.Role),
		"expires_at", formatUnix(inv.ExpiresAt),
		"used", used,
		"created_at", formatUnix(inv.CreatedAt),
		"purge_at", formatUnix(inv.PurgeAt),
	}
	if inv.UsedAt != nil {
		fields = append(fields, "used_at", formatUnix(*inv.UsedAt))
	}
	return r.s.create(ctx, inviteKey(inv.ID), inv.PurgeAt, fields)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	fields, err := r.s.client.HGetAll(ctx, inviteKey(id)).Result()
	if err != nil {
		return domain.Invite{}, err
	}
	if len(fields) == 0 {
		return domain.Invite{}, store.ErrNotFound
	}
	return mapInvite(fields)
}

func (r *invitesRepo) ConsumeInvite(ctx context.Context, id string, now time.Time) error {
	res, err := r.s.consumeScript.Run(ctx, r.s.client, []string{inviteKey(id)}, now.Unix()).Int64()
	if err != nil {
		return err
	}

	switch res {
	case 1:
		return nil
	case -1:
		return store.ErrNotFound
	case -2:
		return store.ErrAlreadyUsed
	case -3:
		return store.ErrExpired
	default:
		return fmt.Errorf("redis: unexpected consume result %d", res)
	}
}

// DeleteExpiredInvites is a no-op, keys expire on their own.
func (r *invitesRepo) DeleteExpiredInvites(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func mapInvite(fields map[string]string) (domain.Invite, error) {
	role, err := domain.ParseRole(fields["role"])
	if err != nil {
		return domain.Invite{}, fmt.Errorf("redis: invite %s: %w", fields["id"], err)
	}

	inv := domain.Invite{
		ID:     fields["id"],
		RoomID: fields["room_id"],
		Role:   role,
		Used:   fields["used"] == "1",
	}

	if inv.ExpiresAt, err = parseUnix(fields, "expires_at"); err != nil {
		return domain.Invite{}, err
	}
	if inv.CreatedAt, err = parseUnix(fields, "created_at"); err != nil {
		return domain.Invite{}, err
	}
	if inv.PurgeAt, err = parseUnix(fields, "purge_at"); err != nil {
		return domain.Invite{}, err
	}

	usedAt, err := parseUnix(fields, "used_at")
	if err != nil {
		return domain.Invite{}, err
	}
	if !usedAt.IsZero() {
		inv.UsedAt = &usedAt
	}

	return inv, nil
}
