package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
)

type invitesRepo struct {
	db *sql.DB
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	var usedAt sql.NullInt64
	if inv.UsedAt != nil {
		usedAt = sql.NullInt64{Int64: toUnix(*inv.UsedAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, room_id, role, expires_at, used, used_at, created_at, purge_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.RoomID, string(inv.Role), toUnix(inv.ExpiresAt), inv.Used, usedAt,
		toUnix(inv.CreatedAt), toUnix(inv.PurgeAt),
	)
	return mapConstraint(err)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, id string) (domain.Invite, error) {
	var (
		inv       domain.Invite
		role      string
		expiresAt int64
		usedAt    sql.NullInt64
		createdAt int64
		purgeAt   int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, room_id, role, expires_at, used, used_at, created_at, purge_at
		 FROM invites WHERE id = ?`,
		id,
	).Scan(&inv.ID, &inv.RoomID, &role, &expiresAt, &inv.Used, &usedAt, &createdAt, &purgeAt)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}

	inv.Role = domain.Role(role)
	inv.ExpiresAt = fromUnix(expiresAt)
	inv.UsedAt = mapNullUnixPtr(usedAt)
	inv.CreatedAt = fromUnix(createdAt)
	inv.PurgeAt = fromUnix(purgeAt)
	return inv, nil
}

func (r *invitesRepo) ConsumeInvite(ctx context.Context, id string, now time.Time) error {
	sec := toUnix(now)

	res, err := r.db.ExecContext(ctx,
		`UPDATE invites SET used = 1, used_at = ? WHERE id = ? AND used = 0 AND expires_at > ?`,
		sec, id, sec,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// The write did not happen. Work out why for the caller; the state can
	// only move towards used, so this read cannot misreport a lost race.
	var used bool
	err = r.db.QueryRowContext(ctx, `SELECT used FROM invites WHERE id = ?`, id).Scan(&used)
	if err != nil {
		return mapNotFound(err)
	}
	if used {
		return store.ErrAlreadyUsed
	}
	return store.ErrExpired
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE purge_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
