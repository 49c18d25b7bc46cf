package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
)

type roomsRepo struct {
	db *sql.DB
}

func (r *roomsRepo) CreateRoom(ctx context.Context, room domain.Room) error {
	var meetingID sql.NullString
	if room.MeetingID != "" {
		meetingID = sql.NullString{String: room.MeetingID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, status, meeting_id, created_at, purge_at) VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Status, meetingID, toUnix(room.CreatedAt), toUnix(room.PurgeAt),
	)
	return mapConstraint(err)
}

func (r *roomsRepo) GetRoomByID(ctx context.Context, id string) (domain.Room, error) {
	var (
		room      domain.Room
		meetingID sql.NullString
		createdAt int64
		purgeAt   int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, status, meeting_id, created_at, purge_at FROM rooms WHERE id = ?`,
		id,
	).Scan(&room.ID, &room.Status, &meetingID, &createdAt, &purgeAt)
	if err != nil {
		return domain.Room{}, mapNotFound(err)
	}

	room.MeetingID = mapNullString(meetingID)
	room.CreatedAt = fromUnix(createdAt)
	room.PurgeAt = fromUnix(purgeAt)
	return room, nil
}

func (r *roomsRepo) SetMeetingIfAbsent(ctx context.Context, roomID, meetingID string) (string, error) {
	// The conditional update is the only write. The read afterwards tells
	// every caller which id won, whether or not this call was the winner.
	if _, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET meeting_id = ? WHERE id = ? AND meeting_id IS NULL`,
		meetingID, roomID,
	); err != nil {
		return "", err
	}

	var stored sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT meeting_id FROM rooms WHERE id = ?`,
		roomID,
	).Scan(&stored)
	if err != nil {
		return "", mapNotFound(err)
	}
	if !stored.Valid {
		// Only possible if the row was replaced between the two statements.
		return "", store.ErrNotFound
	}
	return stored.String, nil
}

func (r *roomsRepo) DeleteExpiredRooms(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE purge_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
