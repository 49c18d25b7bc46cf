package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/redis/go-redis/v9"
)

type roomsRepo struct {
	s *Store
}

func (r *roomsRepo) CreateRoom(ctx context.Context, room domain.Room) error {
	fields := []any{
		"id", room.ID,
		"status", room.Status,
		"created_at", formatUnix(room.CreatedAt),
		"purge_at", formatUnix(room.PurgeAt),
	}
	if room.MeetingID != "" {
		fields = append(fields, "meeting_id", room.MeetingID)
	}
	return r.s.create(ctx, roomKey(room.ID), room.PurgeAt, fields)
}

func (r *roomsRepo) GetRoomByID(ctx context.Context, id string) (domain.Room, error) {
	fields, err := r.s.client.HGetAll(ctx, roomKey(id)).Result()
	if err != nil {
		return domain.Room{}, err
	}
	if len(fields) == 0 {
		return domain.Room{}, store.ErrNotFound
	}
	return mapRoom(fields)
}

func (r *roomsRepo) SetMeetingIfAbsent(ctx context.Context, roomID, meetingID string) (string, error) {
	stored, err := r.s.meetingScript.Run(ctx, r.s.client, []string{roomKey(roomID)}, meetingID).Text()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return stored, nil
}

// DeleteExpiredRooms is a no-op, keys expire on their own.
func (r *roomsRepo) DeleteExpiredRooms(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func mapRoom(fields map[string]string) (domain.Room, error) {
	createdAt, err := parseUnix(fields, "created_at")
	if err != nil {
		return domain.Room{}, err
	}
	purgeAt, err := parseUnix(fields, "purge_at")
	if err != nil {
		return domain.Room{}, err
	}

	return domain.Room{
		ID:        fields["id"],
		Status:    fields["status"],
		MeetingID: fields["meeting_id"],
		CreatedAt: createdAt,
		PurgeAt:   purgeAt,
	}, nil
}
