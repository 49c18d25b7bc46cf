package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key the driver writes.
const keyPrefix = "roomkey"

// Store keeps each room and invite in its own hash. Expiry is native: every
// record is created with EXPIREAT at its purge time, so the housekeeping
// deletes are no-ops here.
type Store struct {
	client redis.UniversalClient
	owned  bool

	createScript  *redis.Script
	consumeScript *redis.Script
	meetingScript *redis.Script
}

// NewStore connects to the server described by redisURL
// (redis://[:password@]host:port/db) and checks it is reachable.
func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	s := NewStoreWithClient(client)
	s.owned = true
	return s, nil
}

// NewStoreWithClient wraps an existing client. Close leaves the client open.
func NewStoreWithClient(client redis.UniversalClient) *Store {
	return &Store{
		client:        client,
		createScript:  redis.NewScript(createIfAbsentScript),
		consumeScript: redis.NewScript(consumeInviteScript),
		meetingScript: redis.NewScript(setMeetingIfAbsentScript),
	}
}

func (s *Store) Rooms() store.Rooms     { return &roomsRepo{s: s} }
func (s *Store) Invites() store.Invites { return &invitesRepo{s: s} }

// ApplyMigrations is a no-op, hashes have no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func roomKey(id string) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

func inviteKey(id string) string {
	return fmt.Sprintf("%s:invite:%s", keyPrefix, id)
}

// create writes fields into key unless the key exists. purgeAt becomes the
// key's absolute expiry; the zero time means no expiry.
func (s *Store) create(ctx context.Context, key string, purgeAt time.Time, fields []any) error {
	var expireAt int64
	if !purgeAt.IsZero() {
		expireAt = purgeAt.Unix()
	}

	args := make([]any, 0, len(fields)+1)
	args = append(args, expireAt)
	args = append(args, fields...)

	created, err := s.createScript.Run(ctx, s.client, []string{key}, args...).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func parseUnix(fields map[string]string, name string) (time.Time, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: field %s: %w", name, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}
