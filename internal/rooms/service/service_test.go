package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/conferencing"
	"github.com/aussiebroadwan/roomkey/internal/conferencing/fake"
	"github.com/aussiebroadwan/roomkey/internal/rooms/domain"
	"github.com/aussiebroadwan/roomkey/internal/rooms/metrics"
	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store/drivers/sqlite"
	"github.com/aussiebroadwan/roomkey/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const testSecret = "room-service-test-secret"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock    *clock
	store    store.Store
	codec    *jwtx.HS256Codec
	provider *fake.Provider
	rooms    *service.RoomService
	joins    *service.JoinService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithProvider(t, nil)
}

func newFixtureWithProvider(t *testing.T, p conferencing.Provider) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	c := &clock{now: time.Unix(1_700_000_000, 0).UTC()}
	codec, err := jwtx.NewHS256Codec([]byte(testSecret), jwtx.WithClock(c.Now))
	require.NoError(t, err)

	fp := fake.New()
	if p == nil {
		p = fp
	}

	return &fixture{
		clock:    c,
		store:    s,
		codec:    codec,
		provider: fp,
		rooms: &service.RoomService{
			Store:  s,
			Signer: codec,
			Now:    c.Now,
		},
		joins: &service.JoinService{
			Store:       s,
			Verifier:    codec,
			Provider:    p,
			MediaRegion: "ap-southeast-2",
			Now:         c.Now,
		},
	}
}

func (f *fixture) createRoom(t *testing.T) service.CreatedRoom {
	t.Helper()
	room, err := f.rooms.CreateRoom(context.Background(), 45*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return room
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.createRoom(t)
	require.NotEmpty(t, created.RoomID)
	require.Len(t, created.Invites, 2)

	room, err := f.store.Rooms().GetRoomByID(ctx, created.RoomID)
	require.NoError(t, err)
	require.True(t, room.Active())
	require.False(t, room.HasMeeting())
	require.Equal(t, f.clock.Now().Add(24*time.Hour), room.PurgeAt)

	for _, role := range domain.Roles {
		issued, ok := created.Invites[role]
		require.True(t, ok, "missing %s invite", role)

		claims, err := f.codec.Verify(issued.Token)
		require.NoError(t, err)
		require.Equal(t, created.RoomID, claims.RoomID)
		require.Equal(t, issued.InviteID, claims.InviteID)
		require.Equal(t, role.String(), claims.Role)
		require.NotEmpty(t, claims.Nonce)

		inv, err := f.store.Invites().GetInviteByID(ctx, issued.InviteID)
		require.NoError(t, err)
		require.Equal(t, created.RoomID, inv.RoomID)
		require.Equal(t, role, inv.Role)
		require.False(t, inv.Used)
		require.Equal(t, claims.ExpiresAtTime().Unix(), inv.ExpiresAt.Unix(), "token exp equals invite exp")
		require.Equal(t, issued.ExpiresAt, inv.ExpiresAt)
		require.Equal(t, inv.ExpiresAt.Add(service.DefaultInviteGrace), inv.PurgeAt)
	}

	host, guest := created.Invites[domain.RoleHost], created.Invites[domain.RoleGuest]
	require.NotEqual(t, host.InviteID, guest.InviteID)
	require.NotEqual(t, host.Token, guest.Token)
}

func TestCreateRoom_InvalidTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name              string
		inviteTTL, roomTTL time.Duration
	}{
		{"zero invite ttl", 0, time.Hour},
		{"negative invite ttl", -time.Minute, time.Hour},
		{"sub-second invite ttl", 100 * time.Millisecond, time.Hour},
		{"zero room ttl", time.Minute, 0},
		{"negative room ttl", time.Minute, -time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rooms.CreateRoom(ctx, tt.inviteTTL, tt.roomTTL)
			require.ErrorIs(t, err, service.ErrInvalidRoomRequest)
		})
	}
}

// guestSignFailure signs host claims and refuses guest claims.
type guestSignFailure struct {
	jwtx.Signer
}

func (s guestSignFailure) Sign(c jwtx.Claims, ttl time.Duration) (string, error) {
	if c.Role == domain.RoleGuest.String() {
		return "", errors.New("signer unavailable")
	}
	return s.Signer.Sign(c, ttl)
}

func TestCreateRoom_SignFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rooms.Signer = guestSignFailure{Signer: f.codec}

	_, err := f.rooms.CreateRoom(ctx, 45*time.Minute, 24*time.Hour)
	require.ErrorContains(t, err, "sign guest invite")

	farFuture := f.clock.Now().Add(10 * 365 * 24 * time.Hour)
	invites, err := f.store.Invites().DeleteExpiredInvites(ctx, farFuture)
	require.NoError(t, err)
	require.Zero(t, invites, "no host invite may be persisted")

	rooms, err := f.store.Rooms().DeleteExpiredRooms(ctx, farFuture)
	require.NoError(t, err)
	require.Zero(t, rooms, "no room may be persisted")
}

func TestJoin_HostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRoom(t)
	host := created.Invites[domain.RoleHost]

	res, err := f.joins.Join(ctx, created.RoomID, host.Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleHost, res.Role)
	require.NotEmpty(t, res.Meeting.MeetingID)
	require.Equal(t, "ap-southeast-2", res.Meeting.MediaRegion)
	require.Equal(t, created.RoomID, res.Meeting.ExternalMeetingID)
	require.Equal(t, host.InviteID, res.Attendee.ExternalUserID)
	require.NotEmpty(t, res.Attendee.JoinToken)

	room, err := f.store.Rooms().GetRoomByID(ctx, created.RoomID)
	require.NoError(t, err)
	require.Equal(t, res.Meeting.MeetingID, room.MeetingID)

	inv, err := f.store.Invites().GetInviteByID(ctx, host.InviteID)
	require.NoError(t, err)
	require.True(t, inv.Used)
	require.NotNil(t, inv.UsedAt)

	// Replay
	_, err = f.joins.Join(ctx, created.RoomID, host.Token)
	require.ErrorIs(t, err, service.ErrInviteAlreadyUsed)
}

func TestJoin_GuestReusesMeeting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRoom(t)

	hostRes, err := f.joins.Join(ctx, created.RoomID, created.Invites[domain.RoleHost].Token)
	require.NoError(t, err)

	guestRes, err := f.joins.Join(ctx, created.RoomID, created.Invites[domain.RoleGuest].Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleGuest, guestRes.Role)

	require.Equal(t, hostRes.Meeting.MeetingID, guestRes.Meeting.MeetingID)
	require.NotEqual(t, hostRes.Attendee.AttendeeID, guestRes.Attendee.AttendeeID)
	require.Equal(t, 1, f.provider.CreateCalls())
	require.Len(t, f.provider.Attendees(hostRes.Meeting.MeetingID), 2)
}

func TestJoin_GuestTokenForHostInvite(t *testing.T) {
	f := newFixture(t)
	created := f.createRoom(t)

	forged, err := f.codec.Sign(jwtx.NewInviteClaims(
		created.RoomID,
		created.Invites[domain.RoleHost].InviteID,
		domain.RoleGuest.String(),
		"nonce",
		time.Time{},
	), time.Hour)
	require.NoError(t, err)

	_, err = f.joins.Join(context.Background(), created.RoomID, forged)
	require.ErrorIs(t, err, service.ErrInvalidInvite)
}

func TestJoin_UnknownInvite(t *testing.T) {
	f := newFixture(t)
	created := f.createRoom(t)

	token, err := f.codec.Sign(jwtx.NewInviteClaims(created.RoomID, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "host", "n", time.Time{}), time.Hour)
	require.NoError(t, err)

	_, err = f.joins.Join(context.Background(), created.RoomID, token)
	require.ErrorIs(t, err, service.ErrInvalidInvite)
}

func TestJoin_RoomMismatch(t *testing.T) {
	f := newFixture(t)
	a := f.createRoom(t)
	b := f.createRoom(t)

	_, err := f.joins.Join(context.Background(), b.RoomID, a.Invites[domain.RoleHost].Token)
	require.ErrorIs(t, err, service.ErrRoomMismatch)
}

func TestJoin_TokenErrors(t *testing.T) {
	f := newFixture(t)
	created := f.createRoom(t)
	ctx := context.Background()

	other, err := jwtx.NewHS256Codec([]byte("another-secret"), jwtx.WithClock(f.clock.Now))
	require.NoError(t, err)
	wrongKey, err := other.Sign(jwtx.NewInviteClaims(created.RoomID, created.Invites[domain.RoleHost].InviteID, "host", "n", time.Time{}), time.Hour)
	require.NoError(t, err)

	future := jwtx.NewInviteClaims(created.RoomID, created.Invites[domain.RoleHost].InviteID, "host", "n", time.Time{})
	future.NotBefore = jwt.NewNumericDate(f.clock.Now().Add(time.Hour))
	notYet, err := f.codec.Sign(future, 2*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", service.ErrMalformedToken},
		{"garbage", "not-a-token", service.ErrMalformedToken},
		{"wrong secret", wrongKey, service.ErrBadSignature},
		{"not yet valid", notYet, service.ErrTokenNotYetValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.joins.Join(ctx, created.RoomID, tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJoin_AfterExpiry(t *testing.T) {
	f := newFixture(t)
	created := f.createRoom(t)

	f.clock.Advance(45 * time.Minute)

	_, err := f.joins.Join(context.Background(), created.RoomID, created.Invites[domain.RoleHost].Token)
	require.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestJoin_InviteRecordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRoom(t)
	now := f.clock.Now()

	// A record whose deadline passed while a longer lived token is still valid.
	inv := domain.Invite{
		ID:        "01HZINVITEEXPIRED000000000",
		RoomID:    created.RoomID,
		Role:      domain.RoleGuest,
		ExpiresAt: now.Add(time.Minute),
		CreatedAt: now,
		PurgeAt:   now.Add(time.Hour),
	}
	require.NoError(t, f.store.Invites().CreateInvite(ctx, inv))

	token, err := f.codec.Sign(jwtx.NewInviteClaims(created.RoomID, inv.ID, "guest", "n", time.Time{}), time.Hour)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)

	_, err = f.joins.Join(ctx, created.RoomID, token)
	require.ErrorIs(t, err, service.ErrInviteExpired)
}

func TestJoin_RoomNotActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()

	room := domain.Room{ID: "01HZROOMCLOSED000000000000", Status: "closed", CreatedAt: now, PurgeAt: now.Add(time.Hour)}
	require.NoError(t, f.store.Rooms().CreateRoom(ctx, room))
	inv := domain.Invite{ID: "01HZINVITECLOSED0000000000", RoomID: room.ID, Role: domain.RoleHost, ExpiresAt: now.Add(time.Hour), CreatedAt: now, PurgeAt: now.Add(2 * time.Hour)}
	require.NoError(t, f.store.Invites().CreateInvite(ctx, inv))

	token, err := f.codec.Sign(jwtx.NewInviteClaims(room.ID, inv.ID, "host", "n", time.Time{}), time.Hour)
	require.NoError(t, err)

	_, err = f.joins.Join(ctx, room.ID, token)
	require.ErrorIs(t, err, service.ErrRoomNotActive)

	got, err := f.store.Invites().GetInviteByID(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, got.Used)
}

func TestJoin_ConcurrentRedemption(t *testing.T) {
	f := newFixture(t)
	created := f.createRoom(t)
	token := created.Invites[domain.RoleHost].Token

	const n = 16
	var (
		wg      sync.WaitGroup
		ok      atomic.Int32
		used    atomic.Int32
		unknown = make(chan error, n)
	)

	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.joins.Join(context.Background(), created.RoomID, token)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, service.ErrInviteAlreadyUsed):
				used.Add(1)
			default:
				unknown <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(unknown)

	for err := range unknown {
		t.Errorf("unexpected join error: %v", err)
	}
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, n-1, used.Load())
}

// mintingProvider ignores ClientRequestToken and mints a new meeting on every
// call, so convergence has to come from the store.
type mintingProvider struct {
	*fake.Provider
	seq atomic.Int64
}

func (p *mintingProvider) CreateMeeting(ctx context.Context, in conferencing.CreateMeetingInput) (conferencing.Meeting, error) {
	in.ClientRequestToken = fmt.Sprintf("%s-%d", in.ClientRequestToken, p.seq.Add(1))
	return p.Provider.CreateMeeting(ctx, in)
}

func TestJoin_ConcurrentProvisioningConverges(t *testing.T) {
	p := &mintingProvider{Provider: fake.New()}
	f := newFixtureWithProvider(t, p)
	ctx := context.Background()
	created := f.createRoom(t)
	now := f.clock.Now()

	const n = 8
	tokens := make([]string, n)
	for i := range n {
		inv := domain.Invite{
			ID:        fmt.Sprintf("01HZGUEST%017d", i),
			RoomID:    created.RoomID,
			Role:      domain.RoleGuest,
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
			PurgeAt:   now.Add(2 * time.Hour),
		}
		require.NoError(t, f.store.Invites().CreateInvite(ctx, inv))

		tok, err := f.codec.Sign(jwtx.NewInviteClaims(created.RoomID, inv.ID, "guest", "n", time.Time{}), time.Hour)
		require.NoError(t, err)
		tokens[i] = tok
	}

	results := make([]service.JoinResult, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = f.joins.Join(ctx, created.RoomID, tokens[i])
		}()
	}
	close(start)
	wg.Wait()

	room, err := f.store.Rooms().GetRoomByID(ctx, created.RoomID)
	require.NoError(t, err)
	require.NotEmpty(t, room.MeetingID)

	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, room.MeetingID, results[i].Meeting.MeetingID, "join %d landed in another meeting", i)
	}
	require.Len(t, p.Attendees(room.MeetingID), n)
}

type failingProvider struct {
	*fake.Provider
	fail atomic.Bool
}

func (p *failingProvider) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (conferencing.Attendee, error) {
	if p.fail.Load() {
		return conferencing.Attendee{}, errors.New("upstream unavailable")
	}
	return p.Provider.CreateAttendee(ctx, meetingID, externalUserID)
}

func TestJoin_ProviderFailureIsRetryable(t *testing.T) {
	p := &failingProvider{Provider: fake.New()}
	p.fail.Store(true)
	f := newFixtureWithProvider(t, p)
	ctx := context.Background()
	created := f.createRoom(t)
	host := created.Invites[domain.RoleHost]

	_, err := f.joins.Join(ctx, created.RoomID, host.Token)
	require.ErrorIs(t, err, service.ErrProvider)

	inv, err := f.store.Invites().GetInviteByID(ctx, host.InviteID)
	require.NoError(t, err)
	require.False(t, inv.Used, "a failed join must not burn the invite")

	p.fail.Store(false)
	res, err := f.joins.Join(ctx, created.RoomID, host.Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleHost, res.Role)
}

func TestJoin_EndedMeeting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRoom(t)

	res, err := f.joins.Join(ctx, created.RoomID, created.Invites[domain.RoleHost].Token)
	require.NoError(t, err)
	f.provider.End(res.Meeting.MeetingID)

	_, err = f.joins.Join(ctx, created.RoomID, created.Invites[domain.RoleGuest].Token)
	require.ErrorIs(t, err, service.ErrProvider)
	require.ErrorIs(t, err, conferencing.ErrMeetingNotFound)
}

func TestJoin_Metrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createRoom(t)
	token := created.Invites[domain.RoleHost].Token

	okBefore := testutil.ToFloat64(metrics.JoinsTotal.WithLabelValues(metrics.JoinResultOK))
	usedBefore := testutil.ToFloat64(metrics.JoinsTotal.WithLabelValues(metrics.JoinResultUsed))
	createdBefore := testutil.ToFloat64(metrics.MeetingsProvisioned.WithLabelValues(metrics.ProvisionCreated))

	_, err := f.joins.Join(ctx, created.RoomID, token)
	require.NoError(t, err)
	_, err = f.joins.Join(ctx, created.RoomID, token)
	require.Error(t, err)

	require.Equal(t, okBefore+1, testutil.ToFloat64(metrics.JoinsTotal.WithLabelValues(metrics.JoinResultOK)))
	require.Equal(t, usedBefore+1, testutil.ToFloat64(metrics.JoinsTotal.WithLabelValues(metrics.JoinResultUsed)))
	require.Equal(t, createdBefore+1, testutil.ToFloat64(metrics.MeetingsProvisioned.WithLabelValues(metrics.ProvisionCreated)))
}
