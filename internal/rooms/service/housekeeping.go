package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/metrics"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
)

// DefaultHousekeepingInterval is used when no positive interval is given.
const DefaultHousekeepingInterval = time.Hour

// SweepResult counts the records purged by one sweep.
type SweepResult struct {
	Invites int64
	Rooms   int64
}

// HousekeepingService purges rooms and invites past their purge time on a
// fixed interval. Drivers with native key expiry report zero deletions.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
	}
}

// Start runs the sweeper in the background. Calling it twice is a no-op.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	s.Logger.Info("housekeeping started", slog.Duration("interval", s.Interval))
}

// Stop cancels the background sweeper and waits for an in-flight sweep to
// finish. It returns immediately when Start was never called.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.Logger.Info("housekeeping stopped")
}

// Run sweeps once, then every Interval until ctx is done.
func (s *HousekeepingService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep deletes expired invites, then expired rooms. A failure on one kind
// is logged and does not skip the other.
func (s *HousekeepingService) Sweep(ctx context.Context) SweepResult {
	now := s.Now()
	var res SweepResult

	purge := func(kind string, del func(context.Context, time.Time) (int64, error)) int64 {
		n, err := del(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping purge failed", slog.String("kind", kind), slog.Any("error", err))
			return 0
		}
		metrics.HousekeepingDeleted.WithLabelValues(kind).Add(float64(n))
		return n
	}

	res.Invites = purge("invites", s.Store.Invites().DeleteExpiredInvites)
	res.Rooms = purge("rooms", s.Store.Rooms().DeleteExpiredRooms)

	s.Logger.Info("housekeeping sweep",
		slog.Int64("invites_deleted", res.Invites),
		slog.Int64("rooms_deleted", res.Rooms),
	)
	return res
}
