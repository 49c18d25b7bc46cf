package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/roomkey/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
	// TrustProxy keys on X-Forwarded-For / X-Real-IP instead of the peer
	// address. Only set it when a proxy in front of the service overwrites
	// those headers.
	TrustProxy bool
}

// Default rate limit profiles. The service config can override each field
// through RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards admin room creation (key guessing).
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// ModerateLimit guards invite redemption (token guessing).
	ModerateLimit = RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		Burst:             20,
	}

	// LenientLimit for health probes and metrics scrapes.
	LenientLimit = RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		Burst:             100,
	}

	// PublicLimit for static documentation.
	PublicLimit = RateLimitConfig{
		RequestsPerWindow: 1000,
		Window:            time.Minute,
		Burst:             1000,
	}
)

// Override returns a copy of c with every positive argument applied.
// Non-positive values keep the existing setting.
func (c RateLimitConfig) Override(requests, windowSec, burst int) RateLimitConfig {
	if requests > 0 {
		c.RequestsPerWindow = requests
	}
	if windowSec > 0 {
		c.Window = time.Duration(windowSec) * time.Second
	}
	if burst > 0 {
		c.Burst = burst
	}
	return c
}

// Valid reports whether the config can build a limiter.
func (c RateLimitConfig) Valid() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0 && c.Burst > 0
}

// KeyExtractor maps a request to the bucket it is charged against.
type KeyExtractor func(*http.Request) string

// ClientIP returns the caller's address. Forwarding headers are consulted
// only when trustProxy is set; the peer address is used otherwise.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IPKeyExtractor keys on the peer address.
func IPKeyExtractor(r *http.Request) string {
	return ClientIP(r, false)
}

// ProxiedIPKeyExtractor keys on the forwarded client address.
func ProxiedIPKeyExtractor(r *http.Request) string {
	return ClientIP(r, true)
}

// CompositeKeyExtractor joins the non-empty keys of each extractor with sep,
// e.g. "192.168.1.1:01HZ..." for IP plus room.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// PathValueKeyExtractor keys on a path wildcard, e.g. "roomId" for
// /v1/rooms/{roomId}/join.
func PathValueKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		return r.PathValue(name)
	}
}

// sweepEvery bounds how often the bucket table is scanned for idle keys.
const sweepEvery = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketTable holds one token bucket per key. A bucket untouched for longer
// than idleAfter has refilled completely, so dropping it loses nothing.
type bucketTable struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newBucketTable(config RateLimitConfig) *bucketTable {
	perSecond := float64(config.RequestsPerWindow) / config.Window.Seconds()
	refill := time.Duration(float64(config.Burst) / perSecond * float64(time.Second))

	return &bucketTable{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(perSecond),
		burst:     config.Burst,
		idleAfter: max(refill, config.Window),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// take charges one request to key. On refusal it returns how long until the
// next token is available.
func (t *bucketTable) take(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= sweepEvery {
		t.sweep(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}

	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (t *bucketTable) sweep(now time.Time) {
	t.lastSweep = now
	for key, b := range t.buckets {
		if now.Sub(b.lastSeen) > t.idleAfter {
			delete(t.buckets, key)
		}
	}
}

func (t *bucketTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// RateLimitMiddleware throttles requests per key. A request whose key is
// empty is let through and logged.
func RateLimitMiddleware(config RateLimitConfig, keyFn KeyExtractor) Middleware {
	table := newBucketTable(config)
	limitHeader := strconv.Itoa(config.RequestsPerWindow)
	windowHeader := config.Window.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyFn(r)
			if key == "" {
				log.Warn("rate limit key missing, request allowed",
					slog.String("endpoint", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := table.take(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(wait.Round(time.Second).Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", limitHeader)
			w.Header().Set("X-RateLimit-Window", windowHeader)

			log.Warn("rate limit exceeded",
				slog.String("key", key),
				slog.String("endpoint", r.URL.Path),
				slog.Int("retry_after", retryAfter),
			)

			WriteError(w, http.StatusTooManyRequests, ErrorCodeRateLimitExceeded,
				"Too many requests. Please try again later.")
		})
	}
}

func ipExtractor(config RateLimitConfig) KeyExtractor {
	if config.TrustProxy {
		return ProxiedIPKeyExtractor
	}
	return IPKeyExtractor
}

// RateLimitByIP limits by client address.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, ipExtractor(config))
}

// RateLimitByIPAndPathValue limits by client address plus a path wildcard,
// so hammering one room does not starve joins to another from the same
// address.
func RateLimitByIPAndPathValue(config RateLimitConfig, name string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		ipExtractor(config),
		PathValueKeyExtractor(name),
	))
}
