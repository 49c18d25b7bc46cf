package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/roomkey/pkg/httpx"
)

// Store and provider driver names.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	ProviderFake = "fake"
	ProviderHTTP = "http"
)

// Upper bounds for the TTL settings, mirroring what the API accepts per request.
const (
	maxInviteTTL = 7 * 24 * time.Hour
	maxRoomTTL   = 365 * 24 * time.Hour
)

// RateLimitEnv overrides one rate limit profile. Zero keeps the built-in value.
type RateLimitEnv struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// Apply returns base with the non-zero overrides applied.
func (e RateLimitEnv) Apply(base httpx.RateLimitConfig) httpx.RateLimitConfig {
	return base.Override(e.Requests, e.WindowSec, e.Burst)
}

type Config struct {
	JWTSecret       string `env:"JWT_SECRET,required"` // Required: HS256 secret shared by signer and verifier
	AdminAPIKey     string `env:"ADMIN_API_KEY"`       // Admin key in plaintext
	AdminAPIKeyHash string `env:"ADMIN_API_KEY_HASH"`  // Admin key as an argon2id PHC string (wins over ADMIN_API_KEY)

	InviteTTLMinutes  int           `env:"INVITE_TTL_MINUTES"  envDefault:"45"`
	RoomTTLDays       int           `env:"ROOM_TTL_DAYS"       envDefault:"1"`
	InviteGracePeriod time.Duration `env:"INVITE_GRACE_PERIOD" envDefault:"1h"` // How long spent invites are kept before housekeeping
	MediaRegion       string        `env:"MEDIA_REGION"        envDefault:"eu-central-1"`

	StoreDriver  string `env:"STORE_DRIVER"  envDefault:"sqlite"` // sqlite or redis
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"rooms.db"`
	RedisURL     string `env:"REDIS_URL"`

	ConferencingProvider string        `env:"CONFERENCING_PROVIDER" envDefault:"fake"` // fake or http
	ConferencingURL      string        `env:"CONFERENCING_URL"`
	ConferencingToken    string        `env:"CONFERENCING_TOKEN"`
	ConferencingTimeout  time.Duration `env:"CONFERENCING_TIMEOUT"  envDefault:"10s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	TrustProxyHeaders  bool     `env:"TRUST_PROXY_HEADERS"` // Rate limit on X-Forwarded-For

	Env                  string        `env:"ENV"                   envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                 int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"` // Tracing is off when empty

	RateLimitStrict   RateLimitEnv `envPrefix:"RATELIMIT_STRICT_"`
	RateLimitModerate RateLimitEnv `envPrefix:"RATELIMIT_MODERATE_"`
	RateLimitJoinAddr RateLimitEnv `envPrefix:"RATELIMIT_JOIN_ADDRESS_"`
	RateLimitLenient  RateLimitEnv `envPrefix:"RATELIMIT_LENIENT_"`
	RateLimitPublic   RateLimitEnv `envPrefix:"RATELIMIT_PUBLIC_"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return ParseConfig(env.Options{})
}

// ParseConfig parses and validates the configuration. Tests pass
// env.Options.Environment to avoid touching the process environment.
func ParseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// InviteTTL is the default redemption window for new invites.
func (c Config) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLMinutes) * time.Minute
}

// RoomTTL is the default room lifetime.
func (c Config) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLDays) * 24 * time.Hour
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.AdminAPIKey == "" && c.AdminAPIKeyHash == "" {
		errs = append(errs, errors.New("one of ADMIN_API_KEY or ADMIN_API_KEY_HASH is required"))
	}

	if c.InviteTTLMinutes <= 0 || c.InviteTTL() > maxInviteTTL {
		errs = append(errs, fmt.Errorf("INVITE_TTL_MINUTES must be between 1 and %d", int(maxInviteTTL.Minutes())))
	}
	if c.RoomTTLDays <= 0 || c.RoomTTL() > maxRoomTTL {
		errs = append(errs, fmt.Errorf("ROOM_TTL_DAYS must be between 1 and %d", int(maxRoomTTL.Hours()/24)))
	}
	if c.InviteGracePeriod < 0 {
		errs = append(errs, errors.New("INVITE_GRACE_PERIOD must not be negative"))
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite store"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of sqlite, redis", c.StoreDriver))
	}

	switch c.ConferencingProvider {
	case ProviderFake:
	case ProviderHTTP:
		if c.ConferencingURL == "" {
			errs = append(errs, errors.New("CONFERENCING_URL is required for the http provider"))
		}
		if c.ConferencingTimeout <= 0 {
			errs = append(errs, errors.New("CONFERENCING_TIMEOUT must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("CONFERENCING_PROVIDER %q is not one of fake, http", c.ConferencingProvider))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	limits := map[string]RateLimitEnv{
		"STRICT":       c.RateLimitStrict,
		"MODERATE":     c.RateLimitModerate,
		"JOIN_ADDRESS": c.RateLimitJoinAddr,
		"LENIENT":      c.RateLimitLenient,
		"PUBLIC":       c.RateLimitPublic,
	}
	for name, l := range limits {
		if l.Requests < 0 || l.WindowSec < 0 || l.Burst < 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s_* values must not be negative", name))
		}
	}

	return errors.Join(errs...)
}
