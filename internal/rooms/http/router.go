package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/roomkey/internal/rooms/service"
	"github.com/aussiebroadwan/roomkey/internal/rooms/store"
	"github.com/aussiebroadwan/roomkey/pkg/httpx"
	"github.com/aussiebroadwan/roomkey/pkg/slogx"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/roomkey/api/rooms" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits assigns a limit profile to each class of route.
type RateLimits struct {
	Strict   httpx.RateLimitConfig // room creation
	Moderate httpx.RateLimitConfig // join, per address and room
	// JoinAddress caps joins per address across all rooms, so naming a new
	// room id does not buy a fresh bucket.
	JoinAddress httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig // health, metrics
	Public   httpx.RateLimitConfig // swagger
}

// DefaultRateLimits returns the package profiles from httpx.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:      httpx.StrictLimit,
		Moderate:    httpx.ModerateLimit,
		JoinAddress: httpx.LenientLimit,
		Lenient:     httpx.LenientLimit,
		Public:      httpx.PublicLimit,
	}
}

// RoomDefaults apply when a create request leaves a field out.
type RoomDefaults struct {
	InviteTTL time.Duration
	RoomTTL   time.Duration
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	adminKeys httpx.KeyVerifier

	Limits      RateLimits
	Defaults    RoomDefaults
	CORSOrigins []string
	RoomService *service.RoomService
	JoinService *service.JoinService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	adminKeys httpx.KeyVerifier,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		adminKeys:    adminKeys,
		logger:       logger,
		Limits:       DefaultRateLimits(),
		Defaults: RoomDefaults{
			InviteTTL: 45 * time.Minute,
			RoomTTL:   24 * time.Hour,
		},
		CORSOrigins: []string{"*"},
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Set the exported fields before calling it.
func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		cors.Handler(cors.Options{
			AllowedOrigins: r.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.AdminKeyHeader, slogx.RequestIDHeader},
			ExposedHeaders: []string{slogx.RequestIDHeader, "Retry-After"},
			MaxAge:         300,
		}),
		httpx.NoStore,
	}

	r.registerRooms()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			roomkey API
//	@version		0.1.0
//	@description	Single-use, time-bounded invites to conferencing rooms.
//	@description
//	@description				Invite tokens are HS256 compact JWTs. Each invite can be redeemed exactly once.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/roomkey
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	AdminKey
//	@in							header
//	@name						X-Admin-Key
//	@description				Operator key for room creation.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerRooms() {
	create := &CreateRoomHandler{
		RoomService: r.RoomService,
		Defaults:    r.Defaults,
	}

	// POST /v1/rooms - strict rate limit by IP, admin key required
	r.Mux.Handle("POST /v1/rooms",
		httpx.Chain(create,
			Metrics,
			httpx.RateLimitByIP(r.Limits.Strict),
			httpx.AdminKeyMiddleware(r.adminKeys),
		),
	)

	// POST /v1/rooms/{roomId}/join - public, capped per IP, then per IP + room
	join := &JoinHandler{JoinService: r.JoinService}
	r.Mux.Handle("POST /v1/rooms/{roomId}/join",
		httpx.Chain(join,
			Metrics,
			httpx.RateLimitByIP(r.Limits.JoinAddress),
			httpx.RateLimitByIPAndPathValue(r.Limits.Moderate, "roomId"),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			Metrics,
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			Metrics,
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)

	r.Mux.Handle("GET /metrics",
		httpx.Chain(promhttp.Handler(),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
}
