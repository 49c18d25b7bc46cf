package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Join results recorded on JoinsTotal.
const (
	JoinResultOK           = "ok"
	JoinResultBadToken     = "bad_token"
	JoinResultForbidden    = "forbidden"
	JoinResultUsed         = "used"
	JoinResultExpired      = "expired"
	JoinResultRoomInactive = "room_inactive"
	JoinResultProviderErr  = "provider_error"
	JoinResultInternal     = "internal_error"
)

// Provisioning outcomes recorded on MeetingsProvisioned.
const (
	ProvisionCreated = "created"
	ProvisionAdopted = "adopted"
	ProvisionReused  = "reused"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkey_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomkey_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomkey_rooms_created_total",
			Help: "Total rooms created with their host and guest invites",
		},
	)

	JoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkey_joins_total",
			Help: "Join attempts by result",
		},
		[]string{"result"},
	)

	MeetingsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkey_meetings_provisioned_total",
			Help: "Meeting lookups during join by outcome",
		},
		[]string{"outcome"}, // "created", "adopted" or "reused"
	)

	// Infrastructure metrics
	HousekeepingDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomkey_housekeeping_deleted_total",
			Help: "Expired records purged by housekeeping",
		},
		[]string{"kind"}, // "rooms" or "invites"
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomkey_provider_latency_seconds",
			Help:    "Conferencing provider call latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)
)
