package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskpulse", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskpulse", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// GatewayRequests counts dispatched requests by outcome
	// (ok, unauthorized, http_error, transport_error, auth_required).
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskpulse", Subsystem: "gateway", Name: "requests_total", Help: "Gateway requests by outcome."},
		[]string{"outcome"},
	)
	SessionRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taskpulse", Subsystem: "session", Name: "redirects_total", Help: "Sign-in redirects by reason."},
		[]string{"reason"},
	)
	RefreshScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "taskpulse", Subsystem: "session", Name: "refresh_scheduled_total", Help: "Near-expiry callbacks scheduled."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(GatewayRequests)
	reg.MustRegister(SessionRedirects)
	reg.MustRegister(RefreshScheduled)
}
