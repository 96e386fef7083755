// Package metrics provides Prometheus instrumentation for token issuance.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons for TokenFailures.
const (
	ReasonConfig  = "config"
	ReasonRequest = "request"
	ReasonSign    = "sign"
)

var (
	// TokensIssued counts issued tokens by participant role.
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomtoken_tokens_issued_total",
			Help: "Total access tokens issued",
		},
		[]string{"role"},
	)

	// TokenFailures counts failed token requests by reason.
	TokenFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomtoken_token_failures_total",
			Help: "Total token requests that failed",
		},
		[]string{"reason"},
	)

	// RequestsTotal counts HTTP requests by route, method, and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomtoken_http_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"route", "method", "status"},
	)

	// RequestDuration observes request latency in seconds by route and method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomtoken_http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// RateLimitHits counts rate limit rejections by route.
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomtoken_rate_limit_hits_total",
			Help: "Total rate limit rejections",
		},
		[]string{"route"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		TokensIssued,
		TokenFailures,
		RequestsTotal,
		RequestDuration,
		RateLimitHits,
	}
}

// Register adds all collectors to reg. Collectors already registered with reg are skipped,
// so calling Register more than once is safe.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler returns an http.Handler that serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
