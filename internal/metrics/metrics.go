// Package metrics exposes Prometheus collectors for the submission service.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream service labels.
const (
	ServiceIndexNow       = "indexnow"
	ServiceGoogleIndexing = "google_indexing"
	ServiceGoogleToken    = "google_token"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexsubmitter_submissions_total",
			Help: "Total number of submissions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	submissionURLsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexsubmitter_submission_urls_total",
			Help: "Total number of URLs carried by submissions.",
		},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexsubmitter_upstream_requests_total",
			Help: "Total number of outbound requests, labeled by service and outcome.",
		},
		[]string{"service", "outcome"},
	)

	upstreamRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexsubmitter_upstream_request_duration_seconds",
			Help:    "Histogram of outbound request latencies, labeled by service.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service"},
	)

	rateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexsubmitter_ratelimit_rejections_total",
			Help: "Total number of submissions rejected by the per-host limiter.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSubmission records the final outcome of one submission.
func ObserveSubmission(success bool, urls int) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
	if urls > 0 {
		submissionURLsTotal.Add(float64(urls))
	}
}

// ObserveUpstream records one outbound call and its latency.
func ObserveUpstream(service string, err error, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(service, outcomeOf(err)).Inc()
	upstreamRequestDurationSeconds.WithLabelValues(service).Observe(duration.Seconds())
}

// ObserveRateLimitRejection increments the limiter rejection counter.
func ObserveRateLimitRejection() {
	rateLimitRejectionsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeFailure
	}
}

// isTimeout matches net.Error, *url.Error and context.DeadlineExceeded alike.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
