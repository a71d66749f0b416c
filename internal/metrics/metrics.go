// Package metrics exposes Prometheus counters for the storefront client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the API, cart and wishlist layers report into.
type Recorder interface {
	RecordRequest(method string, status int, d time.Duration)
	RecordTokenRefresh(ok bool)
	RecordCartMutation(op string, outcome string)
	RecordDrift(items int)
}

// Cart mutation outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeReverted  = "reverted"
	OutcomeCancelled = "cancelled"
	OutcomeReplaced  = "replaced"
)

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	tokenRefresh  *prometheus.CounterVec
	cartMutations *prometheus.CounterVec
	drift         prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Backend API requests by method and status (0 = no response).",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Backend API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_client_token_fetch_total",
			Help: "Client-credentials token acquisitions by result.",
		}, []string{"result"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_drift_items_total",
			Help: "Line items that differed between optimistic and canonical cart state.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.tokenRefresh,
		c.cartMutations,
		c.drift,
	)

	return c
}

// RecordRequest counts one backend round trip.
func (c *Collector) RecordRequest(method string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordTokenRefresh counts a client token acquisition.
func (c *Collector) RecordTokenRefresh(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.tokenRefresh.WithLabelValues(result).Inc()
}

// RecordCartMutation counts a finished cart or wishlist mutation.
func (c *Collector) RecordCartMutation(op, outcome string) {
	c.cartMutations.WithLabelValues(op, outcome).Inc()
}

// RecordDrift counts line items that the server corrected.
func (c *Collector) RecordDrift(items int) {
	c.drift.Add(float64(items))
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, int, time.Duration) {}
func (Nop) RecordTokenRefresh(bool)                  {}
func (Nop) RecordCartMutation(string, string)        {}
func (Nop) RecordDrift(int)                          {}
