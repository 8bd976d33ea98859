package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type marketplaceMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	volume     *prometheus.CounterVec
	fees       *prometheus.CounterVec
	throttles  *prometheus.CounterVec
	commits    prometheus.Counter
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *marketplaceMetrics
)

// Marketplace returns the lazily-initialised metrics registry for marketplace
// operations.
func Marketplace() *marketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &marketplaceMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Name:      "operations_total",
				Help:      "Marketplace operations segmented by operation and outcome. Failed operations carry the error name as outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "auctionhouse",
				Name:      "operation_duration_seconds",
				Help:      "Latency of marketplace operations including the atomic unit and commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Name:      "settled_volume_total",
				Help:      "Gross price of executed sales in base units of the treasury mint.",
			}, []string{"mint"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Name:      "fees_collected_total",
				Help:      "Marketplace fees paid into treasuries in base units of the treasury mint.",
			}, []string{"mint"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Name:      "throttles_total",
				Help:      "RPC requests rejected before dispatch.",
			}, []string{"reason"}),
			commits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Name:      "commits_total",
				Help:      "State roots persisted to disk.",
			}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.operations,
			marketplaceRegistry.latency,
			marketplaceRegistry.volume,
			marketplaceRegistry.fees,
			marketplaceRegistry.throttles,
			marketplaceRegistry.commits,
		)
	})
	return marketplaceRegistry
}

// ObserveOperation records one operation. outcome is "ok" on success and a
// stable error name otherwise.
func (m *marketplaceMetrics) ObserveOperation(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	if outcome == "" {
		outcome = "ok"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSale adds an executed sale to the volume and fee counters. Amounts
// arrive as decimal strings from sale events; malformed values are dropped.
func (m *marketplaceMetrics) RecordSale(mint, price, fee string) {
	if m == nil {
		return
	}
	mint = strings.TrimSpace(mint)
	if mint == "" {
		mint = "unknown"
	}
	if v, err := strconv.ParseUint(price, 10, 64); err == nil {
		m.volume.WithLabelValues(mint).Add(float64(v))
	}
	if v, err := strconv.ParseUint(fee, 10, 64); err == nil {
		m.fees.WithLabelValues(mint).Add(float64(v))
	}
}

// RecordThrottle counts a request rejected before dispatch, e.g.
// "rate_limit" or "unauthorized".
func (m *marketplaceMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// RecordCommit counts a persisted state root.
func (m *marketplaceMetrics) RecordCommit() {
	if m == nil {
		return
	}
	m.commits.Inc()
}
