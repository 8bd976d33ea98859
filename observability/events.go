package observability

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"auctionhouse/core/events"
	"auctionhouse/core/types"
)

const saleEventType = "auctionhouse.sale.executed"

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry counting ledger events by type.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auctionhouse",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Ledger events of applied units segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Record increments the counter for an event type.
func (m *eventMetrics) Record(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// EventRecorder is a ledger emitter that counts events, feeds sale volume
// into the marketplace metrics and logs each event at debug level.
type EventRecorder struct {
	logger *slog.Logger
	next   events.Emitter
}

// NewEventRecorder returns a recorder forwarding to next, which may be nil.
func NewEventRecorder(logger *slog.Logger, next events.Emitter) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{logger: logger, next: next}
}

// Emit implements events.Emitter.
func (r *EventRecorder) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	Events().Record(evt.EventType())
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if e := carrier.Event(); e != nil {
			if e.Type == saleEventType {
				Marketplace().RecordSale(e.Attributes["treasuryMint"], e.Attributes["price"], e.Attributes["fee"])
			}
			r.logger.Debug("ledger event", slog.String("type", e.Type), slog.Any("attributes", e.Attributes))
		}
	}
	if r.next != nil {
		r.next.Emit(evt)
	}
}
