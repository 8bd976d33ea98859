package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"auctionhouse/core/events"
	"auctionhouse/core/types"
)

type sample struct{ evt *types.Event }

func (s sample) EventType() string   { return s.evt.Type }
func (s sample) Event() *types.Event { return s.evt }

type capture struct{ got []events.Event }

func (c *capture) Emit(e events.Event) { c.got = append(c.got, e) }

func TestEventRecorderCountsSales(t *testing.T) {
	next := &capture{}
	rec := NewEventRecorder(nil, next)
	mint := "So11111111111111111111111111111111111111112"

	before := testutil.ToFloat64(Marketplace().volume.WithLabelValues(mint))
	rec.Emit(sample{&types.Event{Type: saleEventType, Attributes: map[string]string{
		"treasuryMint": mint,
		"price":        "100",
		"fee":          "2",
	}}})
	rec.Emit(sample{&types.Event{Type: "auctionhouse.bid.created"}})

	require.Len(t, next.got, 2)
	require.Equal(t, before+100, testutil.ToFloat64(Marketplace().volume.WithLabelValues(mint)))
	require.GreaterOrEqual(t, testutil.ToFloat64(Marketplace().fees.WithLabelValues(mint)), 2.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(Events().emitted.WithLabelValues("auctionhouse.bid.created")), 1.0)
}

func TestObserveOperation(t *testing.T) {
	m := Marketplace()
	before := testutil.ToFloat64(m.operations.WithLabelValues("ah_buy", "NotEnoughBalance"))
	samples := sampleCount(t, m.latency.WithLabelValues("ah_buy"))
	m.ObserveOperation("ah_buy", "NotEnoughBalance", time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.operations.WithLabelValues("ah_buy", "NotEnoughBalance")))
	require.Equal(t, samples+1, sampleCount(t, m.latency.WithLabelValues("ah_buy")))

	var nilMetrics *marketplaceMetrics
	nilMetrics.ObserveOperation("ah_buy", "", 0)
	nilMetrics.RecordSale("", "1", "1")
}

func sampleCount(t *testing.T, obs prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := obs.(prometheus.Metric)
	require.True(t, ok)
	var out dto.Metric
	require.NoError(t, metric.Write(&out))
	return out.GetHistogram().GetSampleCount()
}
