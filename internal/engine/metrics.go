package engine

import (
	"ticklob/internal/common"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an injectable set of Prometheus collectors a Book reports
// into. Purely observational — it never influences matching decisions,
// so it does not reopen the fee/routing/persistence Non-goals spec.md
// §1 excludes. The default Book has metrics == nil and records nothing.
type Metrics struct {
	submitted *prometheus.CounterVec
	matched   prometheus.Counter
	matchSize prometheus.Histogram
	canceled  prometheus.Counter
	cleared   prometheus.Counter
}

// NewMetrics constructs a Metrics set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticklob",
			Subsystem: "book",
			Name:      "orders_submitted_total",
			Help:      "Number of limit/market submissions accepted by the book, by order type and side.",
		}, []string{"type", "side"}),
		matched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticklob",
			Subsystem: "book",
			Name:      "matches_total",
			Help:      "Number of submissions that crossed and produced at least one fill.",
		}),
		matchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ticklob",
			Subsystem: "book",
			Name:      "match_fill_quantity",
			Help:      "Distribution of filled quantity per submission that crossed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		canceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticklob",
			Subsystem: "book",
			Name:      "cancels_total",
			Help:      "Number of successful cancels.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticklob",
			Subsystem: "book",
			Name:      "clears_total",
			Help:      "Number of times the book was cleared.",
		}),
	}

	reg.MustRegister(m.submitted, m.matched, m.matchSize, m.canceled, m.cleared)
	return m
}

func (m *Metrics) observeSubmit(orderType string, side common.Side) {
	m.submitted.WithLabelValues(orderType, side.String()).Inc()
}

func (m *Metrics) observeMatch(filled common.Quantity) {
	if filled == 0 {
		return
	}
	m.matched.Inc()
	m.matchSize.Observe(float64(filled))
}

func (m *Metrics) observeCancel() { m.canceled.Inc() }
func (m *Metrics) observeClear()  { m.cleared.Inc() }
