package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for OperationsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics provides observability for the marketplace ledger.
// Tracks per-operation outcomes and latency, sales volume, payouts and
// outbox delivery.
type Metrics struct {
	OperationsTotal       *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	SalesVolume           prometheus.Counter
	ProceedsWithdrawn     prometheus.Counter
	ReentrancyRejections  prometheus.Counter
	OutboxPublished       prometheus.Counter
	OutboxPublishFailures prometheus.Counter
}

// New creates a Metrics instance registered on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nftmarket_operations_total",
			Help: "Ledger operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nftmarket_operation_duration_seconds",
			Help:    "Duration of ledger operations including capability calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		SalesVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "nftmarket_sales_volume_total",
			Help: "Total value received by successful purchases",
		}),
		ProceedsWithdrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "nftmarket_proceeds_withdrawn_total",
			Help: "Total value paid out by successful withdrawals",
		}),
		ReentrancyRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "nftmarket_reentrancy_rejections_total",
			Help: "Nested mutating calls rejected by the reentrancy guard",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "nftmarket_outbox_published_total",
			Help: "Outbox entries delivered to the event publisher",
		}),
		OutboxPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "nftmarket_outbox_publish_failures_total",
			Help: "Relay passes that failed to publish",
		}),
	}
}

// ObserveOperation records the outcome and duration of a ledger operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddSalesVolume(value uint64) {
	m.SalesVolume.Add(float64(value))
}

func (m *Metrics) AddProceedsWithdrawn(amount uint64) {
	m.ProceedsWithdrawn.Add(float64(amount))
}

func (m *Metrics) IncrementReentrancyRejections() {
	m.ReentrancyRejections.Inc()
}

// ObservePublished satisfies relay.Metrics.
func (m *Metrics) ObservePublished(n int) {
	m.OutboxPublished.Add(float64(n))
}

// ObservePublishFailure satisfies relay.Metrics.
func (m *Metrics) ObservePublishFailure() {
	m.OutboxPublishFailures.Inc()
}
