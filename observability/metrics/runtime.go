package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type RuntimeMetrics struct {
	transactions *prometheus.CounterVec
	duration     prometheus.Histogram
	accounts     prometheus.Gauge
}

var (
	runtimeOnce     sync.Once
	runtimeRegistry *RuntimeMetrics
)

func Runtime() *RuntimeMetrics {
	runtimeOnce.Do(func() {
		runtimeRegistry = &RuntimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "refpool_runtime_transactions_total",
				Help: "Count of processed transactions by outcome.",
			}, []string{"outcome"}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "refpool_runtime_transaction_duration_seconds",
				Help:    "Latency of transaction execution including commit.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			}),
			accounts: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "refpool_runtime_accounts",
				Help: "Number of account slots in the store.",
			}),
		}
		prometheus.MustRegister(
			runtimeRegistry.transactions,
			runtimeRegistry.duration,
			runtimeRegistry.accounts,
		)
	})
	return runtimeRegistry
}

func (m *RuntimeMetrics) ObserveTransaction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.transactions.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *RuntimeMetrics) SetAccounts(count int) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(count))
}

// Transactions exposes the outcome counter for tests and exporters.
func (m *RuntimeMetrics) Transactions() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.transactions
}
