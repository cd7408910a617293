package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring test-environment transactions
var (
	TxSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyt_testing_tx_submitted_total",
		Help: "The total number of transactions submitted, by helper operation",
	}, []string{"op"})

	TxConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyt_testing_tx_confirmed_total",
		Help: "The total number of transactions mined with a successful status",
	}, []string{"op"})

	TxFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyt_testing_tx_failed_total",
		Help: "The total number of transactions that reverted or could not be confirmed",
	}, []string{"op"})

	GasUsed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lyt_testing_gas_used",
		Help:    "Gas used by confirmed transactions",
		Buckets: prometheus.ExponentialBuckets(21000, 2, 10), // Start at 21000 with 10 buckets doubling in size
	}, []string{"op"})

	ConfirmationTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lyt_testing_confirmation_seconds",
		Help:    "Time from submission until the receipt was available",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"op"})
)
