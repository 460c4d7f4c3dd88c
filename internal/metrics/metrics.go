package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Point transactions
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_transactions_total",
			Help: "Total successful point transactions",
		},
		[]string{"type"}, // CHARGE|USE
	)
	TransactionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_transactions_failed_total",
			Help: "Total rejected or failed point transactions",
		},
		[]string{"type", "reason"},
	)

	// Per-user lock
	LockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "point_lock_wait_seconds",
			Help:    "Time spent waiting for a per-user lock",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 3, 5},
		},
	)
	LockTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "point_lock_timeouts_total",
			Help: "Total lock acquisitions that gave up waiting",
		},
	)
	LocksHeld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "point_locks_held",
			Help: "Per-user locks currently held",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(TransactionsTotal)
		prometheus.MustRegister(TransactionsFailed)
		prometheus.MustRegister(LockWaitSeconds)
		prometheus.MustRegister(LockTimeouts)
		prometheus.MustRegister(LocksHeld)
		prometheus.MustRegister(WorkerQueueDepth)
	})
}
