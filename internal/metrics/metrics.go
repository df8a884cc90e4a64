package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innkeep",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innkeep",
			Name:      "orders_created_total",
			Help:      "Created orders by kind (rental, food, hall, stay).",
		},
		[]string{"kind"},
	)

	hintsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "innkeep",
			Name:      "refresh_hints_total",
			Help:      "Refresh hints published to the notify hub.",
		},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "innkeep",
			Name:      "ledger_sync_tasks_total",
			Help:      "Ledger sync task outcomes.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, ordersCreated, hintsPublished, syncTasks)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncOrderCreated increments the created-order counter for a kind.
func IncOrderCreated(kind string) {
	ordersCreated.WithLabelValues(kind).Inc()
}

// IncHintPublished counts one published refresh hint.
func IncHintPublished() {
	hintsPublished.Inc()
}

// IncSyncTask counts one sync task outcome (done, retry, failed).
func IncSyncTask(result string) {
	syncTasks.WithLabelValues(result).Inc()
}
