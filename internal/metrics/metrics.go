/*

This file contains the Prometheus collectors for the pool engine. Exposed via
the web server's /metrics endpoint.

*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts completed engine operations by kind and pool.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poold",
		Name:      "operations_total",
		Help:      "Completed pool engine operations by kind and denom.",
	}, []string{"kind", "denom"})

	// OperationFailures counts rejected or failed engine operations by kind.
	OperationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poold",
		Name:      "operation_failures_total",
		Help:      "Failed pool engine operations by kind.",
	}, []string{"kind"})

	// PoolsTracked is the number of pools the engine currently knows about.
	PoolsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poold",
		Name:      "pools_tracked",
		Help:      "Number of pools tracked by the engine (allowed or not).",
	})

	// HTTPRequests counts HTTP requests served by the API by path and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poold",
		Name:      "http_requests_total",
		Help:      "HTTP requests served by the API.",
	}, []string{"method", "path", "status"})
)
