// Package metrics provides Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled      bool
	serviceName  string
	registerOnce sync.Once

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Contract query metrics
	contractQueryTotal    *prometheus.CounterVec
	contractQueryDuration *prometheus.HistogramVec

	// Chain metrics
	chainInfo *prometheus.GaugeVec
)

// Init initializes the metrics system. Collectors are registered once per
// process; later calls only change the enabled flag.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	registerOnce.Do(register)
}

func register() {
	// HTTP request counter
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Contract query counter
	contractQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_query_total",
			Help: "Total number of contract queries by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// Contract query duration histogram
	contractQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contract_query_duration_seconds",
			Help:    "Contract query latency in seconds, including the eth_call round trip",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Chain identity observed at startup
	chainInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chain_info",
			Help: "Chain the gateway is connected to; value is the block height seen at startup",
		},
		[]string{"chain_id", "contract"},
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
