// Package metrics provides Prometheus instrumentation for contractsinfo.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Address verification metrics
	addressVerificationTotal *prometheus.CounterVec
	addressPrepareTotal      *prometheus.CounterVec

	// Token info metrics
	tokenInfoImportTotal *prometheus.CounterVec

	// Explorer client metrics
	explorerRequestsTotal *prometheus.CounterVec
	explorerDuration      *prometheus.HistogramVec
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

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

	// Address verification counter
	addressVerificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_verification_total",
			Help: "Total number of address verification attempts",
		},
		[]string{"result"},
	)

	// Address prepare counter
	addressPrepareTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "address_prepare_total",
			Help: "Total number of verification preparations",
		},
		[]string{"result"},
	)

	// Token info import counter
	tokenInfoImportTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_info_import_total",
			Help: "Total number of token info imports",
		},
		[]string{"provider", "result"},
	)

	// Explorer request counter
	explorerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_requests_total",
			Help: "Total number of requests to the explorer API",
		},
		[]string{"operation", "status"},
	)

	// Explorer request duration histogram
	explorerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_request_duration_seconds",
			Help:    "Explorer API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Note: Go runtime metrics (goroutines, memory, GC) are automatically
	// collected by prometheus/client_golang - no custom collector needed
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
