package engine

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

type Metrics struct {
	// Latency: длительность одного запроса к хранилищу (с ретраями)
	QueryDuration *prometheus.HistogramVec

	// Traffic: обновления дашборда
	RefreshTotal *prometheus.CounterVec

	// Errors: классификация отказов хранилища
	DatastoreErrors *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - open, 2 - half-open)
	CircuitBreakerState *prometheus.GaugeVec

	// Cache: попадания/промахи кэша снапшотов
	CacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		QueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ddos_dashboard_query_duration_seconds",
			Help:    "Histogram of datastore aggregation query latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"query", "status"}),

		RefreshTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ddos_dashboard_refresh_total",
			Help: "Total number of dashboard refreshes by outcome.",
		}, []string{"status"}),

		DatastoreErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ddos_dashboard_datastore_errors_total",
			Help: "Total number of datastore errors by type.",
		}, []string{"type"}), // типы: connectivity, rejected, malformed, canceled, unknown

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "ddos_dashboard_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open, 2=half-open).",
		}, []string{"breaker"}),

		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ddos_dashboard_cache_lookups_total",
			Help: "Snapshot cache lookups by result.",
		}, []string{"result"}), // hit, miss, error
	}
}

// ErrorType — метка для DatastoreErrors.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrConnectivity):
		return "connectivity"
	case errors.Is(err, domain.ErrQueryRejected):
		return "rejected"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "unknown"
	}
}
