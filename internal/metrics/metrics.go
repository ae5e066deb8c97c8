// Package metrics: счётчики Prometheus сервиса; отдаются через promhttp на /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablekit_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tablekit_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ddlStatements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablekit_ddl_statements_total",
		Help: "DDL statements executed, by result.",
	}, []string{"result"})

	schemaMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tablekit_schema_mutations_total",
		Help: "Schema mutations (table/field create, alter, drop), by operation and result.",
	}, []string{"op", "result"})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRequest: один обработанный HTTP-запрос.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// DDL: одно выполненное DDL-выражение.
func DDL(err error) { ddlStatements.WithLabelValues(result(err)).Inc() }

// SchemaMutation: одна транзакция изменения схемы.
func SchemaMutation(op string, err error) { schemaMutations.WithLabelValues(op, result(err)).Inc() }

func Handler() http.Handler { return promhttp.Handler() }
