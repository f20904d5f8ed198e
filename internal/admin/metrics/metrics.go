// Package metrics holds the prometheus collectors shared by the managers, the
// seed director and the admin API. They live in their own package so those
// layers can record without importing each other.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "greenadmin"

var (
	SeededEntities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seeded_entities_total",
		Help:      "Entities created by seeding passes, by kind.",
	}, []string{"kind"})

	SeedSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seed_skipped_total",
		Help:      "Seeding passes skipped because the store already held the kind.",
	}, []string{"kind"})

	ManagerOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "manager_operations_total",
		Help:      "Manager operations by kind, operation and result.",
	}, []string{"kind", "op", "result"}) // result: ok|error

	ManagerOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "manager_operation_duration_seconds",
		Help:      "Latency of manager operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "op"})

	ExpiredSecretsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expired_client_secrets_deleted_total",
		Help:      "Client secrets removed by housekeeping after expiring.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Admin API requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Admin API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Register registers every collector on reg (the default registerer when nil).
// Collectors that are already registered are accepted.
func Register(reg prometheus.Registerer, extra ...prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	collectors := append([]prometheus.Collector{
		SeededEntities,
		SeedSkipped,
		ManagerOperations,
		ManagerOperationDuration,
		ExpiredSecretsDeleted,
		HTTPRequests,
		HTTPRequestDuration,
	}, extra...)

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveOperation records one manager call started at start.
func ObserveOperation(kind, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ManagerOperations.WithLabelValues(kind, op, result).Inc()
	ManagerOperationDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}

// HTTPMiddleware counts requests by the ServeMux pattern that served them.
// It must wrap the mux so the pattern is known once the handler returns.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
