package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. All methods are no-ops on a nil receiver.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	grpcRequestsTotal    *prometheus.CounterVec
	grpcRequestDuration  *prometheus.HistogramVec
	grpcRequestsInFlight prometheus.Gauge

	dbOpsTotal    *prometheus.CounterVec
	dbOpDuration  *prometheus.HistogramVec
	uploadIntents *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socfony_http_requests_total",
				Help: "Total HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socfony_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		grpcRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socfony_grpc_requests_total",
				Help: "Total gRPC requests by method and code.",
			},
			[]string{"method", "code"},
		),
		grpcRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socfony_grpc_request_duration_seconds",
				Help:    "gRPC request latency in seconds by method and code.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
		grpcRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "socfony_grpc_requests_in_flight",
				Help: "Current number of in-flight gRPC requests.",
			},
		),
		dbOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socfony_dynamo_operations_total",
				Help: "Total DynamoDB calls by table, operation and status.",
			},
			[]string{"table", "op", "status"},
		),
		dbOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socfony_dynamo_operation_duration_seconds",
				Help:    "DynamoDB call duration in seconds by table and operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table", "op"},
		),
		uploadIntents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socfony_upload_intents_total",
				Help: "Upload intents by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registerer.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.grpcRequestsTotal,
		m.grpcRequestDuration,
		m.grpcRequestsInFlight,
		m.dbOpsTotal,
		m.dbOpDuration,
		m.uploadIntents,
	)

	return m
}

func (m *Metrics) ObserveHTTP(route, method, code string, duration time.Duration) {
	if m == nil {
		return
	}

	m.httpRequestsTotal.WithLabelValues(route, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRPC(method, code string, duration time.Duration) {
	if m == nil {
		return
	}

	m.grpcRequestsTotal.WithLabelValues(method, code).Inc()
	m.grpcRequestDuration.WithLabelValues(method, code).Observe(duration.Seconds())
}

func (m *Metrics) IncRPCInFlight() {
	if m == nil {
		return
	}

	m.grpcRequestsInFlight.Inc()
}

func (m *Metrics) DecRPCInFlight() {
	if m == nil {
		return
	}

	m.grpcRequestsInFlight.Dec()
}

func (m *Metrics) ObserveDB(table, op, status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.dbOpsTotal.WithLabelValues(table, op, status).Inc()
	m.dbOpDuration.WithLabelValues(table, op).Observe(duration.Seconds())
}

// ObserveUploadIntent counts a createUploadIntent outcome ("ok" or an error kind).
func (m *Metrics) ObserveUploadIntent(outcome string) {
	if m == nil {
		return
	}

	m.uploadIntents.WithLabelValues(outcome).Inc()
}
