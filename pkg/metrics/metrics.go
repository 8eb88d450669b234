// Package metrics содержит Prometheus-коллекторы сервиса
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор коллекторов HTTP, БД и бизнес-операций
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	ReservationTransitions *prometheus.CounterVec
	SlotConflicts          *prometheus.CounterVec
	LedgerOperations       *prometheus.CounterVec
	LedgerPoints           *prometheus.CounterVec
	RefundOutcomes         *prometheus.CounterVec
	WorkerRuns             *prometheus.CounterVec
}

// New регистрирует коллекторы в default registry
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует коллекторы в переданном registry (удобно для тестов)
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		DBOpenConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of open database connections",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBInUseConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of database connections in use",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBIdleConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBWaitCount: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		ReservationTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_transitions_total",
			Help:        "Reservation lifecycle transitions",
			ConstLabels: constLabels,
		}, []string{"to_status"}),
		SlotConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_slot_conflicts_total",
			Help:        "Rejected bookings and reschedules due to overlapping windows",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		LedgerOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "point_ledger_operations_total",
			Help:        "Point ledger operations by kind and result",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),
		LedgerPoints: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "point_ledger_points_total",
			Help:        "Points moved through the ledger",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		RefundOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_refunds_total",
			Help:        "Refund calls to the payment collaborator",
			ConstLabels: constLabels,
		}, []string{"result"}),
		WorkerRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "worker_runs_total",
			Help:        "Background job runs by job and result",
			ConstLabels: constLabels,
		}, []string{"job", "result"}),
	}
}

// ObserveHTTP записывает метрики одного HTTP запроса
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveDBQuery записывает длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncTransition увеличивает счётчик переходов в статус
func (m *Metrics) IncTransition(toStatus string) {
	if m == nil {
		return
	}
	m.ReservationTransitions.WithLabelValues(toStatus).Inc()
}

// IncSlotConflict увеличивает счётчик конфликтов слотов
func (m *Metrics) IncSlotConflict(operation string) {
	if m == nil {
		return
	}
	m.SlotConflicts.WithLabelValues(operation).Inc()
}

// ObserveLedger записывает результат операции с баллами
func (m *Metrics) ObserveLedger(operation, result string, points int64) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, result).Inc()
	if result == "ok" && points > 0 {
		m.LedgerPoints.WithLabelValues(operation).Add(float64(points))
	}
}

// IncRefund увеличивает счётчик исходов возвратов
func (m *Metrics) IncRefund(result string) {
	if m == nil {
		return
	}
	m.RefundOutcomes.WithLabelValues(result).Inc()
}

// IncWorkerRun увеличивает счётчик запусков фоновых задач
func (m *Metrics) IncWorkerRun(job, result string) {
	if m == nil {
		return
	}
	m.WorkerRuns.WithLabelValues(job, result).Inc()
}
