package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics provides observability for the identifier module.
// Tracks adapter operations, remote calls and the statuses inferred by sync.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RemoteCallsTotal  *prometheus.CounterVec
	SyncOutcomes      *prometheus.CounterVec
	PIDsCreated       prometheus.Counter
}

// New creates a Metrics instance registered on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pidstore_provider_operations_total",
			Help: "Total number of provider operations by operation and result",
		}, []string{"operation", "result"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pidstore_provider_operation_duration_seconds",
			Help:    "Duration of provider operations including remote calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		RemoteCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pidstore_crossref_calls_total",
			Help: "Total number of registration service calls by call and outcome",
		}, []string{"call", "outcome"}),
		SyncOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pidstore_sync_status_total",
			Help: "Statuses concluded by status synchronization",
		}, []string{"status"}),
		PIDsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pidstore_pids_created_total",
			Help: "Total number of identifiers created",
		}),
	}
}

// ObserveOperation records the result and duration of a provider operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.OperationsTotal.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementRemoteCall records one registration service call.
func (m *Metrics) IncrementRemoteCall(call, outcome string) {
	if m == nil {
		return
	}
	m.RemoteCallsTotal.WithLabelValues(call, outcome).Inc()
}

// IncrementSyncOutcome records the status a sync concluded.
func (m *Metrics) IncrementSyncOutcome(status string) {
	if m == nil {
		return
	}
	m.SyncOutcomes.WithLabelValues(status).Inc()
}

// IncrementPIDCreated records a successful create.
func (m *Metrics) IncrementPIDCreated() {
	if m == nil {
		return
	}
	m.PIDsCreated.Inc()
}
