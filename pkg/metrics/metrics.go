// Package metrics provides prometheus instrumentation for query execution.
//
// # Basic Usage
//
//	timer := metrics.NewTimer()
//	rs, err := drv.Execute(ctx, q)
//	metrics.ObserveOperation("get_rows_slice", "sync", metrics.StatusSuccess, timer.Stop())
//
// Collectors are registered with the default registry on package load.
// SetEnabled(false) stops every helper below from updating them.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts finished operations.
	// Labels: kind (operation type), path (sync/async), status (success/failure class)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widecol_operations_total",
			Help: "Total number of executed operations",
		},
		[]string{"kind", "path", "status"},
	)

	// OperationLatency tracks the distribution of end-to-end operation latency in seconds.
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "widecol_operation_latency_seconds",
			Help: "Operation latency in seconds, submission to parsed result",
			Buckets: []float64{
				0.0005, // 500μs - in-memory drivers
				0.001,  // 1ms
				0.005,  // 5ms - local network round trip
				0.025,  // 25ms
				0.1,    // 100ms
				0.5,    // 500ms - large slices
				2.5,    // 2.5s
				10,     // 10s - near request timeout
			},
		},
		[]string{"kind", "path"},
	)

	// RowsParsed counts physical rows consumed by result parsers.
	// Labels: kind, mode (native/legacy)
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widecol_rows_parsed_total",
			Help: "Total number of physical rows consumed by parsers",
		},
		[]string{"kind", "mode"},
	)

	// InFlight tracks submitted operations that have not completed.
	InFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "widecol_operations_in_flight",
			Help: "Number of operations submitted and not yet completed",
		},
		[]string{"path"},
	)
)

var enabled atomic.Bool

func init() { enabled.Store(true) }

// SetEnabled turns recording on or off for the whole process.
func SetEnabled(on bool) { enabled.Store(on) }

// Enabled reports whether recording is on.
func Enabled() bool { return enabled.Load() }

// Status values used for the status label
const (
	StatusSuccess      = "success"
	StatusConnection   = "connection_error"
	StatusMalformedRow = "malformed_row"
	StatusConfig       = "config_error"
	StatusCancelled    = "cancelled"
	StatusOther        = "error"
)

// Timer measures an operation duration.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveOperation records the outcome and latency of a finished operation.
func ObserveOperation(kind, path, status string, d time.Duration) {
	if !Enabled() {
		return
	}
	OperationsTotal.WithLabelValues(kind, path, status).Inc()
	OperationLatency.WithLabelValues(kind, path).Observe(d.Seconds())
}

// AddRowsParsed adds n to the parsed row counter.
func AddRowsParsed(kind, mode string, n int) {
	if n <= 0 || !Enabled() {
		return
	}
	RowsParsed.WithLabelValues(kind, mode).Add(float64(n))
}

// TrackInFlight increments the in-flight gauge for path and returns the
// matching decrement. Both are no-ops when recording was off at the start.
func TrackInFlight(path string) func() {
	if !Enabled() {
		return func() {}
	}
	g := InFlight.WithLabelValues(path)
	g.Inc()
	return g.Dec
}
