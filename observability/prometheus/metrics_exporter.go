package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-platform-strategy/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	queueDepth          *prom.GaugeVec

	barrierResetTotal   *prom.CounterVec
	barrierRequired     *prom.GaugeVec
	barrierSignalTotal  *prom.CounterVec
	barrierReleaseTotal *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "platformstrategy"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Work item execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"dispatcher"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of work item panics.",
	}, []string{"dispatcher"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected work items.",
	}, []string{"dispatcher", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current dispatcher queue depth.",
	}, []string{"dispatcher"})
	resetVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "barrier_reset_total",
		Help:      "Total number of barrier generations opened.",
	}, []string{"barrier"})
	requiredVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "barrier_required",
		Help:      "Signals required by the current barrier generation.",
	}, []string{"barrier"})
	signalVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "barrier_signal_total",
		Help:      "Total number of barrier signals by result.",
	}, []string{"barrier", "result"})
	releaseVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "barrier_release_total",
		Help:      "Total number of released barrier generations.",
	}, []string{"barrier"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if resetVec, err = registerCollector(reg, resetVec); err != nil {
		return nil, err
	}
	if requiredVec, err = registerCollector(reg, requiredVec); err != nil {
		return nil, err
	}
	if signalVec, err = registerCollector(reg, signalVec); err != nil {
		return nil, err
	}
	if releaseVec, err = registerCollector(reg, releaseVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		queueDepth:          queueDepthVec,
		barrierResetTotal:   resetVec,
		barrierRequired:     requiredVec,
		barrierSignalTotal:  signalVec,
		barrierReleaseTotal: releaseVec,
	}, nil
}

// RecordTaskDuration records work item execution duration.
func (m *MetricsExporter) RecordTaskDuration(dispatcherName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(dispatcherName, "unknown")).Observe(duration.Seconds())
}

// RecordTaskPanic records work item panics.
func (m *MetricsExporter) RecordTaskPanic(dispatcherName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(dispatcherName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(dispatcherName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(dispatcherName, "unknown")).Set(float64(depth))
}

// RecordTaskRejected records rejected work items.
func (m *MetricsExporter) RecordTaskRejected(dispatcherName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(dispatcherName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordBarrierReset records a new generation.
func (m *MetricsExporter) RecordBarrierReset(barrierName string, n int) {
	if m == nil {
		return
	}
	name := normalizeLabel(barrierName, "unknown")
	m.barrierResetTotal.WithLabelValues(name).Inc()
	m.barrierRequired.WithLabelValues(name).Set(float64(n))
}

// RecordBarrierSignal records one signal by result.
func (m *MetricsExporter) RecordBarrierSignal(barrierName string, result core.SignalResult) {
	if m == nil {
		return
	}
	m.barrierSignalTotal.WithLabelValues(normalizeLabel(barrierName, "unknown"), normalizeLabel(string(result), "unknown")).Inc()
}

// RecordBarrierRelease records a released generation.
func (m *MetricsExporter) RecordBarrierRelease(barrierName string) {
	if m == nil {
		return
	}
	m.barrierReleaseTotal.WithLabelValues(normalizeLabel(barrierName, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
