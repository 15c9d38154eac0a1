package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-platform-strategy/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DispatcherSnapshotProvider provides current dispatcher stats snapshots.
type DispatcherSnapshotProvider interface {
	Stats() core.DispatcherStats
}

// BarrierSnapshotProvider provides current barrier stats snapshots.
type BarrierSnapshotProvider interface {
	Stats() core.BarrierStats
}

// SnapshotPoller periodically exports dispatcher/barrier Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	dispatchersMu sync.RWMutex
	dispatchers   map[string]DispatcherSnapshotProvider

	barriersMu sync.RWMutex
	barriers   map[string]BarrierSnapshotProvider

	dispatcherPending  *prom.GaugeVec
	dispatcherExecuted *prom.GaugeVec
	dispatcherRejected *prom.GaugeVec
	dispatcherClosed   *prom.GaugeVec

	barrierGeneration *prom.GaugeVec
	barrierRemaining  *prom.GaugeVec
	barrierWaiters    *prom.GaugeVec
	barrierReleased   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "platformstrategy",
			Name:      name,
			Help:      help,
		}, labels)
	}

	p := &SnapshotPoller{
		interval:           interval,
		dispatchers:        make(map[string]DispatcherSnapshotProvider),
		barriers:           make(map[string]BarrierSnapshotProvider),
		dispatcherPending:  gauge("dispatcher_pending", "Number of queued work items per dispatcher.", "dispatcher"),
		dispatcherExecuted: gauge("dispatcher_executed", "Work items executed per dispatcher.", "dispatcher"),
		dispatcherRejected: gauge("dispatcher_rejected", "Dispatcher rejected work item count snapshot.", "dispatcher"),
		dispatcherClosed:   gauge("dispatcher_closed", "Dispatcher closed state (1=closed, 0=open).", "dispatcher"),
		barrierGeneration:  gauge("barrier_generation", "Current barrier generation (0=never reset).", "barrier"),
		barrierRemaining:   gauge("barrier_remaining", "Signals still required by the current generation.", "barrier"),
		barrierWaiters:     gauge("barrier_waiters", "Goroutines blocked in Await.", "barrier"),
		barrierReleased:    gauge("barrier_released", "Current generation released (1=released, 0=open).", "barrier"),
	}

	for _, vec := range []**prom.GaugeVec{
		&p.dispatcherPending, &p.dispatcherExecuted, &p.dispatcherRejected, &p.dispatcherClosed,
		&p.barrierGeneration, &p.barrierRemaining, &p.barrierWaiters, &p.barrierReleased,
	} {
		registered, err := registerCollector(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = registered
	}

	return p, nil
}

// AddDispatcher adds or replaces a dispatcher snapshot provider by name.
func (p *SnapshotPoller) AddDispatcher(name string, provider DispatcherSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "dispatcher")
	p.dispatchersMu.Lock()
	p.dispatchers[name] = provider
	p.dispatchersMu.Unlock()
}

// AddBarrier adds or replaces a barrier snapshot provider by name.
func (p *SnapshotPoller) AddBarrier(name string, provider BarrierSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "barrier")
	p.barriersMu.Lock()
	p.barriers[name] = provider
	p.barriersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx, p.done)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.CollectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CollectOnce()
		}
	}
}

// CollectOnce exports one snapshot of every registered provider.
func (p *SnapshotPoller) CollectOnce() {
	p.dispatchersMu.RLock()
	for name, provider := range p.dispatchers {
		stats := provider.Stats()
		p.dispatcherPending.WithLabelValues(name).Set(float64(stats.Pending))
		p.dispatcherExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.dispatcherRejected.WithLabelValues(name).Set(float64(stats.Rejected))
		p.dispatcherClosed.WithLabelValues(name).Set(boolGauge(stats.Closed))
	}
	p.dispatchersMu.RUnlock()

	p.barriersMu.RLock()
	for name, provider := range p.barriers {
		stats := provider.Stats()
		p.barrierGeneration.WithLabelValues(name).Set(float64(stats.Generation))
		p.barrierRemaining.WithLabelValues(name).Set(float64(stats.Remaining))
		p.barrierWaiters.WithLabelValues(name).Set(float64(stats.Waiters))
		p.barrierReleased.WithLabelValues(name).Set(boolGauge(stats.Released))
	}
	p.barriersMu.RUnlock()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
