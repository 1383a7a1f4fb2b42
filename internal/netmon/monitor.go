package netmon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/state"
)

const (
	// DefaultProbeInterval is the gap between reachability probes.
	DefaultProbeInterval = 12 * time.Second
	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 5 * time.Second
)

var (
	// ErrSourceUnavailable is returned by an EventSource that cannot deliver
	// connectivity events in this environment.
	ErrSourceUnavailable = errors.New("connectivity event source unavailable")
	// ErrAlreadyStarted is returned by a second Start call.
	ErrAlreadyStarted = errors.New("network monitor already started")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("network monitor stopped")
	// ErrNoStrategy is returned by Start when neither an event source nor a
	// prober can be used.
	ErrNoStrategy = errors.New("network monitor has no event source or prober")
)

// Event is one connectivity change notification. Reachable is nil when the
// source cannot tell.
type Event struct {
	Connected bool
	Reachable *bool
}

// Online reports whether the event means the backend can be reached.
func (e Event) Online() bool {
	return e.Connected && (e.Reachable == nil || *e.Reachable)
}

// EventSource pushes connectivity changes. The returned cancel function
// unsubscribes and must not return until no further callbacks will run.
type EventSource interface {
	Subscribe(ctx context.Context, fn func(Event)) (cancel func(), err error)
}

// Prober performs one reachability check. A nil error means reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Strategy names how the monitor learns about connectivity.
type Strategy string

const (
	StrategyNone    Strategy = "none"
	StrategyEvents  Strategy = "events"
	StrategyPolling Strategy = "polling"
)

// Dispatcher receives SET_OFFLINE actions.
type Dispatcher interface {
	Dispatch(state.Action)
}

// Options configures a Monitor.
type Options struct {
	Source   EventSource
	Prober   Prober
	Interval time.Duration
	Timeout  time.Duration
	Logger   *logrus.Entry
}

// Monitor is the only writer of the store's offline flag. It forwards a
// connectivity reading only when it differs from the last one dispatched.
type Monitor struct {
	store Dispatcher
	opts  Options
	log   *logrus.Entry

	mu          sync.Mutex
	started     bool
	stopped     bool
	strategy    Strategy
	lastOffline *bool
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// New builds a Monitor writing to store. Zero durations take the defaults.
func New(store Dispatcher, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultProbeInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultProbeTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Monitor{
		store:    store,
		opts:     opts,
		log:      log.WithField("component", "netmon"),
		strategy: StrategyNone,
	}
}

// Start picks the strategy once: the event source when it subscribes, else
// polling with the prober. It returns ErrAlreadyStarted on a second call.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	if m.opts.Source != nil {
		unsubscribe, err := m.opts.Source.Subscribe(runCtx, func(e Event) {
			m.Observe(e.Online())
		})
		if err == nil {
			m.mu.Lock()
			m.strategy = StrategyEvents
			m.unsubscribe = unsubscribe
			stopped := m.stopped
			m.mu.Unlock()
			if stopped {
				unsubscribe()
			}
			m.log.Info("network monitor subscribed to connectivity events")
			return nil
		}
		if errors.Is(err, ErrSourceUnavailable) {
			m.log.WithError(err).Info("connectivity events unavailable, falling back to probing")
		} else {
			m.log.WithError(err).Warn("connectivity subscription failed, falling back to probing")
		}
	}

	if m.opts.Prober == nil {
		cancel()
		return fmt.Errorf("start network monitor: %w", ErrNoStrategy)
	}

	m.mu.Lock()
	m.strategy = StrategyPolling
	m.wg.Add(1)
	m.mu.Unlock()
	go m.poll(runCtx)
	m.log.WithField("interval", m.opts.Interval).Info("network monitor polling")
	return nil
}

// Stop unsubscribes or stops polling and waits for the monitor goroutine.
// Observations after Stop are ignored. Stop is idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	cancel, unsubscribe := m.cancel, m.unsubscribe
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	m.wg.Wait()
}

// Strategy reports the strategy chosen by Start.
func (m *Monitor) Strategy() Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// Observe records a connectivity reading and dispatches SET_OFFLINE when the
// value changed. It is also the network-status callback for API failures.
func (m *Monitor) Observe(online bool) {
	offline := !online
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.lastOffline != nil && *m.lastOffline == offline {
		return
	}
	m.lastOffline = &offline
	m.log.WithField("offline", offline).Info("connectivity changed")
	m.store.Dispatch(state.SetOffline(offline))
}

func (m *Monitor) poll(ctx context.Context) {
	defer m.wg.Done()

	m.probe(ctx)
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe runs one bounded reachability check. Errors, timeouts and panics all
// count as offline.
func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	err := m.safeProbe(probeCtx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.log.WithError(err).Debug("reachability probe failed")
	}
	m.Observe(err == nil)
}

func (m *Monitor) safeProbe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return m.opts.Prober.Probe(ctx)
}
