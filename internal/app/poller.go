package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/orders"
	"github.com/five82/courier/internal/state"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// Refresher reloads the rider's assigned orders.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Snapshotter exposes the current state tree.
type Snapshotter interface {
	Snapshot() state.State
}

// Poller refreshes orders at a fixed cadence and backs off while the backend
// keeps failing.
type Poller struct {
	orders   Refresher
	store    Snapshotter
	interval time.Duration
	log      *logrus.Entry
	failures int
}

// NewPoller builds a Poller. A non-positive interval uses the default.
func NewPoller(orders Refresher, store Snapshotter, interval time.Duration, log *logrus.Entry) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Poller{
		orders:   orders,
		store:    store,
		interval: interval,
		log:      log.WithField("component", "poller"),
	}
}

// Run polls until ctx is cancelled. It always returns nil.
func (p *Poller) Run(ctx context.Context) error {
	for {
		wait := p.tick(ctx)
		if ctx.Err() != nil {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// tick runs one refresh and returns the delay before the next one.
func (p *Poller) tick(ctx context.Context) time.Duration {
	snap := p.store.Snapshot()
	if !snap.Auth.LoggedIn || snap.Network.IsOffline {
		return p.interval
	}

	err := p.orders.Refresh(ctx)
	switch {
	case err == nil, errors.Is(err, orders.ErrStale):
		p.failures = 0
	case errors.Is(err, orders.ErrOffline), errors.Is(err, context.Canceled):
	default:
		p.failures++
		p.log.WithError(err).WithField("failures", p.failures).Warn("order poll failed")
	}
	return calculateBackoff(p.failures, p.interval)
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
