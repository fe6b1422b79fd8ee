package cloudsync

import (
	"context"
	"time"
)

// DefaultAutoSyncInterval is used when StartAutoSync gets a non-positive
// interval.
const DefaultAutoSyncInterval = 5 * time.Minute

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Scheduler creates tickers. Tests substitute a manual implementation.
type Scheduler interface {
	NewTicker(d time.Duration) Ticker
}

type realScheduler struct{}

func (realScheduler) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type autoSync struct {
	ticker Ticker
	stop   chan struct{}
}

// StartAutoSync runs Sync on every tick while the remote is authenticated.
// A previous timer is replaced. The loop also ends when ctx is done.
func (e *Engine) StartAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutoSyncInterval
	}

	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	e.stopAutoLocked()

	a := &autoSync{ticker: e.sched.NewTicker(interval), stop: make(chan struct{})}
	e.auto = a
	e.log.Info(ctx, "auto sync started", "interval", interval)

	go func() {
		for {
			select {
			case <-a.stop:
				return
			case <-ctx.Done():
				return
			case <-a.ticker.C():
				if !e.authenticated() {
					continue
				}
				res := e.Sync(ctx)
				if e.onAutoSync != nil {
					e.onAutoSync(res)
				}
			}
		}
	}()
}

// StopAutoSync cancels future ticks. A run already in flight completes.
func (e *Engine) StopAutoSync() {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.auto != nil {
		e.log.Info(context.Background(), "auto sync stopped")
	}
	e.stopAutoLocked()
}

// AutoSyncRunning reports whether a timer is active.
func (e *Engine) AutoSyncRunning() bool {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	return e.auto != nil
}

func (e *Engine) stopAutoLocked() {
	if e.auto == nil {
		return
	}
	e.auto.ticker.Stop()
	close(e.auto.stop)
	e.auto = nil
}
