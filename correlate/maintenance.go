package correlate

import (
	"context"
	"time"

	"warden/util/goroutine"

	"golang.org/x/time/rate"
)

const (
	minSweepInterval = 30 * time.Second
	// sweepScanRate paces the TTL sweep so a large table cannot starve
	// event processing of the store lock.
	sweepScanRate  = rate.Limit(5000)
	sweepScanBurst = 500
)

// StartMaintenance launches the background TTL sweep that reclaims idle
// entities. The sweep runs at half the entity TTL, never more often than
// every 30 seconds, and stops when ctx is cancelled or StopMaintenance is
// called.
func (e *Engine) StartMaintenance(ctx context.Context) {
	e.maintMu.Lock()
	defer e.maintMu.Unlock()
	if e.maintCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.maintCancel = cancel

	interval := e.cfg.EntityTTL() / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	limiter := rate.NewLimiter(sweepScanRate, sweepScanBurst)

	ticker := time.NewTicker(interval)
	e.maintWg.Add(1)
	go func() {
		defer e.maintWg.Done()
		defer goroutine.Recover("entity-ttl-sweep", e.logger)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				evicted := e.store.EvictStale(ctx, time.Now().UTC(), e.cfg.EntityTTL(), limiter)
				if evicted > 0 {
					e.logger.Debugw("maintenance sweep finished",
						"evicted", evicted,
						"entities", e.store.Len())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopMaintenance stops the sweep and waits for it to finish, bounded so
// shutdown can never hang on maintenance.
func (e *Engine) StopMaintenance() {
	e.maintMu.Lock()
	cancel := e.maintCancel
	e.maintCancel = nil
	e.maintMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		e.maintWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.logger.Warn("entity-ttl-sweep goroutine did not stop within 5s")
	}
}
