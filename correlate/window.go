package correlate

import (
	"time"

	"warden/core"
	"warden/metrics"
)

// WindowManager answers "which of this entity's signals fall inside the
// active correlation window as of time now". Expired signals are evicted
// from the backing state lazily, as a side effect of the query; no separate
// sweep is required for window hygiene.
type WindowManager struct {
	window time.Duration
}

// NewWindowManager creates a manager for the configured temporal window.
func NewWindowManager(window time.Duration) *WindowManager {
	return &WindowManager{window: window}
}

// Window returns the signals with timestamp >= now - window, oldest first.
// The result is a fresh copy: callers may re-query with any now and get a
// consistent recomputed view, there is no shared cursor. Must be called
// under the entity's exclusive-access handle.
func (w *WindowManager) Window(state *core.EntityState, now time.Time) []core.Signal {
	cutoff := now.Add(-w.window)

	// Signals are near-sorted (the guard admits regressions only within
	// tolerance), so expired entries cluster at the front. Trim that prefix
	// from the backing store.
	drop := 0
	for drop < len(state.Signals) && state.Signals[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		state.Signals = append(state.Signals[:0], state.Signals[drop:]...)
		metrics.SignalsEvicted.WithLabelValues("expired").Add(float64(drop))
	}

	// A straggler behind an in-tolerance regression can survive the prefix
	// trim; filter the view so the window contract holds regardless.
	out := make([]core.Signal, 0, len(state.Signals))
	for _, sig := range state.Signals {
		if !sig.Timestamp.Before(cutoff) {
			out = append(out, sig)
		}
	}
	return out
}
