package correlate

import (
	"time"

	"warden/core"
)

// Guard gates every incoming event before it touches entity state and
// re-verifies the engine's own structural invariants as defense in depth.
type Guard struct {
	tolerance  time.Duration
	maxSignals int
}

// NewGuard creates a guard with the configured timestamp regression
// tolerance and per-entity signal ceiling.
func NewGuard(tolerance time.Duration, maxSignals int) *Guard {
	return &Guard{tolerance: tolerance, maxSignals: maxSignals}
}

// Check validates ev against the entity's last accepted (sequence,
// timestamp). A violation means the event is dropped: not queued, not
// retried, zero effect on state. A fresh entity (nothing accepted yet)
// admits any starting sequence.
func (g *Guard) Check(state *core.EntityState, ev *core.ValidatedEvent) error {
	if state.LastTimestamp.IsZero() && state.LastSequence == 0 {
		return nil
	}

	if ev.Sequence <= state.LastSequence {
		return &core.OrderingViolationError{
			EntityID:     state.EntityID,
			Reason:       core.OrderingReasonSequence,
			LastSequence: state.LastSequence,
			GotSequence:  ev.Sequence,
		}
	}
	if state.LastTimestamp.Sub(ev.Timestamp) > g.tolerance {
		return &core.OrderingViolationError{
			EntityID:      state.EntityID,
			Reason:        core.OrderingReasonTimestamp,
			LastSequence:  state.LastSequence,
			GotSequence:   ev.Sequence,
			LastTimestamp: state.LastTimestamp,
			GotTimestamp:  ev.Timestamp,
		}
	}
	return nil
}

// Accept records ev in the guard's bookkeeping. Called only after Check
// passes; last_sequence and last_timestamp never decrease.
func (g *Guard) Accept(state *core.EntityState, ev *core.ValidatedEvent) {
	state.LastSequence = ev.Sequence
	if ev.Timestamp.After(state.LastTimestamp) {
		state.LastTimestamp = ev.Timestamp
	}
	state.UpdatedAt = time.Now().UTC()
}

// VerifyState checks the entity state's structural invariants. A non-nil
// result is state corruption: the caller must halt the entire engine, since
// an inconsistent store can no longer be trusted to produce verdicts.
func (g *Guard) VerifyState(state *core.EntityState) *core.CorruptionError {
	if len(state.Signals) > g.maxSignals {
		return &core.CorruptionError{
			EntityID: state.EntityID,
			Check:    core.CorruptionSignalOverflow,
			Observed: len(state.Signals),
			Limit:    g.maxSignals,
		}
	}
	if !state.CurrentStage.IsValid() {
		return &core.CorruptionError{
			EntityID: state.EntityID,
			Check:    core.CorruptionInvalidStage,
		}
	}
	for i := range state.Signals {
		if !state.Signals[i].Confidence.Valid() {
			return &core.CorruptionError{
				EntityID: state.EntityID,
				Check:    core.CorruptionInvalidScore,
				Observed: i,
			}
		}
		// The guard only ever admits timestamp regressions within tolerance,
		// so stored signals further out of order than that were not written
		// by this pipeline.
		if i > 0 && state.Signals[i-1].Timestamp.Sub(state.Signals[i].Timestamp) > g.tolerance {
			return &core.CorruptionError{
				EntityID: state.EntityID,
				Check:    core.CorruptionUnorderedWindow,
				Observed: i,
			}
		}
	}
	return nil
}
