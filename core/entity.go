package core

import (
	"time"
)

// EntityState is the accumulated correlation state for one entity (host,
// user, process lineage). It is owned by the entity store and mutated only
// under that entity's exclusive-access handle.
type EntityState struct {
	EntityID      string    `json:"entity_id"`
	Signals       []Signal  `json:"signals"`
	CurrentStage  Stage     `json:"current_stage"`
	LastSequence  uint64    `json:"last_sequence"`
	LastTimestamp time.Time `json:"last_timestamp"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewEntityState returns the zero state for a freshly observed entity.
func NewEntityState(entityID string, now time.Time) *EntityState {
	return &EntityState{
		EntityID:     entityID,
		Signals:      make([]Signal, 0, 8),
		CurrentStage: StageUnknown,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendSignal appends sig to the bounded signal sequence, evicting the
// oldest signals first when the sequence is at maxSignals. Returns the
// number of signals evicted to make room.
func (s *EntityState) AppendSignal(sig Signal, maxSignals int) int {
	evicted := 0
	if maxSignals > 0 && len(s.Signals) >= maxSignals {
		drop := len(s.Signals) - maxSignals + 1
		s.Signals = append(s.Signals[:0], s.Signals[drop:]...)
		evicted = drop
	}
	s.Signals = append(s.Signals, sig)
	return evicted
}

// Snapshot returns a deep copy of the state. Cross-entity consumers read
// snapshots instead of holding multiple entity locks; staleness is
// acceptable because correlation output is advisory.
func (s *EntityState) Snapshot() EntityState {
	cp := *s
	cp.Signals = make([]Signal, len(s.Signals))
	copy(cp.Signals, s.Signals)
	return cp
}
