package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageValidity(t *testing.T) {
	for _, s := range Stages() {
		assert.True(t, s.IsValid(), "stage %s should be valid", s)
	}
	assert.False(t, Stage("lateral-movement").IsValid())
	assert.False(t, Stage("").IsValid())
	assert.Equal(t, -1, Stage("bogus").Rank())
}

func TestForwardTransitionsAreLegal(t *testing.T) {
	assert.True(t, CanTransition(StageUnknown, StageReconnaissance))
	assert.True(t, CanTransition(StageUnknown, StageImpact))
	assert.True(t, CanTransition(StageReconnaissance, StageExecution))
	assert.True(t, CanTransition(StageExecution, StageExfiltration))
	assert.True(t, CanTransition(StageExfiltration, StageImpact))
}

func TestSameStageReentryIsLegal(t *testing.T) {
	for _, s := range Stages() {
		assert.True(t, CanTransition(s, s), "re-confirmation of %s should be legal", s)
	}
}

func TestBackwardTransitionsAreRejected(t *testing.T) {
	assert.False(t, CanTransition(StageImpact, StageReconnaissance))
	assert.False(t, CanTransition(StageExecution, StageInitialAccess))
	assert.False(t, CanTransition(StageReconnaissance, StageUnknown))
}

func TestImpactHasNoEscalation(t *testing.T) {
	for _, s := range Stages() {
		if s == StageImpact {
			continue
		}
		assert.False(t, CanTransition(StageImpact, s), "Impact -> %s should be illegal", s)
	}
	assert.True(t, CanTransition(StageImpact, StageImpact))
}

func TestTransitionTableMatchesRankOrder(t *testing.T) {
	// Exhaustive pair scan: legality is exactly re-confirmation or a
	// strictly forward move.
	for _, from := range Stages() {
		for _, to := range Stages() {
			want := from == to || to.Rank() > from.Rank()
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionWithInvalidStage(t *testing.T) {
	assert.False(t, CanTransition(Stage("bogus"), StageImpact))
	assert.False(t, CanTransition(StageUnknown, Stage("bogus")))
}
