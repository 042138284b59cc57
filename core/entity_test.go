package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendSignalFIFOEviction(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	state := NewEntityState("host-1", now)

	const maxSignals = 4
	for i := 0; i < 10; i++ {
		evicted := state.AppendSignal(Signal{
			EventID:    fmt.Sprintf("ev-%d", i),
			Timestamp:  now.Add(time.Duration(i) * time.Second),
			SignalType: "exec",
			Confidence: 0.5,
		}, maxSignals)
		if i < maxSignals {
			assert.Equal(t, 0, evicted)
		} else {
			assert.Equal(t, 1, evicted)
		}
		assert.LessOrEqual(t, len(state.Signals), maxSignals)
	}

	// Oldest evicted first: the survivors are the newest four.
	require.Len(t, state.Signals, maxSignals)
	for i, sig := range state.Signals {
		assert.Equal(t, fmt.Sprintf("ev-%d", 6+i), sig.EventID)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	state := NewEntityState("host-1", now)
	state.AppendSignal(Signal{EventID: "a", Timestamp: now, SignalType: "recon", Confidence: 0.6}, 8)

	snap := state.Snapshot()
	state.Signals[0].EventID = "mutated"
	state.CurrentStage = StageImpact

	assert.Equal(t, "a", snap.Signals[0].EventID)
	assert.Equal(t, StageUnknown, snap.CurrentStage)
}
