package correlate

import (
	"errors"
	"testing"
	"time"

	"warden/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guardBase = time.Unix(1700000000, 0).UTC()

func guardEvent(seq uint64, at time.Time) *core.ValidatedEvent {
	return &core.ValidatedEvent{
		EventID:    "ev",
		EntityID:   "host-1",
		Timestamp:  at,
		Sequence:   seq,
		SignalType: "exec",
		Confidence: 0.5,
	}
}

func TestGuardAcceptsFreshEntityAtAnySequence(t *testing.T) {
	g := NewGuard(2*time.Second, 16)
	state := core.NewEntityState("host-1", guardBase)

	assert.NoError(t, g.Check(state, guardEvent(41, guardBase)))
}

func TestGuardMonotoneStreamNeverViolates(t *testing.T) {
	g := NewGuard(2*time.Second, 16)
	state := core.NewEntityState("host-1", guardBase)

	for i := uint64(1); i <= 50; i++ {
		ev := guardEvent(i, guardBase.Add(time.Duration(i)*time.Second))
		require.NoError(t, g.Check(state, ev))
		g.Accept(state, ev)
	}
	assert.Equal(t, uint64(50), state.LastSequence)
}

func TestGuardSequenceRegression(t *testing.T) {
	g := NewGuard(2*time.Second, 16)
	state := core.NewEntityState("host-1", guardBase)

	first := guardEvent(5, guardBase)
	require.NoError(t, g.Check(state, first))
	g.Accept(state, first)

	for _, seq := range []uint64{1, 4, 5} {
		err := g.Check(state, guardEvent(seq, guardBase.Add(time.Minute)))
		require.Error(t, err)
		var ov *core.OrderingViolationError
		require.True(t, errors.As(err, &ov))
		assert.Equal(t, core.OrderingReasonSequence, ov.Reason)
		assert.Equal(t, uint64(5), ov.LastSequence)
	}
	// The rejected events had zero effect on bookkeeping.
	assert.Equal(t, uint64(5), state.LastSequence)
	assert.True(t, state.LastTimestamp.Equal(guardBase))
}

func TestGuardTimestampTolerance(t *testing.T) {
	g := NewGuard(2*time.Second, 16)
	state := core.NewEntityState("host-1", guardBase)

	first := guardEvent(1, guardBase)
	require.NoError(t, g.Check(state, first))
	g.Accept(state, first)

	// Within tolerance: a 2s regression is admitted.
	within := guardEvent(2, guardBase.Add(-2*time.Second))
	assert.NoError(t, g.Check(state, within))
	g.Accept(state, within)

	// last_timestamp never decreased.
	assert.True(t, state.LastTimestamp.Equal(guardBase))

	// Beyond tolerance: dropped.
	beyond := guardEvent(3, guardBase.Add(-2*time.Second-time.Millisecond))
	err := g.Check(state, beyond)
	require.Error(t, err)
	var ov *core.OrderingViolationError
	require.True(t, errors.As(err, &ov))
	assert.Equal(t, core.OrderingReasonTimestamp, ov.Reason)
}

func TestGuardVerifyState(t *testing.T) {
	g := NewGuard(2*time.Second, 2)

	t.Run("clean state passes", func(t *testing.T) {
		state := core.NewEntityState("host-1", guardBase)
		state.AppendSignal(core.Signal{EventID: "a", Timestamp: guardBase, SignalType: "exec", Confidence: 0.5}, 2)
		assert.Nil(t, g.VerifyState(state))
	})

	t.Run("signal overflow", func(t *testing.T) {
		state := core.NewEntityState("host-1", guardBase)
		state.Signals = make([]core.Signal, 3)
		cerr := g.VerifyState(state)
		require.NotNil(t, cerr)
		assert.Equal(t, core.CorruptionSignalOverflow, cerr.Check)
		assert.Equal(t, 3, cerr.Observed)
		assert.Equal(t, 2, cerr.Limit)
	})

	t.Run("invalid stage", func(t *testing.T) {
		state := core.NewEntityState("host-1", guardBase)
		state.CurrentStage = core.Stage("bogus")
		cerr := g.VerifyState(state)
		require.NotNil(t, cerr)
		assert.Equal(t, core.CorruptionInvalidStage, cerr.Check)
	})

	t.Run("invalid stored confidence", func(t *testing.T) {
		state := core.NewEntityState("host-1", guardBase)
		state.Signals = []core.Signal{{EventID: "a", Timestamp: guardBase, Confidence: 1.5}}
		cerr := g.VerifyState(state)
		require.NotNil(t, cerr)
		assert.Equal(t, core.CorruptionInvalidScore, cerr.Check)
	})

	t.Run("window disorder beyond tolerance", func(t *testing.T) {
		state := core.NewEntityState("host-1", guardBase)
		state.Signals = []core.Signal{
			{EventID: "a", Timestamp: guardBase, Confidence: 0.5},
			{EventID: "b", Timestamp: guardBase.Add(-time.Minute), Confidence: 0.5},
		}
		cerr := g.VerifyState(state)
		require.NotNil(t, cerr)
		assert.Equal(t, core.CorruptionUnorderedWindow, cerr.Check)
	})
}
