package correlate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"warden/config"
	"warden/core"
	"warden/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// AlertSink receives detection results in the order they are generated.
type AlertSink interface {
	Deliver(ctx context.Context, res *core.DetectionResult) error
}

// Engine is the correlation pipeline: guard, entity store, window manager,
// scorer, kill-chain machine and evidence bundler behind a single Process
// call. One Engine per process; all methods are safe for concurrent use.
type Engine struct {
	cfg     config.EngineConfig
	store   *EntityStore
	windows *WindowManager
	guard   *Guard
	scorer  *Scorer
	bundler *EvidenceBundler
	// dedup suppresses re-emission of a detection whose evidence is
	// byte-identical to one already emitted. Size-bounded, no TTL: eviction
	// driven only by insertion order keeps replay deterministic.
	dedup *lru.Cache[string, struct{}]
	sink  AlertSink

	// halted is a one-way latch. Once set there is no resume; only external
	// re-initialization brings correlation back.
	halted    atomic.Bool
	haltOnce  sync.Once
	haltCause *core.CorruptionError

	logger *zap.SugaredLogger

	maintMu     sync.Mutex
	maintCancel context.CancelFunc
	maintWg     sync.WaitGroup
}

// New builds an engine from validated configuration. sink may be nil when
// the caller consumes results from Process's return value only.
func New(cfg config.EngineConfig, sink AlertSink, logger *zap.SugaredLogger) (*Engine, error) {
	profiles := DefaultProfiles()
	if cfg.ProfilesPath != "" {
		loaded, err := LoadProfiles(cfg.ProfilesPath)
		if err != nil {
			return nil, err
		}
		profiles = loaded
	}
	scorer, err := NewScorer(cfg.MinConfidenceThreshold, profiles)
	if err != nil {
		return nil, err
	}
	dedup, err := lru.New[string, struct{}](cfg.DedupCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		store:   NewEntityStore(cfg.MaxEntities, cfg.LockWait(), logger),
		windows: NewWindowManager(cfg.Window()),
		guard:   NewGuard(cfg.TimestampTolerance(), cfg.MaxSignalsPerEntity),
		scorer:  scorer,
		bundler: &EvidenceBundler{},
		dedup:   dedup,
		sink:    sink,
		logger:  logger,
	}, nil
}

// Process runs one validated event through the pipeline.
//
// Returns (nil, nil) for the expected common case: event accepted, no
// detection emitted. Returns (res, nil) when a legal above-threshold stage
// transition produced a detection. Every failure is one of the typed errors
// in core; nothing resolves to a guessed alert.
func (e *Engine) Process(ctx context.Context, ev *core.ValidatedEvent) (*core.DetectionResult, error) {
	timer := prometheus.NewTimer(metrics.ProcessingDuration)
	defer timer.ObserveDuration()

	if e.halted.Load() {
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeHalted).Inc()
		return nil, &core.HaltedError{Cause: e.haltCause}
	}

	h, err := e.store.Acquire(ctx, ev.EntityID)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}
	defer h.Release()
	state := h.State()

	// Defense in depth: re-verify our own invariants before trusting the
	// slot. Corruption halts everything; a wrong verdict is worse than none.
	if cerr := e.guard.VerifyState(state); cerr != nil {
		e.halt(cerr)
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeHalted).Inc()
		return nil, &core.HaltedError{Cause: cerr}
	}

	if err := e.guard.Check(state, ev); err != nil {
		var ov *core.OrderingViolationError
		if errors.As(err, &ov) {
			metrics.OrderingViolations.WithLabelValues(string(ov.Reason)).Inc()
			e.logger.Debugw("dropped out-of-order event",
				"entity_id", ev.EntityID,
				"event_id", ev.EventID,
				"reason", ov.Reason)
		}
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeDropped).Inc()
		return nil, err
	}
	e.guard.Accept(state, ev)

	// A retransmitted event arrives with a bumped sequence but the same
	// event id. Re-appending it would double-count its confidence, so the
	// signal is recorded once; the retransmission still advances the
	// entity's bookkeeping above.
	if e.windowHasEvent(state, ev.EventID) {
		e.logger.Debugw("suppressed duplicate signal",
			"entity_id", ev.EntityID,
			"event_id", ev.EventID)
	} else if evicted := state.AppendSignal(core.SignalOf(ev), e.cfg.MaxSignalsPerEntity); evicted > 0 {
		metrics.SignalsEvicted.WithLabelValues("capacity").Add(float64(evicted))
	}

	window := e.windows.Window(state, ev.Timestamp)
	outcome := e.scorer.Score(window, state.CurrentStage)
	if !outcome.Emit {
		if outcome.Ambiguous {
			e.logger.Debugw("ambiguous correlation outcome, withholding alert",
				"entity_id", ev.EntityID,
				"event_id", ev.EventID)
		}
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeNoAlert).Inc()
		return nil, nil
	}

	if !core.CanTransition(state.CurrentStage, outcome.Stage) {
		metrics.TransitionsRejected.Inc()
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, &core.TransitionError{
			EntityID: ev.EntityID,
			From:     state.CurrentStage,
			To:       outcome.Stage,
		}
	}

	hash, err := e.bundler.Hash(ev.EntityID, outcome.Stage, window)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	state.CurrentStage = outcome.Stage

	dedupKey := ev.EntityID + "|" + outcome.Stage.String() + "|" + hash
	if _, seen := e.dedup.Get(dedupKey); seen {
		metrics.EventsProcessed.WithLabelValues(metrics.OutcomeNoAlert).Inc()
		return nil, nil
	}
	e.dedup.Add(dedupKey, struct{}{})

	res := core.NewDetectionResult(ev.EntityID, outcome.Stage, outcome.Confidence, outcome.SignalIDs, hash, ev.Timestamp)
	if e.sink != nil {
		if err := e.sink.Deliver(ctx, res); err != nil {
			e.logger.Warnw("alert sink delivery failed",
				"alert_id", res.AlertID,
				"entity_id", res.EntityID,
				"error", err)
		}
	}
	metrics.EventsProcessed.WithLabelValues(metrics.OutcomeAlert).Inc()
	metrics.AlertsGenerated.WithLabelValues(res.Stage.String()).Inc()
	e.logger.Infow("detection emitted",
		"alert_id", res.AlertID,
		"entity_id", res.EntityID,
		"stage", res.Stage,
		"confidence", res.Confidence,
		"signals", len(res.ContributingSignalIDs))
	return res, nil
}

func (e *Engine) windowHasEvent(state *core.EntityState, eventID string) bool {
	for i := range state.Signals {
		if state.Signals[i].EventID == eventID {
			return true
		}
	}
	return false
}

// halt trips the one-way latch. First corruption wins as the recorded cause.
func (e *Engine) halt(cause *core.CorruptionError) {
	e.haltOnce.Do(func() {
		e.haltCause = cause
		e.halted.Store(true)
		metrics.EngineHalted.Set(1)
		e.logger.Errorw("state corruption detected, halting engine",
			"entity_id", cause.EntityID,
			"check", cause.Check,
			"observed", cause.Observed,
			"limit", cause.Limit)
	})
}

// Halted reports whether the engine has latched into the halted state.
func (e *Engine) Halted() bool { return e.halted.Load() }

// HaltCause returns the corruption that tripped the latch, nil if running.
func (e *Engine) HaltCause() *core.CorruptionError {
	if !e.halted.Load() {
		return nil
	}
	return e.haltCause
}

// EngineStats summarizes the engine for observability surfaces.
type EngineStats struct {
	Entities     int
	TotalSignals int
	Halted       bool
}

// Stats returns advisory counters about engine state.
func (e *Engine) Stats() EngineStats {
	st := e.store.Stats()
	return EngineStats{
		Entities:     st.Entities,
		TotalSignals: st.TotalSignals,
		Halted:       e.halted.Load(),
	}
}

// Snapshot returns a copy of one entity's state for cross-entity consumers.
func (e *Engine) Snapshot(ctx context.Context, entityID string) (core.EntityState, bool, error) {
	return e.store.Snapshot(ctx, entityID)
}
