package correlate

import (
	"warden/core"
)

// Outcome is the scoring verdict for one window evaluation. Emit is false
// for the common cases: empty window, sub-threshold confidence, or an
// ambiguous tie between candidate stages. None of those are errors, and
// ambiguity never degrades into a best guess.
type Outcome struct {
	Stage      core.Stage
	Confidence core.Confidence
	SignalIDs  []string
	Emit       bool
	Ambiguous  bool
}

// Scorer turns a window of signals into a candidate stage and confidence.
// Score is a pure function of its inputs: no randomness, no clock reads, so
// replaying an identical window reproduces the identical outcome.
type Scorer struct {
	threshold core.Confidence
	profiles  ProfileSet
}

// NewScorer builds a scorer. The threshold must already be a valid
// confidence; configuration validation guarantees that before startup.
func NewScorer(threshold float64, profiles ProfileSet) (*Scorer, error) {
	t, err := core.NewConfidence(threshold)
	if err != nil {
		return nil, err
	}
	return &Scorer{threshold: t, profiles: profiles}, nil
}

// Score aggregates per-signal confidences into per-stage scores with a
// weighted noisy-OR: score(stage) = 1 - Π(1 - weight·confidence) over the
// stage's signals. The combination is monotonic (a corroborating signal
// never lowers a stage's score) and idempotent for an identical window.
//
// The candidate is the highest-scoring stage, iterated in kill-chain order
// for determinism. An exact tie between distinct stages is ambiguous and
// yields no candidate. The current stage does not bias scoring; transition
// legality is the state machine's concern, not the scorer's.
func (s *Scorer) Score(window []core.Signal, current core.Stage) Outcome {
	if len(window) == 0 {
		return Outcome{}
	}

	// remaining[stage] = Π(1 - weight·confidence)
	remaining := make(map[core.Stage]float64)
	for _, sig := range window {
		p, ok := s.profiles[sig.SignalType]
		if !ok {
			continue
		}
		contrib := p.Weight * sig.Confidence.Float64()
		if r, ok := remaining[p.Stage]; ok {
			remaining[p.Stage] = r * (1 - contrib)
		} else {
			remaining[p.Stage] = 1 - contrib
		}
	}
	if len(remaining) == 0 {
		return Outcome{}
	}

	var (
		best      core.Stage
		bestScore float64
		tied      bool
	)
	for _, stage := range core.Stages() {
		r, ok := remaining[stage]
		if !ok {
			continue
		}
		score := 1 - r
		switch {
		case best == "" || score > bestScore:
			best = stage
			bestScore = score
			tied = false
		case score == bestScore:
			tied = true
		}
	}

	if tied {
		return Outcome{Ambiguous: true}
	}
	confidence := core.ClampConfidence(bestScore)
	if confidence < s.threshold {
		return Outcome{}
	}

	ids := make([]string, len(window))
	for i, sig := range window {
		ids[i] = sig.EventID
	}
	return Outcome{
		Stage:      best,
		Confidence: confidence,
		SignalIDs:  ids,
		Emit:       true,
	}
}
