// Package notify carries detection results across the output boundary to
// the policy collaborator. Sinks preserve generation order; delivery of an
// alert is never reordered relative to an earlier one from the same engine.
package notify

import (
	"context"
	"errors"
	"sync"

	"warden/core"

	"go.uber.org/zap"
)

// Sink receives detection results in generation order.
type Sink interface {
	Deliver(ctx context.Context, res *core.DetectionResult) error
}

// ErrSinkClosed is returned when delivering to a closed channel sink.
var ErrSinkClosed = errors.New("alert sink is closed")

// LogSink writes each detection to the structured log. Useful as a terminal
// consumer in deployments where the policy pipeline is attached elsewhere.
type LogSink struct {
	logger *zap.SugaredLogger
}

// NewLogSink creates a sink that logs detections at info level.
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the detection.
func (s *LogSink) Deliver(_ context.Context, res *core.DetectionResult) error {
	s.logger.Infow("alert",
		"alert_id", res.AlertID,
		"entity_id", res.EntityID,
		"stage", res.Stage,
		"confidence", res.Confidence,
		"evidence_hash", res.EvidenceHash,
		"signals", len(res.ContributingSignalIDs))
	return nil
}

// ChannelSink hands detections to a consumer over a bounded channel. A full
// buffer blocks delivery until the consumer catches up or ctx is done:
// backpressure instead of silent drops.
type ChannelSink struct {
	ch        chan *core.DetectionResult
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSink creates a sink buffering up to size detections.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{
		ch:   make(chan *core.DetectionResult, size),
		done: make(chan struct{}),
	}
}

// Deliver enqueues the detection, blocking on a full buffer.
func (s *ChannelSink) Deliver(ctx context.Context, res *core.DetectionResult) error {
	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}
	select {
	case s.ch <- res:
		return nil
	case <-s.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results exposes the consumer side of the sink. Consumers should select on
// Done alongside the result channel; the channel itself is never closed.
func (s *ChannelSink) Results() <-chan *core.DetectionResult {
	return s.ch
}

// Done is closed when the sink is closed.
func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}

// Close stops the sink. Already-buffered results remain readable.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// MultiSink delivers to each sink in order, stopping at the first failure.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink fans detections out to sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Deliver forwards to every sink in order.
func (s *MultiSink) Deliver(ctx context.Context, res *core.DetectionResult) error {
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
