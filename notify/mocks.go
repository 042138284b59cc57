package notify

import (
	"context"
	"sync"

	"warden/core"
)

// CaptureSink records every delivered detection for assertions in tests.
type CaptureSink struct {
	mu      sync.Mutex
	results []*core.DetectionResult
	err     error
}

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// FailWith makes subsequent deliveries return err.
func (s *CaptureSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Deliver records the detection.
func (s *CaptureSink) Deliver(_ context.Context, res *core.DetectionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, res)
	return nil
}

// Results returns a copy of everything delivered so far, in order.
func (s *CaptureSink) Results() []*core.DetectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.DetectionResult, len(s.results))
	copy(out, s.results)
	return out
}
