package core

import (
	"fmt"
	"time"
)

// The engine's error surface is a closed set of typed errors. Callers branch
// with errors.As on the concrete type (or on Kind), never by parsing
// messages.

// ErrorKind classifies engine errors for callers that switch on class
// rather than concrete type.
type ErrorKind string

const (
	KindOrdering   ErrorKind = "ordering_violation"
	KindTransition ErrorKind = "invalid_transition"
	KindCorruption ErrorKind = "state_corruption"
	KindResource   ErrorKind = "resource_exhausted"
	KindLockWait   ErrorKind = "lock_wait_timeout"
	KindHalted     ErrorKind = "engine_halted"
	KindConfig     ErrorKind = "configuration"
)

// OrderingReason narrows what an ordering violation tripped on.
type OrderingReason string

const (
	OrderingReasonSequence  OrderingReason = "sequence_regression"
	OrderingReasonTimestamp OrderingReason = "timestamp_regression"
)

// OrderingViolationError reports a sequence or timestamp regression for one
// entity. The offending event is dropped; entity state is untouched.
type OrderingViolationError struct {
	EntityID      string
	Reason        OrderingReason
	LastSequence  uint64
	GotSequence   uint64
	LastTimestamp time.Time
	GotTimestamp  time.Time
}

func (e *OrderingViolationError) Error() string {
	if e.Reason == OrderingReasonTimestamp {
		return fmt.Sprintf("ordering violation for entity %s: timestamp %s regressed behind %s",
			e.EntityID, e.GotTimestamp.Format(time.RFC3339Nano), e.LastTimestamp.Format(time.RFC3339Nano))
	}
	return fmt.Sprintf("ordering violation for entity %s: sequence %d not greater than %d",
		e.EntityID, e.GotSequence, e.LastSequence)
}

// Kind returns KindOrdering.
func (e *OrderingViolationError) Kind() ErrorKind { return KindOrdering }

// TransitionError reports a rejected kill-chain transition. Entity-scoped:
// the candidate is discarded, the entity stays at From, the engine keeps
// running.
type TransitionError struct {
	EntityID string
	From     Stage
	To       Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid kill-chain transition for entity %s: %s -> %s", e.EntityID, e.From, e.To)
}

// Kind returns KindTransition.
func (e *TransitionError) Kind() ErrorKind { return KindTransition }

// CorruptionCheck identifies which structural invariant failed.
type CorruptionCheck string

const (
	CorruptionSignalOverflow  CorruptionCheck = "signal_overflow"
	CorruptionInvalidStage    CorruptionCheck = "invalid_stage"
	CorruptionInvalidScore    CorruptionCheck = "invalid_score"
	CorruptionUnorderedWindow CorruptionCheck = "unordered_window"
)

// CorruptionError reports an internal structural inconsistency. It is the
// only error class that halts the entire engine: ambiguity about our own
// state must never produce a verdict.
type CorruptionError struct {
	EntityID string
	Check    CorruptionCheck
	Observed int
	Limit    int
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("state corruption (%s) for entity %s: observed=%d limit=%d",
		e.Check, e.EntityID, e.Observed, e.Limit)
}

// Kind returns KindCorruption.
func (e *CorruptionError) Kind() ErrorKind { return KindCorruption }

// Resource names a bounded engine resource.
type Resource string

const (
	ResourceEntities Resource = "entities"
	ResourceSignals  Resource = "signals"
)

// ResourceLimitError reports that admitting new state would exceed a
// configured ceiling. Fail-closed: the starved input produces no alert.
// Retry is the caller's decision; the condition may clear after a TTL sweep.
type ResourceLimitError struct {
	EntityID string
	Resource Resource
	Limit    int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%s limit %d reached, rejecting entity %s", e.Resource, e.Limit, e.EntityID)
}

// Kind returns KindResource.
func (e *ResourceLimitError) Kind() ErrorKind { return KindResource }

// Retryable marks the error as transient resource pressure.
func (e *ResourceLimitError) Retryable() bool { return true }

// LockWaitError reports that exclusive access to an entity could not be
// acquired within the bounded wait. Backpressure signal, retryable.
type LockWaitError struct {
	EntityID string
	Waited   time.Duration
}

func (e *LockWaitError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for exclusive access to entity %s", e.Waited, e.EntityID)
}

// Kind returns KindLockWait.
func (e *LockWaitError) Kind() ErrorKind { return KindLockWait }

// Retryable marks the error as transient resource pressure.
func (e *LockWaitError) Retryable() bool { return true }

// HaltedError is returned by every call after the engine has latched into
// the halted state. Fatal: there is no resume without external
// re-initialization.
type HaltedError struct {
	Cause *CorruptionError
}

func (e *HaltedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine halted: %s", e.Cause.Error())
	}
	return "engine halted"
}

// Kind returns KindHalted.
func (e *HaltedError) Kind() ErrorKind { return KindHalted }

// Unwrap exposes the corruption that tripped the latch.
func (e *HaltedError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// ConfidenceRangeError reports a rejected confidence value.
type ConfidenceRangeError struct {
	Value float64
}

func (e *ConfidenceRangeError) Error() string {
	return fmt.Sprintf("confidence %v out of range [0,1]", e.Value)
}

// Kind returns KindConfig.
func (e *ConfidenceRangeError) Kind() ErrorKind { return KindConfig }

// IsRetryable reports whether err is transient resource pressure the caller
// may retry under its own backpressure policy. Correctness failures
// (ordering, transition, corruption, halted) are never retryable.
func IsRetryable(err error) bool {
	type retryable interface{ Retryable() bool }
	if r, ok := err.(retryable); ok {
		return r.Retryable()
	}
	return false
}
