package correlate

import (
	"context"
	"sync"
	"time"

	"warden/core"
	"warden/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// entitySlot is one entry of the entity table. The semaphore serializes
// mutation of the slot's state: single mutator per entity, unrelated
// entities progress in parallel.
type entitySlot struct {
	sem   *semaphore.Weighted
	state *core.EntityState
	// dead is set by the maintenance sweep while holding the semaphore;
	// a waiter that acquires a dead slot must go back to the table.
	dead bool
}

// EntityStore owns the entity_id -> state mapping, bounded by maxEntities.
// The table lock is held only for lookup and slot allocation; all state
// mutation happens under the slot semaphore.
type EntityStore struct {
	mu          sync.RWMutex
	slots       map[string]*entitySlot
	maxEntities int
	lockWait    time.Duration
	logger      *zap.SugaredLogger
}

// StoreStats summarizes the store for observability surfaces.
type StoreStats struct {
	Entities     int
	TotalSignals int
}

// NewEntityStore creates an empty store bounded at maxEntities.
func NewEntityStore(maxEntities int, lockWait time.Duration, logger *zap.SugaredLogger) *EntityStore {
	return &EntityStore{
		slots:       make(map[string]*entitySlot),
		maxEntities: maxEntities,
		lockWait:    lockWait,
		logger:      logger,
	}
}

// Handle is a scoped exclusive-access grant for one entity's state. Release
// must run on every exit path; it is safe to call more than once.
type Handle struct {
	slot     *entitySlot
	released bool
}

// State returns the entity state the handle guards. Valid only between
// Acquire and Release.
func (h *Handle) State() *core.EntityState { return h.slot.state }

// Release gives up exclusive access.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.slot.sem.Release(1)
}

// Acquire returns exclusive access to entityID's state, creating zero state
// for a new entity. Creation over the entity ceiling fails closed with
// ResourceLimitError. The wait for a contended entity is bounded; on timeout
// the caller gets a retryable LockWaitError, never an indefinite stall.
func (s *EntityStore) Acquire(ctx context.Context, entityID string) (*Handle, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	for {
		slot, err := s.slotFor(entityID)
		if err != nil {
			return nil, err
		}
		if err := slot.sem.Acquire(waitCtx, 1); err != nil {
			metrics.LockWaitTimeouts.Inc()
			return nil, &core.LockWaitError{EntityID: entityID, Waited: s.lockWait}
		}
		if slot.dead {
			// Sweep reclaimed the slot between lookup and acquire.
			slot.sem.Release(1)
			continue
		}
		return &Handle{slot: slot}, nil
	}
}

// slotFor looks up or allocates the slot for entityID. Only this allocation
// step takes the table lock.
func (s *EntityStore) slotFor(entityID string) (*entitySlot, error) {
	s.mu.RLock()
	slot, ok := s.slots[entityID]
	s.mu.RUnlock()
	if ok {
		return slot, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[entityID]; ok {
		return slot, nil
	}
	if len(s.slots) >= s.maxEntities {
		return nil, &core.ResourceLimitError{
			EntityID: entityID,
			Resource: core.ResourceEntities,
			Limit:    s.maxEntities,
		}
	}
	slot = &entitySlot{
		sem:   semaphore.NewWeighted(1),
		state: core.NewEntityState(entityID, time.Now().UTC()),
	}
	s.slots[entityID] = slot
	metrics.EntitiesActive.Set(float64(len(s.slots)))
	return slot, nil
}

// EvictStale reclaims entities inactive longer than ttl. An entity whose
// semaphore is held (in-flight correlation) is skipped, never evicted. The
// limiter paces the scan so a sweep cannot monopolize the table.
func (s *EntityStore) EvictStale(ctx context.Context, now time.Time, ttl time.Duration, limiter *rate.Limiter) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range ids {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		s.mu.RLock()
		slot, ok := s.slots[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		if !slot.sem.TryAcquire(1) {
			continue
		}
		if slot.dead || now.Sub(slot.state.UpdatedAt) < ttl {
			slot.sem.Release(1)
			continue
		}
		slot.dead = true
		s.mu.Lock()
		delete(s.slots, id)
		metrics.EntitiesActive.Set(float64(len(s.slots)))
		s.mu.Unlock()
		slot.sem.Release(1)
		evicted++
		metrics.EntitiesEvicted.Inc()
		s.logger.Debugw("evicted idle entity",
			"entity_id", id,
			"idle", now.Sub(slot.state.UpdatedAt))
	}
	return evicted
}

// Snapshot returns a copy of entityID's state without leaving the caller a
// live reference. Cross-entity consumers use snapshots instead of holding
// multiple entity locks; staleness is acceptable for advisory output.
func (s *EntityStore) Snapshot(ctx context.Context, entityID string) (core.EntityState, bool, error) {
	s.mu.RLock()
	_, ok := s.slots[entityID]
	s.mu.RUnlock()
	if !ok {
		return core.EntityState{}, false, nil
	}
	h, err := s.Acquire(ctx, entityID)
	if err != nil {
		return core.EntityState{}, false, err
	}
	defer h.Release()
	return h.State().Snapshot(), true, nil
}

// Len returns the number of tracked entities.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Stats returns store-wide counters. Signal counts are read without the
// slot semaphores; the numbers are advisory.
func (s *EntityStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := StoreStats{Entities: len(s.slots)}
	for _, slot := range s.slots {
		st.TotalSignals += len(slot.state.Signals)
	}
	return st
}
