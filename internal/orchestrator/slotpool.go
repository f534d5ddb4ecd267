package orchestrator

import "sync"

// slotPool is a counting semaphore with explicit ownership, whose capacity
// is fixed when it is created,
// keyed by environment name instead of a numeric id. It bounds the
// Orchestrator's worker pool to max_workers (spec §4.3, §5) while keeping
// an accountable table of which envs currently hold a slot.
//
// Adapted from the teacher's PID-keyed slotPool: same acquire/release/
// condition-variable shape, generalized to string ownership and given a
// closed state so a run-wide interrupt can wake every blocked waiter
// instead of leaving them parked on sync.Cond.Wait forever.
type slotPool struct {
	mu         sync.Mutex
	cond       *sync.Cond
	maxCap     int
	usage      int
	acquiredBy map[string]struct{}
	closed     bool
}

// newSlotPool initializes the pool with a given capacity. A non-positive
// capacity is treated as "unbounded" (all ready envs may run at once),
// matching the CLI's `-p all` spelling.
func newSlotPool(max int) *slotPool {
	if max <= 0 {
		max = 1<<31 - 1
	}
	s := &slotPool{
		maxCap:     max,
		acquiredBy: make(map[string]struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// acquire blocks until usage < maxCap and registers name as the owner, or
// returns false immediately if the pool has been closed (interrupt path).
func (s *slotPool) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[name]; holds {
		panic("slotPool: " + name + " already holds a slot")
	}

	for !s.closed && s.usage >= s.maxCap {
		s.cond.Wait()
	}
	if s.closed {
		return false
	}

	s.usage++
	s.acquiredBy[name] = struct{}{}
	return true
}

// release frees the slot owned by name. Releasing a name that does not own
// a slot is an invariant violation — the orchestrator always pairs
// acquire/release around exactly one worker's lifetime.
func (s *slotPool) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, holds := s.acquiredBy[name]; !holds {
		panic("slotPool: release for non-owner " + name)
	}

	delete(s.acquiredBy, name)
	s.usage--
	s.cond.Signal()
}

// closeAll marks the pool closed and wakes every blocked acquirer; used
// when an interrupt is signalled so no worker is left waiting for a slot
// that will never open up by itself.
func (s *slotPool) closeAll() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// current returns the number of active acquired slots, for spinner/reporting.
func (s *slotPool) current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}
