package scheduler

import (
	"sync"
	"time"
)

// QueryOutcome records how the last attempted cycle went for one query.
type QueryOutcome struct {
	Query     string        `json:"query"`
	Cycle     uint64        `json:"cycle"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
	Duration  time.Duration `json:"duration"`
}

// CycleState tracks whether the refresh loop is active, its fixed interval,
// and the last outcome per query. The interval never changes for the
// lifetime of one loop; changing cadence requires stop and restart.
type CycleState struct {
	mu          sync.RWMutex
	active      bool
	interval    time.Duration
	outcomes    map[string]QueryOutcome
	lastApplied map[string]uint64
	applyLocks  map[string]*sync.Mutex
}

func newCycleState() *CycleState {
	return &CycleState{
		outcomes:    make(map[string]QueryOutcome),
		lastApplied: make(map[string]uint64),
		applyLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *CycleState) setActive(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.interval = interval
}

func (s *CycleState) setStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

func (s *CycleState) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *CycleState) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

func (s *CycleState) record(outcome QueryOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.Query] = outcome
}

// Outcome returns the last recorded outcome for a query.
func (s *CycleState) Outcome(query string) (QueryOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[query]
	return o, ok
}

// Outcomes returns a copy of every query's last outcome.
func (s *CycleState) Outcomes() map[string]QueryOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]QueryOutcome, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

// applyLock returns the mutex serializing snapshot application for one
// query. Locks are created lazily on first use.
func (s *CycleState) applyLock(query string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.applyLocks[query]
	if !ok {
		l = &sync.Mutex{}
		s.applyLocks[query] = l
	}
	return l
}

// applyIfCurrent enforces the monotonic sequence guard: apply runs only if
// no later cycle already updated this query. The per-query lock is held
// across both the check and the apply, so a stale snapshot can never land
// after a newer one has been written. Returns false when the snapshot was
// discarded.
func (s *CycleState) applyIfCurrent(query string, seq uint64, apply func()) bool {
	l := s.applyLock(query)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	stale := s.lastApplied[query] > seq
	if !stale {
		s.lastApplied[query] = seq
	}
	s.mu.Unlock()
	if stale {
		return false
	}
	apply()
	return true
}
