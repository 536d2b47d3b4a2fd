package service

import (
	"sync"
	"time"
)

// DelayScheduler runs tasks after a delay and can cancel everything still
// pending on shutdown. Completed and cancelled timers are removed from the
// pending set so a long-lived scheduler does not grow.
type DelayScheduler struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]*time.Timer
	closed  bool
}

func NewDelayScheduler() *DelayScheduler {
	return &DelayScheduler{pending: make(map[int]*time.Timer)}
}

// After schedules task to run once d has elapsed. A scheduler that has
// been shut down drops the task.
func (s *DelayScheduler) After(d time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	id := s.nextID
	s.nextID++
	s.pending[id] = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.mu.Unlock()
		task()
	})
}

// PendingCount reports how many tasks are still waiting to fire.
func (s *DelayScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown cancels every pending task. Tasks already running are not
// interrupted.
func (s *DelayScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}
