package batchloader

import (
	"sync"
	"time"
)

// DefaultWait is the default duration a batch window stays open.
var DefaultWait = 1 * time.Millisecond

// BatchScheduleFunc decides when a batch window is dispatched.
// It is called once per window, when the window opens, and must arrange for dispatch to be called
// exactly once. Keys loaded before dispatch is called join the window.
type BatchScheduleFunc func(dispatch func())

// WaitScheduler returns a BatchScheduleFunc that dispatches each window after d.
func WaitScheduler(d time.Duration) BatchScheduleFunc {
	return func(dispatch func()) {
		time.AfterFunc(d, dispatch)
	}
}

// ManualScheduler collects batch windows and dispatches them on Flush.
// It makes batching deterministic, which is mostly useful for testing.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule is a BatchScheduleFunc.
func (s *ManualScheduler) Schedule(dispatch func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, dispatch)
}

// Pending returns the number of windows waiting for Flush.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush dispatches all collected windows synchronously in the order they were opened.
func (s *ManualScheduler) Flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, dispatch := range pending {
		dispatch()
	}
}
