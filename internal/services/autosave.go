package services

import (
	"sync"
	"time"
)

// DefaultSaveWindow is the debounce window for auto-save: edits to the
// same question inside the window coalesce into one persist call.
const DefaultSaveWindow = 500 * time.Millisecond

// saveScheduler debounces persist calls per question id. A later schedule
// for the same key cancels and replaces the pending one; different keys
// run independently.
type saveScheduler struct {
	mu     sync.Mutex
	window time.Duration
	timers map[string]*time.Timer
}

func newSaveScheduler(window time.Duration) *saveScheduler {
	if window <= 0 {
		window = DefaultSaveWindow
	}
	return &saveScheduler{window: window, timers: map[string]*time.Timer{}}
}

// Schedule arms (or re-arms) the timer for key. fn runs on a timer
// goroutine after the window elapses without another Schedule for key.
func (s *saveScheduler) Schedule(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending timer for key, if any.
func (s *saveScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// CancelAll drops every pending timer. Used when a session closes.
func (s *saveScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// PendingCount reports how many keys currently have an armed timer.
func (s *saveScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
