package session

import (
	"sync"
	"time"
)

// Clock abstracts wall time so the play loop can be driven deterministically.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// After implements Clock.
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SessionClock tracks elapsed play time excluding pauses. It is safe for
// concurrent use; the expiry timer samples it from its own goroutine.
type SessionClock struct {
	mu         sync.Mutex
	started    bool
	start      time.Time
	totalPause time.Duration
	paused     bool
	pauseStart time.Time
}

// Start arms the clock at now. Later calls are ignored.
func (s *SessionClock) Start(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.start = now
}

// Toggle flips the paused state at now and reports whether the clock is
// paused afterwards.
func (s *SessionClock) Toggle(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return false
	}
	if s.paused {
		if d := now.Sub(s.pauseStart); d > 0 {
			s.totalPause += d
		}
		s.paused = false
		s.pauseStart = time.Time{}
		return false
	}
	s.paused = true
	s.pauseStart = now
	return true
}

// Paused reports whether the clock is paused.
func (s *SessionClock) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// TotalPause returns the sum of completed pause intervals.
func (s *SessionClock) TotalPause() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPause
}

// Elapsed returns unpaused time since Start. While paused the value is
// frozen at the moment the pause began.
func (s *SessionClock) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0
	}
	ref := now
	if s.paused {
		ref = s.pauseStart
	}
	d := ref.Sub(s.start) - s.totalPause
	if d < 0 {
		return 0
	}
	return d
}
