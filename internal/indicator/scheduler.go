package indicator

import (
	"sync"
	"time"
)

// Trigger is a page event after which marker positions are re-derived.
type Trigger int

const (
	ModeEntered Trigger = iota
	Mutation
	Scroll
	Resize
)

func (t Trigger) String() string {
	switch t {
	case ModeEntered:
		return "mode-entered"
	case Mutation:
		return "mutation"
	case Scroll:
		return "scroll"
	case Resize:
		return "resize"
	default:
		return "unknown"
	}
}

// Delays is the re-render schedule after a trigger. Late renders catch
// elements that mount asynchronously.
var Delays = []time.Duration{
	0,
	100 * time.Millisecond,
	300 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
	2000 * time.Millisecond,
	3000 * time.Millisecond,
	5000 * time.Millisecond,
}

// AfterFunc runs f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Scheduler re-runs a render callback on the Delays schedule. A new trigger
// replaces the pending schedule.
type Scheduler struct {
	mu      sync.Mutex
	render  func()
	after   AfterFunc
	pending []func() bool
	active  bool
}

// NewScheduler uses time.AfterFunc when after is nil.
func NewScheduler(render func(), after AfterFunc) *Scheduler {
	if after == nil {
		after = timeAfterFunc
	}
	return &Scheduler{render: render, after: after}
}

// Notify handles a trigger. ModeEntered activates the scheduler; other
// triggers are ignored while inactive.
func (s *Scheduler) Notify(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == ModeEntered {
		s.active = true
	}
	if !s.active {
		return
	}

	s.cancelLocked()
	for _, d := range Delays {
		s.pending = append(s.pending, s.after(d, s.fire))
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active {
		s.render()
	}
}

// Stop deactivates the scheduler and cancels pending renders.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.cancelLocked()
}

func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) cancelLocked() {
	for _, stop := range s.pending {
		stop()
	}
	s.pending = nil
}
