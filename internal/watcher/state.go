package watcher

import (
	"sync"

	"github.com/conneroisu/picopack/internal/scanner"
)

// State is shared by the rebuild worker and the shutdown path. One mutex
// guards the compiling flag, the stopping latch and the last resolved
// fragment set.
type State struct {
	mu        sync.Mutex
	idle      *sync.Cond
	compiling bool
	stopping  bool
	fragments scanner.FragmentSet
}

// NewState creates the state with the fragment set of the initial build.
func NewState(initial scanner.FragmentSet) *State {
	s := &State{fragments: initial}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Begin marks a rebuild as started, waiting for any rebuild already in
// flight. It returns false once shutdown has begun; the caller must not
// rebuild then.
func (s *State) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.compiling && !s.stopping {
		s.idle.Wait()
	}
	if s.stopping {
		return false
	}
	s.compiling = true
	return true
}

// End clears the compiling flag and wakes anyone waiting for idle.
func (s *State) End() {
	s.mu.Lock()
	s.compiling = false
	s.mu.Unlock()
	s.idle.Broadcast()
}

// Drain refuses new rebuilds and blocks until the one in flight, if any,
// has finished. It reports whether it had to wait.
func (s *State) Drain() (waited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	s.idle.Broadcast()
	for s.compiling {
		waited = true
		s.idle.Wait()
	}
	return waited
}

// Compiling reports whether a rebuild is in progress.
func (s *State) Compiling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compiling
}

// Stopping reports whether Drain has been called.
func (s *State) Stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Fragments returns the last resolved fragment set.
func (s *State) Fragments() scanner.FragmentSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fragments
}

// SetFragments replaces the fragment set. Only the holder of a Begin/End
// window may call it.
func (s *State) SetFragments(set scanner.FragmentSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = set
}
