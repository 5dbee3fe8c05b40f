package storage

import (
	"sync"

	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

// RunnerStorage keeps the active test runner of every user in memory.
// A user has at most one runner.
type RunnerStorage struct {
	mu      sync.RWMutex
	runners map[int64]*runner.Runner
}

func NewRunnerStorage() *RunnerStorage {
	return &RunnerStorage{
		runners: make(map[int64]*runner.Runner),
	}
}

// Store sets the runner of userID and returns the one it replaced.
func (s *RunnerStorage) Store(userID int64, r *runner.Runner) (prev *runner.Runner, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev = s.runners[userID]
	s.runners[userID] = r
	return prev, hadPrev
}

func (s *RunnerStorage) Get(userID int64) (*runner.Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runners[userID]
	return r, ok
}

// Delete removes the runner of userID only if it is still r.
func (s *RunnerStorage) Delete(userID int64, r *runner.Runner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.runners[userID]; !ok || cur != r {
		return false
	}
	delete(s.runners, userID)
	return true
}

// Snapshot copies the current runners so callers can inspect them without the lock.
func (s *RunnerStorage) Snapshot() map[int64]*runner.Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]*runner.Runner, len(s.runners))
	for id, r := range s.runners {
		out[id] = r
	}
	return out
}

func (s *RunnerStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runners)
}
