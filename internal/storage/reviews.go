package storage

import (
	"sync"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/review"
)

type reviewEntry struct {
	review     *review.Review
	lastAccess time.Time
}

// ReviewStorage keeps the open review of every user. Each Store or Get counts
// as an access; EvictIdle drops reviews nobody has looked at since a cutoff.
type ReviewStorage struct {
	mu      sync.Mutex
	reviews map[int64]reviewEntry
	now     func() time.Time
}

func NewReviewStorage() *ReviewStorage {
	return &ReviewStorage{
		reviews: make(map[int64]reviewEntry),
		now:     time.Now,
	}
}

func (s *ReviewStorage) Store(userID int64, r *review.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[userID] = reviewEntry{review: r, lastAccess: s.now()}
}

func (s *ReviewStorage) Get(userID int64) (*review.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.reviews[userID]
	if !ok {
		return nil, false
	}
	e.lastAccess = s.now()
	s.reviews[userID] = e
	return e.review, true
}

func (s *ReviewStorage) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, userID)
}

// EvictIdle removes reviews last accessed before cutoff and returns how many went.
func (s *ReviewStorage) EvictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, e := range s.reviews {
		if e.lastAccess.Before(cutoff) {
			delete(s.reviews, userID)
			evicted++
		}
	}
	return evicted
}

func (s *ReviewStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}
