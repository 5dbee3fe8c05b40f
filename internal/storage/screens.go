package storage

import (
	"sync"
	"time"
)

// Screen is the pair of messages a running test is drawn on.
type Screen struct {
	ChatID      int64
	QuestionMsg int
	TimerMsg    int
	UpdatedAt   time.Time
}

// ScreenStorage remembers which messages to edit for every user.
type ScreenStorage struct {
	mu      sync.RWMutex
	screens map[int64]Screen
}

func NewScreenStorage() *ScreenStorage {
	return &ScreenStorage{
		screens: make(map[int64]Screen),
	}
}

func (s *ScreenStorage) Store(userID int64, screen Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	screen.UpdatedAt = time.Now()
	s.screens[userID] = screen
}

func (s *ScreenStorage) Get(userID int64) (Screen, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	screen, ok := s.screens[userID]
	return screen, ok
}

func (s *ScreenStorage) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.screens, userID)
}
