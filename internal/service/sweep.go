package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/runner"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

// SweepService evicts runners nobody will touch again: submitted or never
// started, and idle past the retention window. Running tests end on their own
// timer and are never evicted. Reviews idle past the same window go too.
type SweepService struct {
	runners   *storage.RunnerStorage
	screens   *storage.ScreenStorage
	reviews   *storage.ReviewStorage
	schedule  string
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewSweepService(
	runners *storage.RunnerStorage,
	screens *storage.ScreenStorage,
	reviews *storage.ReviewStorage,
	schedule string,
	retention time.Duration,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		runners:   runners,
		screens:   screens,
		reviews:   reviews,
		schedule:  schedule,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the sweep on schedule until ctx is done.
func (s *SweepService) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("runners evicted", zap.Int("count", n))
		}
		if n := s.SweepReviews(); n > 0 {
			s.logger.Info("reviews evicted", zap.Int("count", n))
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("sweeper started", zap.String("schedule", s.schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("sweeper stopped")
	return nil
}

// Sweep evicts stale runners once and returns how many were removed.
func (s *SweepService) Sweep() int {
	cutoff := s.now().Add(-s.retention)
	evicted := 0

	for userID, r := range s.runners.Snapshot() {
		switch r.State() {
		case runner.StateSubmitted, runner.StateReady:
		default:
			continue
		}
		if r.LastActivity().After(cutoff) {
			continue
		}

		r.Close()
		if s.runners.Delete(userID, r) {
			s.screens.Delete(userID)
			evicted++
		}
	}
	return evicted
}

// SweepReviews drops reviews idle past the retention window.
func (s *SweepService) SweepReviews() int {
	return s.reviews.EvictIdle(s.now().Add(-s.retention))
}
