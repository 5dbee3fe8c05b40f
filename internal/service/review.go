package service

import (
	"context"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/review"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

// ReviewService serves past attempts.
type ReviewService struct {
	api        ReviewAPI
	identity   IdentitySource
	reviews    *storage.ReviewStorage
	windowDays int
	now        func() time.Time
}

func NewReviewService(api ReviewAPI, identity IdentitySource, reviews *storage.ReviewStorage, windowDays int) *ReviewService {
	return &ReviewService{
		api:        api,
		identity:   identity,
		reviews:    reviews,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Open loads an attempt and makes it the user's current review.
func (s *ReviewService) Open(ctx context.Context, userID int64, kind entities.TestKind, attemptID int64) (*review.Review, error) {
	detail, err := s.api.AttemptDetail(ctx, userID, kind, attemptID)
	if err != nil {
		return nil, err
	}

	r := review.New(detail)
	s.reviews.Store(userID, r)
	return r, nil
}

func (s *ReviewService) Current(userID int64) (*review.Review, bool) {
	return s.reviews.Get(userID)
}

func (s *ReviewService) Close(userID int64) {
	s.reviews.Delete(userID)
}

// Attempts lists the user's attempts. With both bounds zero it covers the last
// windowDays days.
func (s *ReviewService) Attempts(ctx context.Context, userID int64, kind entities.TestKind, from, to time.Time) ([]entities.AttemptSummary, error) {
	user, err := s.identity.Identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if from.IsZero() && to.IsZero() {
		to = s.now()
		from = to.AddDate(0, 0, -s.windowDays)
	}
	return s.api.Attempts(ctx, userID, kind, user.StudentID, from, to)
}
