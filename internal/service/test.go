package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

var (
	ErrTestInProgress = errors.New("another test is in progress")
	ErrNoActiveTest   = errors.New("no active test")
)

// TestService starts and tracks timed test runs, one per user.
type TestService struct {
	api     TestAPI
	runners *storage.RunnerStorage
	policy  runner.Policy
	logger  *zap.Logger

	fetches singleflight.Group
}

func NewTestService(api TestAPI, runners *storage.RunnerStorage, policy runner.Policy, logger *zap.Logger) *TestService {
	return &TestService{
		api:     api,
		runners: runners,
		policy:  policy,
		logger:  logger,
	}
}

// Prepare fetches the question set and parks a runner on the rules screen.
// A failed or empty fetch leaves no runner behind. Double taps share one fetch.
func (s *TestService) Prepare(ctx context.Context, userID int64, ref entities.TestRef, obs runner.Observer) (*runner.Runner, error) {
	if cur, ok := s.runners.Get(userID); ok {
		switch cur.State() {
		case runner.StateInProgress, runner.StateSubmitting:
			return nil, ErrTestInProgress
		}
	}

	key := fmt.Sprintf("%d:%s", userID, ref)
	v, err, _ := s.fetches.Do(key, func() (any, error) {
		return s.api.Questions(ctx, userID, ref)
	})
	if err != nil {
		return nil, err
	}
	questions := v.([]entities.Question)

	r, err := runner.New(ref, questions, &userSubmitter{api: s.api, userID: userID}, obs, s.policy,
		s.logger.With(zap.Int64("user_id", userID)))
	if err != nil {
		return nil, err
	}

	if prev, ok := s.runners.Store(userID, r); ok {
		prev.Close()
	}
	return r, nil
}

// Begin starts the timer of the prepared runner. ctx must outlive the test.
func (s *TestService) Begin(ctx context.Context, userID int64) (*runner.Runner, error) {
	r, ok := s.runners.Get(userID)
	if !ok {
		return nil, ErrNoActiveTest
	}
	if err := r.Begin(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *TestService) Runner(userID int64) (*runner.Runner, bool) {
	return s.runners.Get(userID)
}

// Discard drops a runner that has not started or is already submitted.
func (s *TestService) Discard(userID int64) error {
	r, ok := s.runners.Get(userID)
	if !ok {
		return nil
	}
	switch r.State() {
	case runner.StateInProgress, runner.StateSubmitting:
		return ErrTestInProgress
	}
	r.Close()
	s.runners.Delete(userID, r)
	return nil
}

func (s *TestService) Papers(ctx context.Context, userID, courseID int64) ([]entities.Paper, error) {
	return s.api.Papers(ctx, userID, courseID)
}

// userSubmitter binds the platform client to one user.
type userSubmitter struct {
	api    TestAPI
	userID int64
}

func (u *userSubmitter) Submit(ctx context.Context, ref entities.TestRef, answers []entities.Answer) (entities.SubmitResult, error) {
	return u.api.Submit(ctx, u.userID, ref, answers)
}
