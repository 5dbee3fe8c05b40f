package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres/repository"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AuthService links Telegram users to platform accounts.
type AuthService struct {
	api    AuthAPI
	users  UserRepository
	tx     Transactor
	repos  Repositories
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	api AuthAPI,
	users UserRepository,
	tx Transactor,
	repos Repositories,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		api:    api,
		users:  users,
		tx:     tx,
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureUser registers a user on first contact without touching an existing link.
func (s *AuthService) EnsureUser(ctx context.Context, userID, chatID int64) error {
	_, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	if _, err := s.users.Save(ctx, entities.NewUser(userID, chatID)); err != nil {
		return err
	}
	s.logger.Info("new user", zap.Int64("user_id", userID))
	return nil
}

// Login authenticates against the platform and stores the user link and its
// tokens in one transaction.
func (s *AuthService) Login(ctx context.Context, userID, chatID int64, identifier, password string) (entities.Identity, error) {
	res, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		return entities.Identity{}, err
	}

	now := s.now()
	user := &entities.User{
		ID:        userID,
		ChatID:    chatID,
		StudentID: res.Identity.StudentID,
		UserName:  res.Identity.UserName,
		CreatedAt: now,
	}
	creds := &entities.Credentials{
		UserID:       userID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UpdatedAt:    now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		users, store := s.repos(tx)
		if _, err := users.Save(ctx, user); err != nil {
			return err
		}
		return store.SaveCredentials(ctx, creds)
	})
	if err != nil {
		return entities.Identity{}, fmt.Errorf("store login: %w", err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", userID), zap.Int64("student_id", res.Identity.StudentID))
	return res.Identity, nil
}

// Logout forgets the tokens and the student link.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		users, store := s.repos(tx)
		if err := store.DeleteCredentials(ctx, userID); err != nil {
			return err
		}
		return users.Unlink(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.logger.Info("user logged out", zap.Int64("user_id", userID))
	return nil
}

// Identity returns the logged-in user or ErrNotLoggedIn.
func (s *AuthService) Identity(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	if user.StudentID == 0 {
		return nil, ErrNotLoggedIn
	}
	return user, nil
}
