package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/review"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type AuthService interface {
	EnsureUser(ctx context.Context, userID, chatID int64) error
	Login(ctx context.Context, userID, chatID int64, identifier, password string) (entities.Identity, error)
	Logout(ctx context.Context, userID int64) error
	Identity(ctx context.Context, userID int64) (*entities.User, error)
}

type TestService interface {
	Prepare(ctx context.Context, userID int64, ref entities.TestRef, obs runner.Observer) (*runner.Runner, error)
	Begin(ctx context.Context, userID int64) (*runner.Runner, error)
	Runner(userID int64) (*runner.Runner, bool)
	Discard(userID int64) error
	Papers(ctx context.Context, userID, courseID int64) ([]entities.Paper, error)
}

type ReviewService interface {
	Open(ctx context.Context, userID int64, kind entities.TestKind, attemptID int64) (*review.Review, error)
	Current(userID int64) (*review.Review, bool)
	Close(userID int64)
	Attempts(ctx context.Context, userID int64, kind entities.TestKind, from, to time.Time) ([]entities.AttemptSummary, error)
}
