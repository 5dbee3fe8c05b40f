package service

import (
	"context"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/infra/api"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres"
)

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	Unlink(ctx context.Context, userID int64) error
}

// CredentialStore persists platform tokens.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, creds *entities.Credentials) error
	DeleteCredentials(ctx context.Context, userID int64) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx postgres.DBTX) error) error
}

// Repositories builds the repositories used inside a transaction.
type Repositories func(db postgres.DBTX) (UserRepository, CredentialStore)

type AuthAPI interface {
	Login(ctx context.Context, identifier, password string) (api.LoginResult, error)
}

// TestAPI is the part of the platform a test run needs.
type TestAPI interface {
	Questions(ctx context.Context, userID int64, ref entities.TestRef) ([]entities.Question, error)
	Submit(ctx context.Context, userID int64, ref entities.TestRef, answers []entities.Answer) (entities.SubmitResult, error)
	Papers(ctx context.Context, userID, courseID int64) ([]entities.Paper, error)
}

type ReviewAPI interface {
	AttemptDetail(ctx context.Context, userID int64, kind entities.TestKind, attemptID int64) (entities.AttemptDetail, error)
	Attempts(ctx context.Context, userID int64, kind entities.TestKind, studentID int64, from, to time.Time) ([]entities.AttemptSummary, error)
}

// IdentitySource resolves the platform student behind a bot user.
type IdentitySource interface {
	Identity(ctx context.Context, userID int64) (*entities.User, error)
}
