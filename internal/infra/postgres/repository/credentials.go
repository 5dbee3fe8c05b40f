package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres"
)

// CredentialsRepository stores platform tokens per Telegram user.
type CredentialsRepository struct {
	db postgres.DBTX
}

func NewCredentialsRepository(db postgres.DBTX) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// Credentials returns entities.ErrNoCredentials when the user is logged out.
func (r *CredentialsRepository) Credentials(ctx context.Context, userID int64) (*entities.Credentials, error) {
	query := `
		SELECT user_id, access_token, refresh_token, updated_at
		FROM credentials
		WHERE user_id = $1
	`

	var c entities.Credentials
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrNoCredentials
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	return &c, nil
}

func (r *CredentialsRepository) SaveCredentials(ctx context.Context, c *entities.Credentials) error {
	query := `
		INSERT INTO credentials (user_id, access_token, refresh_token, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, c.UserID, c.AccessToken, c.RefreshToken, c.UpdatedAt); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *CredentialsRepository) DeleteCredentials(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM credentials WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
