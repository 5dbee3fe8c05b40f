package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres/repository"
)

// openDB connects to TEST_DATABASE_URL or skips the test.
func openDB(t *testing.T) postgres.DBTX {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 2, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE users CASCADE")
	require.NoError(t, err)
	return pool
}

func TestUserAndCredentials(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	creds := repository.NewCredentialsRepository(db)

	u := entities.NewUser(100, 200)
	created, err := users.Save(ctx, u)
	require.NoError(t, err)
	assert.True(t, created)

	u.StudentID = 77
	u.UserName = "ravi"
	created, err = users.Save(ctx, u)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := users.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.StudentID)

	_, err = creds.Credentials(ctx, 100)
	assert.ErrorIs(t, err, entities.ErrNoCredentials)

	require.NoError(t, creds.SaveCredentials(ctx, &entities.Credentials{
		UserID: 100, AccessToken: "a", RefreshToken: "r", UpdatedAt: time.Now(),
	}))
	require.NoError(t, creds.SaveCredentials(ctx, &entities.Credentials{
		UserID: 100, AccessToken: "b", RefreshToken: "r", UpdatedAt: time.Now(),
	}))
	c, err := creds.Credentials(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "b", c.AccessToken)

	require.NoError(t, creds.DeleteCredentials(ctx, 100))
	require.NoError(t, users.Unlink(ctx, 100))
	got, err = users.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, got.StudentID)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestTransactorRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	tr := postgres.NewTransactor(db.(postgres.TxBeginner))

	boom := errors.New("boom")
	err := tr.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		if _, err := repository.NewUserRepository(tx).Save(ctx, entities.NewUser(1, 1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repository.NewUserRepository(db).GetByID(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
