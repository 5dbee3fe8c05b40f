package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticSessions map[int64]*runner.Runner

func (s staticSessions) Snapshot() map[int64]*runner.Runner { return s }

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, entities.TestRef, []entities.Answer) (entities.SubmitResult, error) {
	return entities.SubmitResult{Success: true}, nil
}

func newRunner(t *testing.T) *runner.Runner {
	t.Helper()
	questions := []entities.Question{{ID: 1, Options: []entities.Option{{ID: 11}}}}
	r, err := runner.New(entities.TestRef{Kind: entities.TestKindMock, ID: 1}, questions,
		nopSubmitter{}, runner.NopObserver{}, runner.DefaultPolicy(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestServer_Health(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name string
		db   Pinger
		path string
		want int
	}{
		{"healthz", down, "/healthz", http.StatusOK},
		{"ready", ok, "/readyz", http.StatusOK},
		{"not ready", down, "/readyz", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(":0", tt.db, staticSessions{}, zap.NewNop())
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_Sessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	running := newRunner(t)
	require.NoError(t, running.Begin(ctx))
	sessions := staticSessions{1: newRunner(t), 2: running, 3: newRunner(t)}

	srv := NewServer(":0", nil, sessions, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got sessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.ByState[runner.StateReady])
	assert.Equal(t, 1, got.ByState[runner.StateInProgress])
}
