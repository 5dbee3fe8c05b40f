package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

type memTokens struct {
	mu      sync.Mutex
	creds   map[int64]entities.Credentials
	deleted []int64
}

func newMemTokens(userID int64, access, refresh string) *memTokens {
	return &memTokens{creds: map[int64]entities.Credentials{
		userID: {UserID: userID, AccessToken: access, RefreshToken: refresh},
	}}
}

func (m *memTokens) Credentials(_ context.Context, userID int64) (*entities.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return nil, entities.ErrNoCredentials
	}
	return &c, nil
}

func (m *memTokens) SaveCredentials(_ context.Context, c *entities.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.UserID] = *c
	return nil
}

func (m *memTokens) DeleteCredentials(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *memTokens) access(userID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds[userID].AccessToken
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenStore) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, RefreshLeeway: time.Minute}, tokens, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_QuestionsSendsBearerAndRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pyq-mock-test/paper/9/questions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{{
				"id":                1,
				"question_text":     "2+2?",
				"options":           []map[string]any{{"id": 10, "text": "3"}, {"id": 11, "text": "4"}},
				"correct_option_id": 11,
				"image_url":         nil,
			}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, newMemTokens(1, "tok", "ref"))
	qs, err := c.Questions(context.Background(), 1, entities.TestRef{Kind: entities.TestKindPYQ, ID: 9})

	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "2+2?", qs[0].Text)
	assert.True(t, qs[0].HasOption(11))
	assert.Equal(t, "", qs[0].Image())
}

func TestClient_NoCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &memTokens{creds: map[int64]entities.Credentials{}})
	_, err := c.Questions(context.Background(), 1, entities.TestRef{Kind: entities.TestKindMock, ID: 1})

	assert.ErrorIs(t, err, entities.ErrNoCredentials)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	var refreshes, calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			atomic.AddInt32(&refreshes, 1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "ref", body["token"])
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "new"})
		case "/api/pyq-mock-test/3/papers":
			atomic.AddInt32(&calls, 1)
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    []map[string]any{{"id": 4, "course_id": 3, "year": 2023, "created_at": "2025-01-02T10:00:00.123456+00:00"}},
			})
		}
	}))
	defer srv.Close()

	tokens := newMemTokens(1, "old", "ref")
	c := newTestClient(t, srv, tokens)
	papers, err := c.Papers(context.Background(), 1, 3)

	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, 2023, papers[0].Year)
	assert.Equal(t, 2025, papers[0].CreatedAt.Year())
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "new", tokens.access(1))
}

func TestClient_FailedRefreshClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "nope"})
	}))
	defer srv.Close()

	tokens := newMemTokens(1, "old", "ref")
	c := newTestClient(t, srv, tokens)
	_, err := c.Papers(context.Background(), 1, 3)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []int64{1}, tokens.deleted)
	_, err = tokens.Credentials(context.Background(), 1)
	assert.ErrorIs(t, err, entities.ErrNoCredentials)
}

func TestClient_RefreshesExpiringTokenUpFront(t *testing.T) {
	expiring, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(10 * time.Second).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	var refreshes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh-token" {
			atomic.AddInt32(&refreshes, 1)
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "fresh"})
			return
		}
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, newMemTokens(1, expiring, "ref"))
	_, err = c.Papers(context.Background(), 1, 3)

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestClient_ConcurrentRefreshIsShared(t *testing.T) {
	var refreshes int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh-token" {
			atomic.AddInt32(&refreshes, 1)
			<-release
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "new"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, newMemTokens(1, "old", "ref"))

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := c.refresh(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, []string{"new", "new", "new", "new"}, results)
}

func TestClient_Submit(t *testing.T) {
	tests := []struct {
		name      string
		ref       entities.TestRef
		path      string
		idField   string
		response  map[string]any
		wantID    int64
		wantError error
	}{
		{
			name:    "mock uses attemptId",
			ref:     entities.TestRef{Kind: entities.TestKindMock, ID: 7},
			path:    "/api/mock-test/submit",
			idField: "course_id",
			response: map[string]any{
				"success": true, "message": "ok", "score": 3, "totalQuestions": 5, "attemptId": 99,
			},
			wantID: 99,
		},
		{
			name:    "pyq falls back to data.id",
			ref:     entities.TestRef{Kind: entities.TestKindPYQ, ID: 7},
			path:    "/api/pyq-mock-test/attempt/submit",
			idField: "paper_id",
			response: map[string]any{
				"success": true, "score": 2, "totalQuestions": 5,
				"data": map[string]any{"id": 123, "submitted_at": "2025-03-04T05:06:07Z"},
			},
			wantID: 123,
		},
		{
			name:    "success false is rejected",
			ref:     entities.TestRef{Kind: entities.TestKindMock, ID: 7},
			path:    "/api/mock-test/submit",
			idField: "course_id",
			response: map[string]any{
				"success": false, "message": "already submitted",
			},
			wantError: ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)

				var body struct {
					CourseID *int64            `json:"course_id"`
					PaperID  *int64            `json:"paper_id"`
					Answers  []entities.Answer `json:"answers"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				if tt.idField == "course_id" {
					require.NotNil(t, body.CourseID)
					assert.Equal(t, int64(7), *body.CourseID)
				} else {
					require.NotNil(t, body.PaperID)
					assert.Equal(t, int64(7), *body.PaperID)
				}
				assert.Equal(t, []entities.Answer{{QuestionID: 1, SelectedOptionID: 12}}, body.Answers)

				writeJSON(w, http.StatusOK, tt.response)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, newMemTokens(1, "tok", "ref"))
			res, err := c.Submit(context.Background(), 1, tt.ref,
				[]entities.Answer{{QuestionID: 1, SelectedOptionID: 12}})

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.False(t, res.Success)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantID, res.AttemptID)
		})
	}
}

func TestClient_AttemptDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mock-test/attempt/55/details", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"attempt_id":      55,
			"score":           1,
			"total_questions": 2,
			"submitted_at":    "2025-05-06T07:08:09.5Z",
			"data": []map[string]any{
				{"id": 1, "question_text": "a", "correct_option_id": 11, "selected_option_id": 11, "is_correct": true,
					"options": []map[string]any{{"id": 11, "text": "x"}}},
				{"id": 2, "question_text": "b", "correct_option_id": 21, "selected_option_id": nil, "is_correct": false,
					"options": []map[string]any{{"id": 21, "text": "y"}}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, newMemTokens(1, "tok", "ref"))
	d, err := c.AttemptDetail(context.Background(), 1, entities.TestKindMock, 55)

	require.NoError(t, err)
	assert.Equal(t, int64(55), d.AttemptID)
	assert.Equal(t, entities.TestKindMock, d.Kind)
	require.Len(t, d.Questions, 2)
	assert.True(t, d.Questions[0].Answered())
	assert.False(t, d.Questions[1].Answered())
	assert.InDelta(t, 50.0, d.Accuracy(), 0.001)
}

func TestClient_Attempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pyq-mock-test/attempts/77", r.URL.Path)
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-01-10", r.URL.Query().Get("end_date"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   1,
			"data": []map[string]any{{
				"id": 5, "student_id": 77, "paper_id": 4, "score": 3,
				"answers":      []map[string]any{{"question_id": 1, "selected_option_id": 2}, {"question_id": 2, "selected_option_id": 3}},
				"submitted_at": "2025-01-05T10:00:00Z",
				"pyq_papers":   map[string]any{"year": 2021, "course_id": 8},
			}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, newMemTokens(1, "tok", "ref"))
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	list, err := c.Attempts(context.Background(), 1, entities.TestKindPYQ, 77, from, to)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].AnsweredCount)
	assert.Equal(t, 2021, list[0].PaperYear)
	assert.Equal(t, int64(8), list[0].CourseID)
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  "a",
			"refreshToken": "r",
			"user":         map[string]any{"id": 77, "user_name": "ravi", "email": "r@example.com"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)

	res, err := c.Login(context.Background(), "r@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a", res.AccessToken)
	assert.Equal(t, int64(77), res.Identity.StudentID)

	_, err = c.Login(context.Background(), "r@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
