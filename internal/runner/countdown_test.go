package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

func TestUrgencyFor(t *testing.T) {
	tests := []struct {
		seconds int
		want    Urgency
	}{
		{seconds: 3600, want: UrgencyCalm},
		{seconds: 901, want: UrgencyCalm},
		{seconds: 900, want: UrgencyWarning},
		{seconds: 301, want: UrgencyWarning},
		{seconds: 300, want: UrgencyCritical},
		{seconds: 0, want: UrgencyCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UrgencyFor(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "01:00:00", FormatClock(3600))
	assert.Equal(t, "00:14:59", FormatClock(899))
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:00:00", FormatClock(-4))
	assert.Equal(t, "02:01:05", FormatClock(7265))
}

func TestCountdown_ExpiresOnce(t *testing.T) {
	var ticks []int
	expired := 0
	c := NewCountdown(2, func(r int) { ticks = append(ticks, r) }, func() { expired++ })

	assert.True(t, c.Tick())
	assert.False(t, c.Tick())
	assert.False(t, c.Tick())

	assert.Equal(t, []int{1, 0}, ticks)
	assert.Equal(t, 1, expired)
	assert.True(t, c.Expired())
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdown_StopFreezes(t *testing.T) {
	c := NewCountdown(10, nil, nil)
	c.Tick()
	c.Stop()
	c.Stop()

	assert.False(t, c.Tick())
	assert.Equal(t, 9, c.Remaining())
	assert.False(t, c.Expired())
}

func TestCountdown_StartDrivesTicks(t *testing.T) {
	done := make(chan struct{})
	c := NewCountdown(2, nil, func() { close(done) })
	c.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	c.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	assert.Equal(t, 0, c.Remaining())
	assert.True(t, c.Expired())
}

func TestCountdown_SlowObserverDoesNotDelayExpiry(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks []int
	)
	done := make(chan struct{})
	c := NewCountdown(10, func(r int) {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		ticks = append(ticks, r)
		mu.Unlock()
	}, func() { close(done) })
	c.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	began := time.Now()
	c.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	assert.Less(t, time.Since(began), 400*time.Millisecond)

	// The mailbox drains after expiry and ends on zero.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) > 0 && ticks[len(ticks)-1] == 0
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, len(ticks), 10, "intermediate ticks coalesce behind a slow observer")
	assert.IsNonIncreasing(t, ticks)
}

func TestCountdown_RemainingFollowsDeadline(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(60, nil, nil)
	c.now = func() time.Time { return now }

	c.mu.Lock()
	c.armLocked()
	c.mu.Unlock()

	// Twenty seconds pass between ticks; the count follows the clock, not the tick count.
	now = now.Add(20 * time.Second)
	assert.True(t, c.Tick())
	assert.Equal(t, 39, c.Remaining())

	now = now.Add(500 * time.Millisecond)
	remaining, state := c.step(0)
	assert.Equal(t, stepRunning, state)
	assert.Equal(t, 39, remaining, "partial intervals round up")

	now = now.Add(time.Minute)
	remaining, state = c.step(0)
	assert.Equal(t, stepExpired, state)
	assert.Zero(t, remaining)
	assert.True(t, c.Expired())

	_, state = c.step(0)
	assert.Equal(t, stepStopped, state)
}

func TestCursor(t *testing.T) {
	c := NewCursor(3)
	assert.True(t, c.IsFirst())
	assert.Equal(t, 0, c.Prev())
	assert.Equal(t, 1, c.Next())
	assert.Equal(t, 2, c.Next())
	assert.Equal(t, 2, c.Next())
	assert.True(t, c.IsLast())
	assert.Equal(t, 0, c.GoTo(-1))
	assert.Equal(t, 2, c.GoTo(99))

	empty := NewCursor(0)
	assert.Equal(t, 0, empty.Next())
	assert.True(t, empty.IsLast())
}

func TestAnswerStore(t *testing.T) {
	s := NewAnswerStore()
	s.Select(3, 31)
	s.Select(1, 12)
	s.Select(3, 33)

	got, ok := s.Selected(3)
	require.True(t, ok)
	assert.Equal(t, int64(33), got)
	assert.False(t, s.IsAnswered(2))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int64{1, 3}, s.Keys())

	order := []entities.Question{{ID: 3}, {ID: 2}, {ID: 1}}
	assert.Equal(t, []entities.Answer{
		{QuestionID: 3, SelectedOptionID: 33},
		{QuestionID: 1, SelectedOptionID: 12},
	}, s.Snapshot(order))

	s.Reset()
	assert.Zero(t, s.Len())
}
