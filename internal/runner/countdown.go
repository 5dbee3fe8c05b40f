package runner

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Urgency is the display band of the remaining time.
type Urgency string

const (
	UrgencyCalm     Urgency = "calm"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

const (
	warningThreshold  = 15 * 60
	criticalThreshold = 5 * 60
)

// UrgencyFor maps remaining seconds to a band: critical at or below 5 minutes,
// warning at or below 15 minutes, calm otherwise.
func UrgencyFor(seconds int) Urgency {
	switch {
	case seconds <= criticalThreshold:
		return UrgencyCritical
	case seconds <= warningThreshold:
		return UrgencyWarning
	default:
		return UrgencyCalm
	}
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Countdown counts whole intervals (seconds in production) down to zero and
// fires onExpire exactly once. The remaining count is derived from a fixed
// deadline, so a slow observer cannot stretch the attempt.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	deadline  time.Time
	started   bool
	stopped   bool
	expired   bool
	cancel    context.CancelFunc
	now       func() time.Time

	onTick   func(remaining int)
	onExpire func()
}

// NewCountdown creates a stopped countdown of the given length.
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if onTick == nil {
		onTick = func(int) {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Countdown{
		remaining: seconds,
		interval:  time.Second,
		now:       time.Now,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// Start fixes the deadline and launches the tick loop. It must be given a
// context that outlives the test, not a request-scoped one. Calling Start
// twice is a no-op.
//
// Ticks reach onTick through a one-slot mailbox drained by its own goroutine.
// A slow onTick only makes intermediate values coalesce; expiry still fires on
// time from the tick goroutine.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.armLocked()
	ctx, c.cancel = context.WithCancel(ctx)
	interval := c.interval
	c.mu.Unlock()

	mailbox := make(chan int, 1)
	go func() {
		for remaining := range mailbox {
			c.onTick(remaining)
		}
	}()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(mailbox)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining, state := c.step(0)
				if state == stepStopped {
					return
				}
				post(mailbox, remaining)
				if state == stepExpired {
					c.onExpire()
					return
				}
			}
		}
	}()
}

// post replaces any undelivered value so the observer always sees the latest.
func post(mailbox chan int, remaining int) {
	for {
		select {
		case mailbox <- remaining:
			return
		default:
		}
		select {
		case <-mailbox:
		default:
		}
	}
}

type stepState int

const (
	stepRunning stepState = iota
	stepExpired
	stepStopped
)

// armLocked fixes the deadline on first use.
func (c *Countdown) armLocked() {
	if c.deadline.IsZero() {
		c.deadline = c.now().Add(time.Duration(c.remaining) * c.interval)
	}
}

// step recomputes the remaining count after shifting the deadline by skip.
func (c *Countdown) step(skip time.Duration) (int, stepState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return c.remaining, stepStopped
	}
	c.armLocked()
	c.deadline = c.deadline.Add(-skip)

	left := c.deadline.Sub(c.now())
	c.remaining = 0
	if left > 0 {
		c.remaining = int((left + c.interval - 1) / c.interval)
	}
	if c.remaining > 0 {
		return c.remaining, stepRunning
	}

	c.expired = true
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
	return 0, stepExpired
}

// Tick advances the countdown by one interval as if it had elapsed, notifies
// onTick synchronously and reports whether the countdown is still running.
// Ticks after Stop or expiry do nothing.
func (c *Countdown) Tick() bool {
	remaining, state := c.step(c.interval)
	switch state {
	case stepStopped:
		return false
	case stepExpired:
		c.onTick(remaining)
		c.onExpire()
		return false
	default:
		c.onTick(remaining)
		return true
	}
}

// Stop freezes the counter. Safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Remaining returns the count computed by the latest tick.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the counter reached zero.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
