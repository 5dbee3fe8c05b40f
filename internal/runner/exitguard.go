package runner

import (
	"context"
	"sync"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

// ExitGuard intercepts attempts to leave a running test. A surface without a
// way to intercept navigation simply never calls it.
type ExitGuard struct {
	mu         sync.Mutex
	runner     *Runner
	debounce   time.Duration
	lastPrompt time.Time
	pending    bool
}

func newExitGuard(r *Runner, debounce time.Duration) *ExitGuard {
	return &ExitGuard{runner: r, debounce: debounce}
}

// AttemptExit reports whether a stay/exit warning should be shown.
// Repeated attempts inside the debounce window are swallowed; the guard is
// inert unless the test is in progress.
func (g *ExitGuard) AttemptExit() bool {
	if g.runner.State() != StateInProgress {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.runner.now()
	if !g.lastPrompt.IsZero() && now.Sub(g.lastPrompt) < g.debounce {
		return false
	}
	g.lastPrompt = now
	g.pending = true
	return true
}

// Stay cancels the exit and re-arms the guard. Answers and timer are untouched.
func (g *ExitGuard) Stay() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = false
	g.lastPrompt = time.Time{}
}

// ConfirmExit forces a submission with the same effect as timer expiry.
func (g *ExitGuard) ConfirmExit(ctx context.Context) (entities.SubmitResult, error) {
	g.mu.Lock()
	g.pending = false
	g.mu.Unlock()

	return g.runner.Submit(ctx, TriggerExit)
}

// Pending reports whether a warning is currently shown.
func (g *ExitGuard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}
