package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

var (
	ErrNoQuestions      = errors.New("question set is empty")
	ErrNotStarted       = errors.New("test not started")
	ErrNotInProgress    = errors.New("test is not in progress")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrUnknownOption    = errors.New("unknown option")
	ErrNoAnswers        = errors.New("no questions answered")
	ErrSubmitInFlight   = errors.New("submission already in flight")
	ErrAlreadySubmitted = errors.New("test already submitted")
	ErrSubmitRejected   = errors.New("submission rejected")
)

// State of the runner. ready is the rules screen before the timer starts.
type State string

const (
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

// Trigger names what asked for a submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerExpiry Trigger = "expiry"
	TriggerExit   Trigger = "exit"
)

// Forced reports whether the trigger bypasses the manual zero-answer guard.
func (t Trigger) Forced() bool {
	return t == TriggerExpiry || t == TriggerExit
}

// Submitter sends the answer record to the platform.
type Submitter interface {
	Submit(ctx context.Context, ref entities.TestRef, answers []entities.Answer) (entities.SubmitResult, error)
}

// Observer receives runner events. Calls are made without the runner lock held.
type Observer interface {
	Ticked(remaining int)
	Expired()
	Submitted(result entities.SubmitResult)
	SubmitFailed(trigger Trigger, err error)
	Warned(err error)
}

// Policy holds the tunables of a test run.
type Policy struct {
	Duration      time.Duration
	SubmitTimeout time.Duration
	ExitDebounce  time.Duration
	// AllowEmptyForced lets expiry and confirmed exit submit an empty answer record.
	AllowEmptyForced bool
}

func DefaultPolicy() Policy {
	return Policy{
		Duration:         time.Hour,
		SubmitTimeout:    30 * time.Second,
		ExitDebounce:     2 * time.Second,
		AllowEmptyForced: true,
	}
}

// View is a consistent snapshot of the runner for rendering.
type View struct {
	Ref           entities.TestRef
	State         State
	Index         int
	Total         int
	Question      entities.Question
	Selected      int64
	HasSelected   bool
	Answered      []bool // per question index
	AnsweredCount int
	Remaining     int
	Urgency       Urgency
	Result        *entities.SubmitResult
}

// IsLast reports whether the displayed question is the last one.
func (v View) IsLast() bool { return v.Index == v.Total-1 }

// Runner is the state machine of one timed test attempt.
type Runner struct {
	mu        sync.Mutex
	ref       entities.TestRef
	questions []entities.Question
	byID      map[int64]int

	answers   *AnswerStore
	cursor    *Cursor
	countdown *Countdown
	guard     *ExitGuard

	state        State
	result       *entities.SubmitResult
	lastActivity time.Time

	submitter Submitter
	observer  Observer
	policy    Policy
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a runner in the ready state.
func New(
	ref entities.TestRef,
	questions []entities.Question,
	submitter Submitter,
	observer Observer,
	policy Policy,
	logger *zap.Logger,
) (*Runner, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byID := make(map[int64]int, len(questions))
	for i, q := range questions {
		byID[q.ID] = i
	}

	r := &Runner{
		ref:       ref,
		questions: questions,
		byID:      byID,
		answers:   NewAnswerStore(),
		cursor:    NewCursor(len(questions)),
		state:     StateReady,
		submitter: submitter,
		observer:  observer,
		policy:    policy,
		logger:    logger.With(zap.String("test", ref.String())),
		now:       time.Now,
	}
	r.lastActivity = r.now()
	r.countdown = NewCountdown(int(policy.Duration/time.Second), observer.Ticked, r.expire)
	r.guard = newExitGuard(r, policy.ExitDebounce)

	return r, nil
}

// Begin leaves the rules screen and starts the countdown. The context must live
// as long as the test, it drives the tick goroutine.
func (r *Runner) Begin(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateReady {
		r.mu.Unlock()
		return ErrNotInProgress
	}
	r.state = StateInProgress
	r.lastActivity = r.now()
	r.mu.Unlock()

	r.logger.Info("test started", zap.Int("questions", len(r.questions)))
	r.countdown.Start(ctx)
	return nil
}

// SelectAnswer records an option for a question. It never moves the cursor.
func (r *Runner) SelectAnswer(questionID, optionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireInProgress(); err != nil {
		return err
	}
	i, ok := r.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, questionID)
	}
	if !r.questions[i].HasOption(optionID) {
		return fmt.Errorf("%w: %d", ErrUnknownOption, optionID)
	}

	r.answers.Select(questionID, optionID)
	r.lastActivity = r.now()
	return nil
}

// GoTo moves the cursor, clamped to the question range. Answers are untouched.
func (r *Runner) GoTo(i int) (int, error) {
	return r.move(func(c *Cursor) int { return c.GoTo(i) })
}

func (r *Runner) Next() (int, error) {
	return r.move((*Cursor).Next)
}

func (r *Runner) Prev() (int, error) {
	return r.move((*Cursor).Prev)
}

func (r *Runner) move(fn func(c *Cursor) int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress && r.state != StateSubmitting {
		return r.cursor.Index(), ErrNotInProgress
	}
	r.lastActivity = r.now()
	return fn(r.cursor), nil
}

// Submit runs the submission controller. Only one call at a time reaches the
// submitter; the others return ErrSubmitInFlight or ErrAlreadySubmitted.
func (r *Runner) Submit(ctx context.Context, trigger Trigger) (entities.SubmitResult, error) {
	r.mu.Lock()
	switch r.state {
	case StateReady:
		r.mu.Unlock()
		return entities.SubmitResult{}, ErrNotStarted
	case StateSubmitting:
		r.mu.Unlock()
		return entities.SubmitResult{}, ErrSubmitInFlight
	case StateSubmitted:
		res := *r.result
		r.mu.Unlock()
		return res, ErrAlreadySubmitted
	}

	// After expiry every retry counts as forced so a failed expiry submission
	// can still be retried from the submit button.
	forced := trigger.Forced() || r.countdown.Expired()
	if r.answers.Len() == 0 && !(forced && r.policy.AllowEmptyForced) {
		r.mu.Unlock()
		r.logger.Debug("empty submission refused", zap.String("trigger", string(trigger)))
		r.observer.Warned(ErrNoAnswers)
		return entities.SubmitResult{}, ErrNoAnswers
	}

	answers := r.answers.Snapshot(r.questions)
	r.state = StateSubmitting
	r.mu.Unlock()

	r.logger.Info("submitting test",
		zap.String("trigger", string(trigger)),
		zap.Int("answered", len(answers)),
		zap.Int("remaining", r.countdown.Remaining()),
	)

	var (
		sctx   context.Context
		cancel context.CancelFunc
	)
	if r.policy.SubmitTimeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, r.policy.SubmitTimeout)
	} else {
		sctx, cancel = context.WithCancel(ctx)
	}
	res, err := r.submitter.Submit(sctx, r.ref, answers)
	cancel()
	if err == nil && !res.Success {
		err = fmt.Errorf("%w: %s", ErrSubmitRejected, res.Message)
	}

	r.mu.Lock()
	if err != nil {
		r.state = StateInProgress
		r.mu.Unlock()

		r.logger.Warn("submission failed", zap.String("trigger", string(trigger)), zap.Error(err))
		r.observer.SubmitFailed(trigger, err)
		return entities.SubmitResult{}, fmt.Errorf("submit (%s): %w", trigger, err)
	}

	if res.SubmittedAt.IsZero() {
		res.SubmittedAt = r.now()
	}
	r.result = &res
	r.state = StateSubmitted
	r.lastActivity = r.now()
	r.countdown.Stop()
	r.mu.Unlock()

	r.logger.Info("test submitted",
		zap.Int64("attempt_id", res.AttemptID),
		zap.Int("score", res.Score),
		zap.Int("total", res.TotalQuestions),
	)
	r.observer.Submitted(res)
	return res, nil
}

func (r *Runner) expire() {
	r.logger.Info("time is up")
	r.observer.Expired()
	// Errors are already reported to the observer.
	_, _ = r.Submit(context.Background(), TriggerExpiry)
}

func (r *Runner) requireInProgress() error {
	switch r.state {
	case StateInProgress:
		return nil
	case StateReady:
		return ErrNotStarted
	case StateSubmitting:
		return ErrSubmitInFlight
	default:
		return ErrNotInProgress
	}
}

// View returns a snapshot of the displayed question and progress.
func (r *Runner) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.questions[r.cursor.Index()]
	selected, has := r.answers.Selected(q.ID)
	answered := make([]bool, len(r.questions))
	for _, id := range r.answers.Keys() {
		if i, ok := r.byID[id]; ok {
			answered[i] = true
		}
	}
	remaining := r.countdown.Remaining()

	v := View{
		Ref:           r.ref,
		State:         r.state,
		Index:         r.cursor.Index(),
		Total:         len(r.questions),
		Question:      q,
		Selected:      selected,
		HasSelected:   has,
		Answered:      answered,
		AnsweredCount: r.answers.Len(),
		Remaining:     remaining,
		Urgency:       UrgencyFor(remaining),
	}
	if r.result != nil {
		res := *r.result
		v.Result = &res
	}
	return v
}

// Answers returns the answer record in question order.
func (r *Runner) Answers() []entities.Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answers.Snapshot(r.questions)
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Result returns the submission result once the runner is submitted.
func (r *Runner) Result() (entities.SubmitResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return entities.SubmitResult{}, false
	}
	return *r.result, true
}

func (r *Runner) Ref() entities.TestRef { return r.ref }

func (r *Runner) Remaining() int { return r.countdown.Remaining() }

// Guard returns the exit guard bound to this runner.
func (r *Runner) Guard() *ExitGuard { return r.guard }

// LastActivity is the time of the last state change or user action.
func (r *Runner) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Close stops the countdown without submitting. Used when a runner is evicted.
func (r *Runner) Close() {
	r.countdown.Stop()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Ticked(int) {}
func (NopObserver) Expired() {}
func (NopObserver) Submitted(entities.SubmitResult) {}
func (NopObserver) SubmitFailed(Trigger, error) {}
func (NopObserver) Warned(error) {}
