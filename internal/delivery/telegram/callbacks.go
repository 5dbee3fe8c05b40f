package telegram

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
	"github.com/artisticvicky/mocktest-bot/internal/service"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

// callbackFunc handles a button press and returns the toast shown to the user.
type callbackFunc func(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb, "")
		return
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	data := decodeCallback(cb.Data)

	// Any button outside the running test is an attempt to leave it.
	if !data.belongsToTest() && h.interceptExit(userID, chatID) {
		h.answerCallback(cb, "")
		return
	}

	var fn callbackFunc
	switch data.Action {
	case actionTest:
		fn = h.onTestCallback
	case actionAnswer:
		fn = h.onAnswerCallback
	case actionNav:
		fn = h.onNavCallback
	case actionTracker:
		fn = h.onTrackerCallback
	case actionSubmit:
		fn = h.onSubmitCallback
	case actionExit:
		fn = h.onExitCallback
	case actionReview:
		fn = h.onReviewCallback
	case actionOpen:
		fn = h.onOpenCallback
	case actionPaper:
		fn = h.onPaperCallback
	default:
		h.answerCallback(cb, "")
		return
	}

	var toast string
	_ = h.withErrorHandling(func(ctx context.Context, _ int64) error {
		var err error
		toast, err = fn(ctx, cb, data)
		return err
	})(ctx, chatID)

	h.answerCallback(cb, toast)
}

// activeRunner returns the runner of the user if it accepts input.
func (h *Handler) activeRunner(userID int64) (*runner.Runner, bool) {
	r, ok := h.tests.Runner(userID)
	if !ok || r.State() != runner.StateInProgress {
		return nil, false
	}
	return r, true
}

func (h *Handler) onTestCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	switch data.param(0) {
	case testStart:
		r, err := h.tests.Begin(ctx, userID)
		if errors.Is(err, service.ErrNoActiveTest) || errors.Is(err, runner.ErrNotInProgress) {
			return msgNoActiveTest, nil
		}
		if err != nil {
			return "", err
		}

		v := r.View()
		_ = h.send(newEdit(chatID, cb.Message.MessageID, renderQuestion(v), ptr(buildQuestionKeyboard(v))))

		timer, err := h.sendMessage(newMessage(chatID, renderTimer(v.Remaining)))
		if err != nil {
			h.logger.Warn("timer message not sent", zap.Int64("user_id", userID), zap.Error(err))
		}
		h.screens.Store(userID, storage.Screen{
			ChatID:      chatID,
			QuestionMsg: cb.Message.MessageID,
			TimerMsg:    timer.MessageID,
		})
		return "", nil

	case testCancel:
		if err := h.tests.Discard(userID); err != nil {
			return "", err
		}
		h.screens.Delete(userID)
		_ = h.send(newEdit(chatID, cb.Message.MessageID, md(msgTestCancelled), nil))
		return "", nil
	}
	return "", nil
}

func (h *Handler) onAnswerCallback(_ context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	r, ok := h.activeRunner(cb.From.ID)
	if !ok {
		return msgNoActiveTest, nil
	}

	questionID, ok1 := data.int64Param(0)
	optionID, ok2 := data.int64Param(1)
	if !ok1 || !ok2 {
		return "", nil
	}
	if err := r.SelectAnswer(questionID, optionID); err != nil {
		h.logger.Debug("answer refused", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		return msgNoActiveTest, nil
	}

	h.showQuestion(cb, r.View())
	return "", nil
}

func (h *Handler) onNavCallback(_ context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	r, ok := h.activeRunner(cb.From.ID)
	if !ok {
		return msgNoActiveTest, nil
	}

	var err error
	switch sub := data.param(0); sub {
	case navPrev:
		_, err = r.Prev()
	case navNext:
		_, err = r.Next()
	default:
		i, convErr := strconv.Atoi(sub)
		if convErr != nil {
			return "", nil
		}
		_, err = r.GoTo(i)
	}
	if err != nil {
		return msgNoActiveTest, nil
	}

	h.showQuestion(cb, r.View())
	return "", nil
}

func (h *Handler) onTrackerCallback(_ context.Context, cb *tgbotapi.CallbackQuery, _ callbackData) (string, error) {
	r, ok := h.activeRunner(cb.From.ID)
	if !ok {
		return msgNoActiveTest, nil
	}

	v := r.View()
	_ = h.send(newEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderTracker(v), ptr(buildTrackerKeyboard(v))))
	return "", nil
}

func (h *Handler) onSubmitCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ callbackData) (string, error) {
	r, ok := h.tests.Runner(cb.From.ID)
	if !ok {
		return msgNoActiveTest, nil
	}
	switch r.State() {
	case runner.StateSubmitted:
		return msgAlreadySubmitted, nil
	case runner.StateSubmitting:
		return msgSubmitting, nil
	case runner.StateReady:
		return msgNoActiveTest, nil
	}

	h.submitAsync(ctx, cb.From.ID, func(ctx context.Context) (entities.SubmitResult, error) {
		return r.Submit(ctx, runner.TriggerManual)
	})
	return msgSubmitting, nil
}

func (h *Handler) onExitCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	h.deleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)

	r, ok := h.activeRunner(cb.From.ID)
	if !ok {
		return msgNoActiveTest, nil
	}

	switch data.param(0) {
	case exitStay:
		r.Guard().Stay()
		return msgStayed, nil
	case exitSubmit:
		h.submitAsync(ctx, cb.From.ID, r.Guard().ConfirmExit)
		return msgExitSubmitting, nil
	}
	return "", nil
}

func (h *Handler) onReviewCallback(_ context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	r, ok := h.reviews.Current(cb.From.ID)
	if !ok {
		return msgReviewExpired, nil
	}

	switch sub := data.param(0); sub {
	case navPrev:
		r.Prev()
	case navNext:
		r.Next()
	case navTrk:
		kb := buildReviewTrackerKeyboard(r)
		_ = h.send(newEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderReview(r), &kb))
		return "", nil
	default:
		i, err := strconv.Atoi(sub)
		if err != nil {
			return "", nil
		}
		r.GoTo(i)
	}

	kb := buildReviewKeyboard(r)

	_ = h.send(newEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderReview(r), &kb))
	return "", nil
}

func (h *Handler) onOpenCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	kind, err := entities.ParseTestKind(data.param(0))
	if err != nil {
		return "", nil
	}
	attemptID, ok := data.int64Param(1)
	if !ok {
		return "", nil
	}
	return "", h.openReview(ctx, cb.From.ID, cb.Message.Chat.ID, kind, attemptID)
}

func (h *Handler) onPaperCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	paperID, ok := data.int64Param(0)
	if !ok {
		return "", nil
	}
	ref := entities.TestRef{Kind: entities.TestKindPYQ, ID: paperID}
	return "", h.showRules(ctx, cb.From.ID, cb.Message.Chat.ID, ref)
}

func (h *Handler) showQuestion(cb *tgbotapi.CallbackQuery, v runner.View) {
	_ = h.send(newEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderQuestion(v), ptr(buildQuestionKeyboard(v))))
}

// submitAsync runs a submission off the update loop. The outcome reaches the
// chat through the runner's observer.
func (h *Handler) submitAsync(ctx context.Context, userID int64, submit func(context.Context) (entities.SubmitResult, error)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("recovered from panic in submit", zap.Int64("user_id", userID), zap.Any("panic", r))
			}
		}()

		if _, err := submit(ctx); err != nil {
			h.logger.Debug("submit ended with error", zap.Int64("user_id", userID), zap.Error(err))
		}
	}()
}

func ptr[T any](v T) *T { return &v }
