package telegram

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

// notifier mirrors the runner of one user into the chat. Timer edits are
// throttled to opts.TimerRefresh, except on an urgency change and at zero.
type notifier struct {
	h      *Handler
	userID int64
	kind   entities.TestKind

	mu          sync.Mutex
	lastEdit    time.Time
	lastUrgency runner.Urgency
}

var _ runner.Observer = (*notifier)(nil)

func (h *Handler) newNotifier(userID int64, kind entities.TestKind) *notifier {
	return &notifier{h: h, userID: userID, kind: kind}
}

func (n *notifier) Ticked(remaining int) {
	if !n.shouldEdit(remaining) {
		return
	}
	screen, ok := n.h.screens.Get(n.userID)
	if !ok || screen.TimerMsg == 0 {
		return
	}
	_ = n.h.send(newEdit(screen.ChatID, screen.TimerMsg, renderTimer(remaining), nil))
}

func (n *notifier) shouldEdit(remaining int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.h.now()
	urgency := runner.UrgencyFor(remaining)
	if remaining > 0 && urgency == n.lastUrgency && now.Sub(n.lastEdit) < n.h.opts.TimerRefresh {
		return false
	}
	n.lastEdit = now
	n.lastUrgency = urgency
	return true
}

func (n *notifier) Expired() {
	if screen, ok := n.h.screens.Get(n.userID); ok {
		_ = n.h.send(newPlainMessage(screen.ChatID, msgTimeUp))
	}
}

func (n *notifier) Submitted(res entities.SubmitResult) {
	screen, ok := n.h.screens.Get(n.userID)
	if !ok {
		n.h.logger.Warn("submitted without a screen", zap.Int64("user_id", n.userID))
		return
	}
	n.h.screens.Delete(n.userID)

	answered := 0
	remaining := 0
	if r, ok := n.h.tests.Runner(n.userID); ok {
		v := r.View()
		answered = v.AnsweredCount
		remaining = v.Remaining
	}

	if screen.TimerMsg != 0 {
		_ = n.h.send(newEdit(screen.ChatID, screen.TimerMsg, renderTimerStopped(remaining), nil))
	}

	text := renderResult(n.kind, res, answered)
	kb := buildResultKeyboard(n.kind, res.AttemptID)
	if screen.QuestionMsg != 0 {
		// An edit without markup also drops the question keyboard.
		if n.h.send(newEdit(screen.ChatID, screen.QuestionMsg, text, kb)) == nil {
			return
		}
	}

	msg := newMessage(screen.ChatID, text)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	_ = n.h.send(msg)
}

func (n *notifier) SubmitFailed(trigger runner.Trigger, err error) {
	screen, ok := n.h.screens.Get(n.userID)
	if !ok {
		return
	}

	text := msgSubmitFailed
	if trigger.Forced() {
		text = msgForcedFailed
	}
	if known, ok := userMessage(err); ok {
		text = fmt.Sprintf("%s\n\n%s", text, known)
	}

	msg := newPlainMessage(screen.ChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Submit again", buildSubmitCallback()),
		),
	)
	_ = n.h.send(msg)
}

func (n *notifier) Warned(err error) {
	screen, ok := n.h.screens.Get(n.userID)
	if !ok {
		return
	}
	if errors.Is(err, runner.ErrNoAnswers) {
		_ = n.h.send(newPlainMessage(screen.ChatID, msgAnswerOne))
		return
	}
	n.h.logger.Warn("runner warning", zap.Int64("user_id", n.userID), zap.Error(err))
}
