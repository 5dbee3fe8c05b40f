package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/runner"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

// Options tune the test screens.
type Options struct {
	TestDuration time.Duration // shown on the rules screen
	TimerRefresh time.Duration // minimum gap between timer edits
}

type Handler struct {
	bot     BotAPI
	logger  *zap.Logger
	auth    AuthService
	tests   TestService
	reviews ReviewService
	screens *storage.ScreenStorage
	opts    Options
	now     func() time.Time
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	auth AuthService,
	tests TestService,
	reviews ReviewService,
	screens *storage.ScreenStorage,
	opts Options,
) *Handler {
	if opts.TimerRefresh <= 0 {
		opts.TimerRefresh = 5 * time.Second
	}
	return &Handler{
		bot:     bot,
		logger:  logger,
		auth:    auth,
		tests:   tests,
		reviews: reviews,
		screens: screens,
		opts:    opts,
		now:     time.Now,
	}
}

// Run polls updates until ctx is done. ctx also bounds every running test.
func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer h.recover(update)

	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.Bool("command", update.Message.IsCommand()),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID
	if err := h.auth.EnsureUser(ctx, from.ID, chatID); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	}

	if !update.Message.IsCommand() {
		text := msgUnknownCommand
		if r, ok := h.tests.Runner(from.ID); ok && r.State() == runner.StateInProgress {
			text = msgUseButtons
		}
		_ = h.send(newPlainMessage(chatID, text))
		return
	}

	if h.interceptExit(from.ID, chatID) {
		return
	}

	h.handleCommand(ctx, update.Message)
}

// interceptExit turns any input that would leave a running test into the
// stay/exit dialog. It reports whether the input was consumed.
func (h *Handler) interceptExit(userID, chatID int64) bool {
	r, ok := h.tests.Runner(userID)
	if !ok || r.State() != runner.StateInProgress {
		return false
	}

	if r.Guard().AttemptExit() {
		msg := newPlainMessage(chatID, msgExitWarning)
		msg.ReplyMarkup = buildExitKeyboard()
		_ = h.send(msg)
	}
	return true
}

// recover keeps one broken update from taking the poll loop down.
func (h *Handler) recover(update tgbotapi.Update) {
	r := recover()
	if r == nil {
		return
	}

	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	h.logger.Error("recovered from panic",
		zap.Int("update_id", update.UpdateID),
		zap.Error(err),
		zap.Stack("stack"),
	)

	if chat := update.FromChat(); chat != nil {
		h.sendError(chat.ID, msgInternalError)
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	_, err := h.sendMessage(c)
	return err
}

// sendMessage sends c and returns the sent message. Edits that change
// nothing are not errors.
func (h *Handler) sendMessage(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := h.bot.Send(c)
	if err != nil {
		if isNotModified(err) {
			return m, nil
		}
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return m, err
	}
	return m, nil
}

// request performs calls whose result is not a message, such as deletes.
func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.bot.Request(c); err != nil && !isNotModified(err) {
		h.logger.Warn("telegram request failed", zap.Error(err))
	}
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
