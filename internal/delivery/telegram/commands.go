package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

func (h *Handler) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	userID := m.From.ID
	chatID := m.Chat.ID
	args := m.CommandArguments()

	switch m.Command() {
	case "start", "help":
		_ = h.send(newPlainMessage(chatID, msgWelcome))

	case "login":
		// The message carries a password, it must not stay in the chat.
		h.deleteMessage(chatID, m.MessageID)
		_ = h.withErrorHandling(h.handleLogin(userID, args))(ctx, chatID)

	case "logout":
		_ = h.withErrorHandling(h.handleLogout(userID))(ctx, chatID)

	case "mock":
		_ = h.withErrorHandling(h.handleStartTest(userID, entities.TestKindMock, args, msgMockUsage))(ctx, chatID)

	case "pyq":
		_ = h.withErrorHandling(h.handleStartTest(userID, entities.TestKindPYQ, args, msgPYQUsage))(ctx, chatID)

	case "papers":
		_ = h.withErrorHandling(h.handlePapers(userID, args))(ctx, chatID)

	case "attempts":
		_ = h.withErrorHandling(h.handleAttempts(userID, args))(ctx, chatID)

	case "review":
		_ = h.withErrorHandling(h.handleReview(userID, args))(ctx, chatID)

	default:
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

// handleLogin exchanges platform credentials for tokens.
func (h *Handler) handleLogin(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return h.send(newPlainMessage(chatID, msgLoginUsage))
		}

		identity, err := h.auth.Login(ctx, userID, chatID, fields[0], fields[1])
		if err != nil {
			return err
		}

		name := identity.UserName
		if name == "" {
			name = fields[0]
		}
		h.logger.Info("user logged in",
			zap.Int64("user_id", userID),
			zap.Int64("student_id", identity.StudentID),
		)
		return h.send(newPlainMessage(chatID, fmt.Sprintf(msgLoggedIn, name)))
	}
}

func (h *Handler) handleLogout(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := h.tests.Discard(userID); err != nil {
			return err
		}
		h.reviews.Close(userID)
		h.screens.Delete(userID)

		if err := h.auth.Logout(ctx, userID); err != nil {
			return err
		}
		return h.send(newPlainMessage(chatID, msgLoggedOut))
	}
}

// handleStartTest parses the id argument and shows the rules screen.
func (h *Handler) handleStartTest(userID int64, kind entities.TestKind, args, usage string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		id, err := parseID(args)
		if err != nil {
			return h.send(newPlainMessage(chatID, usage))
		}
		return h.showRules(ctx, userID, chatID, entities.TestRef{Kind: kind, ID: id})
	}
}

// showRules loads the question set and parks the test on the rules screen.
func (h *Handler) showRules(ctx context.Context, userID, chatID int64, ref entities.TestRef) error {
	r, err := h.tests.Prepare(ctx, userID, ref, h.newNotifier(userID, ref.Kind))
	if err != nil {
		return err
	}

	msg := newMessage(chatID, renderRules(ref, r.View().Total, h.opts.TestDuration))
	msg.ReplyMarkup = buildRulesKeyboard()
	sent, err := h.sendMessage(msg)
	if err != nil {
		return err
	}

	h.screens.Store(userID, storage.Screen{ChatID: chatID, QuestionMsg: sent.MessageID})
	h.logger.Info("test prepared",
		zap.Int64("user_id", userID),
		zap.String("ref", ref.String()),
	)
	return nil
}

func (h *Handler) handlePapers(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		courseID, err := parseID(args)
		if err != nil {
			return h.send(newPlainMessage(chatID, msgPapersUsage))
		}

		papers, err := h.tests.Papers(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if len(papers) == 0 {
			return h.send(newPlainMessage(chatID, msgNoPapers))
		}

		msg := newMessage(chatID, renderPapers(courseID, papers))
		msg.ReplyMarkup = buildPapersKeyboard(papers)
		return h.send(msg)
	}
}

func (h *Handler) handleAttempts(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		q, err := parseAttemptsArgs(args)
		if err != nil {
			return h.send(newPlainMessage(chatID, msgAttemptsUsage))
		}

		attempts, err := h.reviews.Attempts(ctx, userID, q.Kind, q.From, q.To)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			return h.send(newPlainMessage(chatID, msgNoAttempts))
		}

		msg := newMessage(chatID, renderAttempts(q.Kind, q.From, q.To, attempts))
		if kb := buildAttemptsKeyboard(q.Kind, attempts); kb != nil {
			msg.ReplyMarkup = kb
		}
		return h.send(msg)
	}
}

func (h *Handler) handleReview(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		kind, id, err := parseReviewArgs(args)
		if err != nil {
			return h.send(newPlainMessage(chatID, msgReviewUsage))
		}
		return h.openReview(ctx, userID, chatID, kind, id)
	}
}

// openReview loads an attempt and sends its first question.
func (h *Handler) openReview(ctx context.Context, userID, chatID int64, kind entities.TestKind, attemptID int64) error {
	r, err := h.reviews.Open(ctx, userID, kind, attemptID)
	if err != nil {
		return err
	}

	msg := newMessage(chatID, renderReview(r))
	if r.Len() > 0 {
		msg.ReplyMarkup = buildReviewKeyboard(r)
	}
	return h.send(msg)
}
