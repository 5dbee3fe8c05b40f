package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/infra/api"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
	"github.com/artisticvicky/mocktest-bot/internal/service"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling reports failures of fn to the chat. Known errors get a
// specific message, the rest are logged and answered with a generic one.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		text, known := userMessage(err)
		if known {
			h.logger.Debug("handled error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		} else {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}
		h.sendError(chatID, text)
		return nil
	}
}

// userMessage maps an error to what the user is told about it.
func userMessage(err error) (string, bool) {
	var status *api.StatusError
	switch {
	case errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, entities.ErrNoCredentials),
		errors.Is(err, api.ErrUnauthorized):
		return msgLoginRequired, true
	case errors.Is(err, api.ErrInvalidCredentials):
		return msgLoginFailed, true
	case errors.Is(err, service.ErrTestInProgress):
		return msgTestInProgress, true
	case errors.Is(err, service.ErrNoActiveTest):
		return msgNoActiveTest, true
	case errors.Is(err, runner.ErrNoQuestions):
		return msgNoQuestions, true
	case errors.Is(err, entities.ErrUnknownTestKind):
		return msgReviewUsage, true
	case errors.Is(err, api.ErrRejected):
		return msgRejected + rejectionReason(err), true
	case errors.As(err, &status) && status.Code == http.StatusNotFound:
		return msgNotFound, true
	}
	return msgInternalError, false
}

// rejectionReason returns the platform message carried after the last colon.
func rejectionReason(err error) string {
	s := err.Error()
	if i := strings.LastIndex(s, ": "); i >= 0 {
		return s[i+2:]
	}
	return s
}
