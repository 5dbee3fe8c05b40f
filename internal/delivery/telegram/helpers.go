package telegram

import (
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

var errBadArguments = errors.New("bad command arguments")

// parseID parses a single positive id argument.
func parseID(args string) (int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, errBadArguments
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadArguments
	}
	return id, nil
}

// attemptsQuery is the parsed form of "/attempts [kind] [from] [to]".
type attemptsQuery struct {
	Kind     entities.TestKind
	From, To time.Time
}

func parseAttemptsArgs(args string) (attemptsQuery, error) {
	q := attemptsQuery{Kind: entities.TestKindMock}
	fields := strings.Fields(args)

	if len(fields) > 0 {
		if kind, err := entities.ParseTestKind(strings.ToLower(fields[0])); err == nil {
			q.Kind = kind
			fields = fields[1:]
		}
	}
	if len(fields) > 2 {
		return q, errBadArguments
	}

	dates := make([]time.Time, len(fields))
	for i, f := range fields {
		d, err := time.Parse(dateLayout, f)
		if err != nil {
			return q, errBadArguments
		}
		dates[i] = d
	}
	switch len(dates) {
	case 1:
		q.From = dates[0]
	case 2:
		q.From, q.To = dates[0], dates[1]
		if q.To.Before(q.From) {
			return q, errBadArguments
		}
	}
	return q, nil
}

// parseReviewArgs parses "<kind> <attempt id>".
func parseReviewArgs(args string) (entities.TestKind, int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, errBadArguments
	}
	kind, err := entities.ParseTestKind(strings.ToLower(fields[0]))
	if err != nil {
		return "", 0, errBadArguments
	}
	id, err := parseID(fields[1])
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

// answerCallback removes the loading state of the pressed button.
func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	h.request(tgbotapi.NewCallback(cb.ID, text))
}

// deleteMessage removes a message, used for credentials and stale dialogs.
func (h *Handler) deleteMessage(chatID int64, messageID int) {
	h.request(tgbotapi.NewDeleteMessage(chatID, messageID))
}
