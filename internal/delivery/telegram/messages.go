// messages.go contains message templates and formatting helpers for Telegram.

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	msgWelcome = "👋 Welcome to the mock test bot!\n\n" +
		"Log in with your platform account first:\n" +
		"/login <email or mobile> <password>\n\n" +
		"Then start a test:\n" +
		"/mock <course id> — course mock test\n" +
		"/papers <course id> — previous year papers\n" +
		"/pyq <paper id> — start a paper\n" +
		"/attempts [mock|pyq] [from] [to] — your attempts\n" +
		"/review <mock|pyq> <attempt id> — review answers\n" +
		"/logout — forget your account"

	msgUnknownCommand   = "Unknown command. Send /help to see what I can do."
	msgInternalError    = "Something went wrong. Please try again later."
	msgLoginUsage       = "Usage: /login <email or mobile> <password>"
	msgLoginFailed      = "❌ Invalid email/mobile or password."
	msgLoginRequired    = "🔒 Please log in first: /login <email or mobile> <password>"
	msgLoggedOut        = "👋 Logged out."
	msgMockUsage        = "Usage: /mock <course id>"
	msgPYQUsage         = "Usage: /pyq <paper id>"
	msgPapersUsage      = "Usage: /papers <course id>"
	msgReviewUsage      = "Usage: /review <mock|pyq> <attempt id>"
	msgAttemptsUsage    = "Usage: /attempts [mock|pyq] [YYYY-MM-DD] [YYYY-MM-DD]"
	msgNoQuestions      = "No questions available for this test yet."
	msgNoPapers         = "No previous year papers for this course yet."
	msgNoAttempts       = "No attempts found in this period."
	msgLoadFailed       = "Failed to load questions. Please try again."
	msgTestInProgress   = "⏳ You have a test in progress. Finish or submit it first."
	msgNoActiveTest     = "This test is no longer active."
	msgTestCancelled    = "Test cancelled."
	msgAnswerOne        = "⚠️ Please attempt at least one question."
	msgSubmitting       = "Submitting…"
	msgSubmitFailed     = "❌ Failed to submit the test. Your answers are kept, tap Submit to retry."
	msgForcedFailed     = "❌ Automatic submission failed. Your answers are kept, tap Submit to retry."
	msgAlreadySubmitted = "Already submitted."
	msgTimeUp           = "⏰ Time is up! Submitting your answers…"
	msgExitWarning      = "⚠️ Leave the test?\n\nIf you leave now your answers will be submitted and the attempt ends."
	msgStayed           = "Back to the test."
	msgReviewExpired    = "This review is closed. Open it again with /review."
	msgRejected         = "The platform refused the request: "
	msgNotFound         = "Nothing found with that id."
	msgUseButtons       = "Use the buttons under the question to answer."
	msgLoggedIn         = "✅ Logged in as %s."
	msgExitSubmitting   = "Leaving the test. Submitting your answers…"
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	return msg
}

// newPlainMessage creates a message without parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit replaces the text and keyboard of a message with MarkdownV2 content.
func newEdit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	edit.DisableWebPagePreview = true
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	return edit
}
