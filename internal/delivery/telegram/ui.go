package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/review"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

const trackerColumns = 5

// buildRulesKeyboard builds keyboard for the rules screen.
func buildRulesKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start test", buildTestCallback(testStart)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", buildTestCallback(testCancel)),
		),
	)
}

// buildQuestionKeyboard builds the options, navigation and submit buttons of a question.
// The submit button only appears on the last question.
func buildQuestionKeyboard(v runner.View) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, o := range v.Question.Options {
		label := fmt.Sprintf("%s %s", optionLetter(i), o.Text)
		if v.HasSelected && v.Selected == o.ID {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(label, 60), buildAnswerCallback(v.Question.ID, o.ID)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if v.Index > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Previous", buildNavCallback(navPrev)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("🗂 %d/%d", v.Index+1, v.Total), buildTrackerCallback()))
	if !v.IsLast() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildNavCallback(navNext)))
	}
	rows = append(rows, nav)

	if v.IsLast() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Submit test", buildSubmitCallback()),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildTrackerKeyboard builds the grid of question numbers with their answered state.
func buildTrackerKeyboard(v runner.View) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, v.Total)
	for i := 0; i < v.Total; i++ {
		label := strconv.Itoa(i + 1)
		switch {
		case i == v.Index:
			label = "👉" + label
		case v.Answered[i]:
			label = "✅" + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, buildJumpCallback(i)))
	}

	rows := gridRows(buttons, trackerColumns)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📤 Submit test", buildSubmitCallback()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildExitKeyboard builds the stay/leave dialog.
func buildExitKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Stay", buildExitCallback(exitStay)),
			tgbotapi.NewInlineKeyboardButtonData("📤 Exit & submit", buildExitCallback(exitSubmit)),
		),
	)
}

// buildResultKeyboard links the result screen to the review of the attempt.
func buildResultKeyboard(kind entities.TestKind, attemptID int64) *tgbotapi.InlineKeyboardMarkup {
	if attemptID == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Review answers", buildOpenCallback(kind, attemptID)),
		),
	)
	return &kb
}

// buildReviewKeyboard builds navigation of the review screen.
func buildReviewKeyboard(r *review.Review) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if !r.IsFirst() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Previous", buildReviewCallback(navPrev)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("🗂 %d/%d", r.Index()+1, r.Len()), buildReviewCallback(navTrk)))
	if !r.IsLast() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildReviewCallback(navNext)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(nav)
}

var markerLabel = map[review.Marker]string{
	review.MarkCurrent:    "👉",
	review.MarkCorrect:    "✅",
	review.MarkIncorrect:  "❌",
	review.MarkUnanswered: "▫️",
}

// buildReviewTrackerKeyboard builds the review grid colored by outcome.
func buildReviewTrackerKeyboard(r *review.Review) tgbotapi.InlineKeyboardMarkup {
	markers := r.Markers()
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(markers))
	for i, m := range markers {
		label := markerLabel[m] + strconv.Itoa(i+1)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, buildReviewJumpCallback(i)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(gridRows(buttons, trackerColumns)...)
}

// buildPapersKeyboard offers one start button per paper.
func buildPapersKeyboard(papers []entities.Paper) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(papers))
	for _, p := range papers {
		label := fmt.Sprintf("📘 %d · %d questions", p.Year, p.TotalQuestions)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildPaperCallback(p.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildAttemptsKeyboard links every listed attempt to its review.
func buildAttemptsKeyboard(kind entities.TestKind, attempts []entities.AttemptSummary) *tgbotapi.InlineKeyboardMarkup {
	if len(attempts) == 0 {
		return nil
	}
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(attempts))
	for i, a := range attempts {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("🔍 #%d", i+1), buildOpenCallback(kind, a.ID)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(gridRows(buttons, trackerColumns)...)
	return &kb
}

func gridRows(buttons []tgbotapi.InlineKeyboardButton, cols int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < len(buttons); start += cols {
		end := min(start+cols, len(buttons))
		rows = append(rows, buttons[start:end])
	}
	return rows
}

func optionLetter(i int) string {
	if i < 26 {
		return string(rune('A'+i)) + "."
	}
	return strconv.Itoa(i+1) + "."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
