package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/review"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

const dateLayout = "2006-01-02"

var urgencyIcon = map[runner.Urgency]string{
	runner.UrgencyCalm:     "🟢",
	runner.UrgencyWarning:  "🟡",
	runner.UrgencyCritical: "🔴",
}

func kindTitle(kind entities.TestKind) string {
	if kind == entities.TestKindPYQ {
		return "PYQ Mock Test"
	}
	return "Mock Test"
}

// renderRules renders the screen shown before the timer starts.
func renderRules(ref entities.TestRef, questions int, duration time.Duration) string {
	var b strings.Builder
	b.WriteString(bold("📜 " + kindTitle(ref.Kind) + " rules"))
	b.WriteString("\n\n")
	for _, line := range []string{
		fmt.Sprintf("• %d questions, %s to finish.", questions, runner.FormatClock(int(duration/time.Second))),
		"• Every question has one correct option.",
		"• You can change an answer any time before submitting.",
		"• Skipped questions are not scored.",
		"• When the time is up your answers are submitted automatically.",
		"• Leaving the test submits it.",
	} {
		b.WriteString(md(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(italic("The timer starts when you tap Start."))
	return b.String()
}

// renderQuestion renders the displayed question. The correct option is never shown here.
func renderQuestion(v runner.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", bold(fmt.Sprintf("Question %d of %d", v.Index+1, v.Total)))
	b.WriteString(md(v.Question.Text))
	if img := v.Question.Image(); img != "" {
		fmt.Fprintf(&b, "\n\n[%s](%s)", md("🖼 Image"), escapeURL(img))
	}
	b.WriteString("\n\n")
	for i, o := range v.Question.Options {
		mark := "▫️"
		if v.HasSelected && v.Selected == o.ID {
			mark = "🔘"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, md(optionLetter(i)+" "+o.Text))
	}
	fmt.Fprintf(&b, "\n%s", italic(fmt.Sprintf("Answered %d of %d", v.AnsweredCount, v.Total)))
	return b.String()
}

// renderTracker renders the header of the question grid.
func renderTracker(v runner.View) string {
	return fmt.Sprintf("%s\n\n%s",
		bold("🗂 Questions"),
		md(fmt.Sprintf("Answered %d of %d. Tap a number to jump to it.", v.AnsweredCount, v.Total)),
	)
}

// renderTimer renders the countdown line.
func renderTimer(remaining int) string {
	return fmt.Sprintf("%s %s", urgencyIcon[runner.UrgencyFor(remaining)], bold("⏱ "+runner.FormatClock(remaining)))
}

// renderTimerStopped renders the countdown line after submission.
func renderTimerStopped(remaining int) string {
	return md(fmt.Sprintf("⏱ Stopped with %s left", runner.FormatClock(remaining)))
}

// renderResult renders the result screen of a submission.
func renderResult(kind entities.TestKind, res entities.SubmitResult, answered int) string {
	var b strings.Builder
	b.WriteString(bold("🏆 " + kindTitle(kind) + " submitted"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s\n", md(fmt.Sprintf("Score: %d / %d", res.Score, res.TotalQuestions)))
	fmt.Fprintf(&b, "%s\n", md(fmt.Sprintf("Answered: %d", answered)))
	if res.TotalQuestions > 0 {
		fmt.Fprintf(&b, "%s\n", md(fmt.Sprintf("Accuracy: %.1f%%", float64(res.Score)/float64(res.TotalQuestions)*100)))
	}
	if res.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", italic(res.Message))
	}
	if !res.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "\n%s", md("Submitted "+res.SubmittedAt.Format("02 Jan 2006, 15:04")))
	}
	return b.String()
}

var treatmentMark = map[review.Treatment]string{
	review.TreatCorrect:   "✅",
	review.TreatMissed:    "☑️",
	review.TreatIncorrect: "❌",
	review.TreatNeutral:   "▫️",
}

// renderReview renders the displayed question of a review with its outcome.
func renderReview(r *review.Review) string {
	d := r.Detail()
	q, ok := r.Current()
	if !ok {
		return md("This attempt has no questions.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", bold(fmt.Sprintf("🔍 Attempt #%d", d.AttemptID)))
	fmt.Fprintf(&b, "%s\n", md(fmt.Sprintf("Score %d / %d · Accuracy %.1f%%", d.Score, d.TotalQuestions, d.Accuracy())))
	if !d.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "%s\n", italic(d.SubmittedAt.Format("02 Jan 2006, 15:04")))
	}

	outcome := "❌ Incorrect"
	switch {
	case q.IsCorrect:
		outcome = "✅ Correct"
	case !q.Answered():
		outcome = "▫️ Not answered"
	}
	fmt.Fprintf(&b, "\n%s  %s\n\n", bold(fmt.Sprintf("Q%d.", r.Index()+1)), md(outcome))
	b.WriteString(md(q.Text))
	if img := q.Image(); img != "" {
		fmt.Fprintf(&b, "\n\n[%s](%s)", md("🖼 Image"), escapeURL(img))
	}
	b.WriteString("\n\n")
	for i, o := range q.Options {
		fmt.Fprintf(&b, "%s %s\n", treatmentMark[review.TreatmentOf(q, o.ID)], md(optionLetter(i)+" "+o.Text))
	}
	return b.String()
}

// renderPapers renders the list of previous-year papers of a course.
func renderPapers(courseID int64, papers []entities.Paper) string {
	var b strings.Builder
	b.WriteString(bold(fmt.Sprintf("📚 Previous year papers of course %d", courseID)))
	b.WriteString("\n\n")
	for _, p := range papers {
		fmt.Fprintf(&b, "%s\n", md(fmt.Sprintf("• %d · %d questions · id %d", p.Year, p.TotalQuestions, p.ID)))
	}
	b.WriteString("\n")
	b.WriteString(italic("Tap a paper to see its rules."))
	return b.String()
}

// renderAttempts renders the attempts list with the date window it covers.
func renderAttempts(kind entities.TestKind, from, to time.Time, attempts []entities.AttemptSummary) string {
	var b strings.Builder
	b.WriteString(bold("🧾 " + kindTitle(kind) + " attempts"))
	if !from.IsZero() || !to.IsZero() {
		fmt.Fprintf(&b, "\n%s", italic(formatWindow(from, to)))
	}
	b.WriteString("\n\n")

	for i, a := range attempts {
		title := a.CourseName
		if kind == entities.TestKindPYQ && a.PaperYear != 0 {
			title = fmt.Sprintf("%d paper", a.PaperYear)
		}
		if title == "" {
			title = fmt.Sprintf("Attempt %d", a.ID)
		}
		line := fmt.Sprintf("#%d %s · score %d · answered %d · %s",
			i+1, title, a.Score, a.AnsweredCount, a.SubmittedAt.Format("02 Jan 2006 15:04"))
		fmt.Fprintf(&b, "%s\n", md(line))
	}
	return b.String()
}

func formatWindow(from, to time.Time) string {
	switch {
	case from.IsZero():
		return "until " + to.Format(dateLayout)
	case to.IsZero():
		return "since " + from.Format(dateLayout)
	default:
		return from.Format(dateLayout) + " – " + to.Format(dateLayout)
	}
}

// escapeURL escapes the characters MarkdownV2 forbids inside a link target.
func escapeURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(u)
}
