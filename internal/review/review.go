// Package review navigates a submitted attempt read-only.
package review

import (
	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

// Treatment is how an option is highlighted on the review screen.
type Treatment string

const (
	TreatCorrect   Treatment = "correct"   // the right option and the user picked it
	TreatMissed    Treatment = "missed"    // the right option, not picked
	TreatIncorrect Treatment = "incorrect" // picked but wrong
	TreatNeutral   Treatment = "neutral"
)

// Marker is the tracker state of one question.
type Marker string

const (
	MarkCurrent    Marker = "current"
	MarkCorrect    Marker = "correct"
	MarkIncorrect  Marker = "incorrect"
	MarkUnanswered Marker = "unanswered"
)

// Review is a cursor over the questions of an attempt. Bounds come from the
// question list the server returned, never from the reported total.
type Review struct {
	detail entities.AttemptDetail
	cursor *runner.Cursor
}

func New(detail entities.AttemptDetail) *Review {
	return &Review{
		detail: detail,
		cursor: runner.NewCursor(len(detail.Questions)),
	}
}

func (r *Review) Detail() entities.AttemptDetail { return r.detail }

func (r *Review) Len() int { return len(r.detail.Questions) }

func (r *Review) Index() int { return r.cursor.Index() }

func (r *Review) Next() int { return r.cursor.Next() }

func (r *Review) Prev() int { return r.cursor.Prev() }

func (r *Review) GoTo(i int) int { return r.cursor.GoTo(i) }

func (r *Review) IsFirst() bool { return r.cursor.IsFirst() }

func (r *Review) IsLast() bool { return r.cursor.IsLast() }

// Current returns the displayed question. ok is false for an attempt without questions.
func (r *Review) Current() (entities.ReviewQuestion, bool) {
	if r.Len() == 0 {
		return entities.ReviewQuestion{}, false
	}
	return r.detail.Questions[r.cursor.Index()], true
}

// TreatmentOf classifies an option of q.
func TreatmentOf(q entities.ReviewQuestion, optionID int64) Treatment {
	selected := q.SelectedOptionID != nil && *q.SelectedOptionID == optionID
	switch {
	case optionID == q.CorrectOptionID && selected:
		return TreatCorrect
	case optionID == q.CorrectOptionID:
		return TreatMissed
	case selected:
		return TreatIncorrect
	default:
		return TreatNeutral
	}
}

// Markers returns the tracker state for every question.
func (r *Review) Markers() []Marker {
	out := make([]Marker, len(r.detail.Questions))
	for i, q := range r.detail.Questions {
		switch {
		case i == r.cursor.Index():
			out[i] = MarkCurrent
		case q.IsCorrect:
			out[i] = MarkCorrect
		case !q.Answered():
			out[i] = MarkUnanswered
		default:
			out[i] = MarkIncorrect
		}
	}
	return out
}
