package entities

import "time"

// Answer is one entry of the answer record in its wire shape.
type Answer struct {
	QuestionID       int64 `json:"question_id"`
	SelectedOptionID int64 `json:"selected_option_id"`
}

// SubmitResult is the scored outcome of a successful submission.
// It is created once per run and never mutated afterwards.
type SubmitResult struct {
	Success        bool
	Message        string
	Score          int
	TotalQuestions int
	AttemptID      int64
	SubmittedAt    time.Time // assigned when the success response arrives
}

// ReviewQuestion is a question of a submitted attempt with the user's outcome.
type ReviewQuestion struct {
	Question
	SelectedOptionID *int64 `json:"selected_option_id"` // nil when the question was skipped
	IsCorrect        bool   `json:"is_correct"`
}

// Answered reports whether the user selected any option.
func (q ReviewQuestion) Answered() bool {
	return q.SelectedOptionID != nil
}

// AttemptDetail is the read-only payload of the review screen.
type AttemptDetail struct {
	AttemptID      int64
	Kind           TestKind
	Score          int
	TotalQuestions int
	SubmittedAt    time.Time
	Questions      []ReviewQuestion
}

// Accuracy returns the score as a percentage of total questions.
func (d AttemptDetail) Accuracy() float64 {
	if d.TotalQuestions <= 0 {
		return 0
	}
	return float64(d.Score) / float64(d.TotalQuestions) * 100
}

// AttemptSummary is one row of the attempts list.
type AttemptSummary struct {
	ID            int64
	StudentID     int64
	CourseID      int64
	PaperID       int64
	CourseName    string
	PaperYear     int
	Score         int
	AnsweredCount int
	SubmittedAt   time.Time
}
