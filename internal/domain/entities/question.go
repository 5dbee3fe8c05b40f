package entities

// Option is one answer choice of a question.
type Option struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Question is a single multiple-choice item of a mock test or a PYQ paper.
// It is fetched once at test start and never changes during an attempt.
type Question struct {
	ID              int64    `json:"id"`
	CourseID        int64    `json:"course_id,omitempty"` // set for course mock tests
	PaperID         int64    `json:"paper_id,omitempty"`  // set for previous-year papers
	Text            string   `json:"question_text"`
	Options         []Option `json:"options"`
	CorrectOptionID int64    `json:"correct_option_id"` // passthrough, shown only in review
	Difficulty      string   `json:"difficulty,omitempty"`
	ImageURL        *string  `json:"image_url"` // nullable
}

// HasOption reports whether optionID belongs to the question.
func (q Question) HasOption(optionID int64) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// Image returns the image URL or an empty string.
func (q Question) Image() string {
	if q.ImageURL == nil {
		return ""
	}
	return *q.ImageURL
}
