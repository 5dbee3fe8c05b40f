package entities

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrUnknownTestKind = errors.New("unknown test kind")

// TestKind distinguishes the course mock test from a previous-year-questions paper.
// Both kinds run through the same state machine.
type TestKind string

const (
	TestKindMock TestKind = "mock"
	TestKindPYQ  TestKind = "pyq"
)

// ParseTestKind validates a kind string coming from a command or a callback.
func ParseTestKind(s string) (TestKind, error) {
	switch TestKind(s) {
	case TestKindMock, TestKindPYQ:
		return TestKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTestKind, s)
	}
}

// TestRef identifies the question set a runner was started for.
type TestRef struct {
	Kind TestKind
	ID   int64 // course id for mock, paper id for pyq
}

func (r TestRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}

// Paper is an archived question paper available as a PYQ test.
type Paper struct {
	ID             int64     `json:"id"`
	CourseID       int64     `json:"course_id"`
	Year           int       `json:"year"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}
