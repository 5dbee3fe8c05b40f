package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

const dateLayout = "2006-01-02"

// timestamp accepts the handful of layouts the platform uses for dates.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05",
	dateLayout,
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = timestamp(v)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t timestamp) Time() time.Time { return time.Time(t) }

func kindBase(kind entities.TestKind) (string, error) {
	switch kind {
	case entities.TestKindMock:
		return "/api/mock-test", nil
	case entities.TestKindPYQ:
		return "/api/pyq-mock-test", nil
	default:
		return "", fmt.Errorf("%w: %q", entities.ErrUnknownTestKind, kind)
	}
}

// Questions fetches the question set of a mock test or a PYQ paper.
func (c *Client) Questions(ctx context.Context, userID int64, ref entities.TestRef) ([]entities.Question, error) {
	var path string
	switch ref.Kind {
	case entities.TestKindMock:
		path = fmt.Sprintf("/api/mock-test/%d/questions", ref.ID)
	case entities.TestKindPYQ:
		path = fmt.Sprintf("/api/pyq-mock-test/paper/%d/questions", ref.ID)
	default:
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownTestKind, ref.Kind)
	}

	var resp struct {
		envelope
		Data []entities.Question `json:"data"`
	}
	if err := c.do(ctx, userID, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch questions %s: %w", ref, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch questions %s: %w: %s", ref, ErrRejected, resp.Message)
	}
	return resp.Data, nil
}

// Submit sends the answer record and returns the scored result.
func (c *Client) Submit(ctx context.Context, userID int64, ref entities.TestRef, answers []entities.Answer) (entities.SubmitResult, error) {
	if answers == nil {
		answers = []entities.Answer{}
	}

	var (
		path string
		body map[string]any
	)
	switch ref.Kind {
	case entities.TestKindMock:
		path = "/api/mock-test/submit"
		body = map[string]any{"course_id": ref.ID, "answers": answers}
	case entities.TestKindPYQ:
		path = "/api/pyq-mock-test/attempt/submit"
		body = map[string]any{"paper_id": ref.ID, "answers": answers}
	default:
		return entities.SubmitResult{}, fmt.Errorf("%w: %q", entities.ErrUnknownTestKind, ref.Kind)
	}

	var resp struct {
		envelope
		Score          int             `json:"score"`
		TotalQuestions int             `json:"totalQuestions"`
		AttemptID      int64           `json:"attemptId"`
		Data           json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, userID, http.MethodPost, path, nil, body, &resp); err != nil {
		return entities.SubmitResult{}, fmt.Errorf("submit %s: %w", ref, err)
	}

	res := entities.SubmitResult{
		Success:        resp.Success,
		Message:        resp.Message,
		Score:          resp.Score,
		TotalQuestions: resp.TotalQuestions,
		AttemptID:      resp.AttemptID,
	}

	// Older deployments only return the created attempt row under data.
	var row struct {
		ID          int64     `json:"id"`
		SubmittedAt timestamp `json:"submitted_at"`
	}
	if len(resp.Data) > 0 && json.Unmarshal(resp.Data, &row) == nil {
		if res.AttemptID == 0 {
			res.AttemptID = row.ID
		}
		res.SubmittedAt = row.SubmittedAt.Time()
	}

	if !resp.Success {
		return res, fmt.Errorf("submit %s: %w: %s", ref, ErrRejected, resp.Message)
	}
	return res, nil
}

// AttemptDetail fetches a submitted attempt with per-question outcomes.
func (c *Client) AttemptDetail(ctx context.Context, userID int64, kind entities.TestKind, attemptID int64) (entities.AttemptDetail, error) {
	base, err := kindBase(kind)
	if err != nil {
		return entities.AttemptDetail{}, err
	}

	var resp struct {
		envelope
		AttemptID      int64                     `json:"attempt_id"`
		Score          int                       `json:"score"`
		TotalQuestions int                       `json:"total_questions"`
		SubmittedAt    timestamp                 `json:"submitted_at"`
		Data           []entities.ReviewQuestion `json:"data"`
	}
	path := fmt.Sprintf("%s/attempt/%d/details", base, attemptID)
	if err := c.do(ctx, userID, http.MethodGet, path, nil, nil, &resp); err != nil {
		return entities.AttemptDetail{}, fmt.Errorf("fetch attempt %d: %w", attemptID, err)
	}
	if !resp.Success {
		return entities.AttemptDetail{}, fmt.Errorf("fetch attempt %d: %w: %s", attemptID, ErrRejected, resp.Message)
	}

	id := resp.AttemptID
	if id == 0 {
		id = attemptID
	}
	return entities.AttemptDetail{
		AttemptID:      id,
		Kind:           kind,
		Score:          resp.Score,
		TotalQuestions: resp.TotalQuestions,
		SubmittedAt:    resp.SubmittedAt.Time(),
		Questions:      resp.Data,
	}, nil
}

// Attempts lists the attempts of a student submitted between from and to, inclusive dates.
// Zero times leave the corresponding bound open.
func (c *Client) Attempts(ctx context.Context, userID int64, kind entities.TestKind, studentID int64, from, to time.Time) ([]entities.AttemptSummary, error) {
	base, err := kindBase(kind)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if !from.IsZero() {
		query.Set("start_date", from.Format(dateLayout))
	}
	if !to.IsZero() {
		query.Set("end_date", to.Format(dateLayout))
	}

	var resp struct {
		envelope
		Data []struct {
			ID          int64             `json:"id"`
			StudentID   int64             `json:"student_id"`
			CourseID    int64             `json:"course_id"`
			PaperID     int64             `json:"paper_id"`
			Answers     []entities.Answer `json:"answers"`
			Score       int               `json:"score"`
			SubmittedAt timestamp         `json:"submitted_at"`
			Courses     *struct {
				CourseName string `json:"course_name"`
			} `json:"courses"`
			Papers *struct {
				Year     int   `json:"year"`
				CourseID int64 `json:"course_id"`
			} `json:"pyq_papers"`
		} `json:"data"`
	}
	path := base + "/attempts/" + strconv.FormatInt(studentID, 10)
	if err := c.do(ctx, userID, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("list %s attempts: %w", kind, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("list %s attempts: %w: %s", kind, ErrRejected, resp.Message)
	}

	out := make([]entities.AttemptSummary, 0, len(resp.Data))
	for _, a := range resp.Data {
		s := entities.AttemptSummary{
			ID:            a.ID,
			StudentID:     a.StudentID,
			CourseID:      a.CourseID,
			PaperID:       a.PaperID,
			Score:         a.Score,
			AnsweredCount: len(a.Answers),
			SubmittedAt:   a.SubmittedAt.Time(),
		}
		if a.Courses != nil {
			s.CourseName = a.Courses.CourseName
		}
		if a.Papers != nil {
			s.PaperYear = a.Papers.Year
			if s.CourseID == 0 {
				s.CourseID = a.Papers.CourseID
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// Papers lists the previous-year papers of a course.
func (c *Client) Papers(ctx context.Context, userID, courseID int64) ([]entities.Paper, error) {
	var resp struct {
		envelope
		Data []struct {
			ID             int64     `json:"id"`
			CourseID       int64     `json:"course_id"`
			Year           int       `json:"year"`
			TotalQuestions int       `json:"total_questions"`
			CreatedAt      timestamp `json:"created_at"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/api/pyq-mock-test/%d/papers", courseID)
	if err := c.do(ctx, userID, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list papers of course %d: %w", courseID, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("list papers of course %d: %w: %s", courseID, ErrRejected, resp.Message)
	}

	out := make([]entities.Paper, 0, len(resp.Data))
	for _, p := range resp.Data {
		out = append(out, entities.Paper{
			ID:             p.ID,
			CourseID:       p.CourseID,
			Year:           p.Year,
			TotalQuestions: p.TotalQuestions,
			CreatedAt:      p.CreatedAt.Time(),
		})
	}
	return out, nil
}
