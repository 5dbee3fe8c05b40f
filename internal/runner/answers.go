package runner

import (
	"sort"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

// AnswerStore maps question id to the selected option id.
// It is not safe for concurrent use; Runner guards it.
type AnswerStore struct {
	selected map[int64]int64
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{selected: make(map[int64]int64)}
}

// Select records optionID for questionID, overwriting any previous choice.
func (s *AnswerStore) Select(questionID, optionID int64) {
	s.selected[questionID] = optionID
}

// Selected returns the option chosen for questionID.
func (s *AnswerStore) Selected(questionID int64) (int64, bool) {
	id, ok := s.selected[questionID]
	return id, ok
}

// IsAnswered reports whether questionID has a selection.
func (s *AnswerStore) IsAnswered(questionID int64) bool {
	_, ok := s.selected[questionID]
	return ok
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	return len(s.selected)
}

// Keys returns answered question ids in ascending order.
func (s *AnswerStore) Keys() []int64 {
	keys := make([]int64, 0, len(s.selected))
	for k := range s.selected {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Snapshot returns the answer record in question order, skipping unanswered ones.
func (s *AnswerStore) Snapshot(order []entities.Question) []entities.Answer {
	out := make([]entities.Answer, 0, len(s.selected))
	for _, q := range order {
		if opt, ok := s.selected[q.ID]; ok {
			out = append(out, entities.Answer{QuestionID: q.ID, SelectedOptionID: opt})
		}
	}
	return out
}

// Reset drops every selection.
func (s *AnswerStore) Reset() {
	clear(s.selected)
}
