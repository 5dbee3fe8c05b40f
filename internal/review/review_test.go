package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisticvicky/mocktest-bot/internal/domain/entities"
)

func ptr(v int64) *int64 { return &v }

func question(id int64, selected *int64, correct bool) entities.ReviewQuestion {
	return entities.ReviewQuestion{
		Question: entities.Question{
			ID:              id,
			CorrectOptionID: id*10 + 1,
			Options: []entities.Option{
				{ID: id*10 + 1, Text: "A"},
				{ID: id*10 + 2, Text: "B"},
				{ID: id*10 + 3, Text: "C"},
			},
		},
		SelectedOptionID: selected,
		IsCorrect:        correct,
	}
}

func TestTreatmentOf(t *testing.T) {
	right := question(1, ptr(11), true)
	assert.Equal(t, TreatCorrect, TreatmentOf(right, 11))
	assert.Equal(t, TreatNeutral, TreatmentOf(right, 12))

	wrong := question(2, ptr(23), false)
	assert.Equal(t, TreatMissed, TreatmentOf(wrong, 21))
	assert.Equal(t, TreatNeutral, TreatmentOf(wrong, 22))
	assert.Equal(t, TreatIncorrect, TreatmentOf(wrong, 23))

	skipped := question(3, nil, false)
	assert.Equal(t, TreatMissed, TreatmentOf(skipped, 31))
	assert.Equal(t, TreatNeutral, TreatmentOf(skipped, 32))
}

func TestReview_BoundsFollowQuestionList(t *testing.T) {
	// The server reports 10 questions but only returns 3.
	r := New(entities.AttemptDetail{
		AttemptID:      5,
		Score:          1,
		TotalQuestions: 10,
		Questions: []entities.ReviewQuestion{
			question(1, ptr(11), true),
			question(2, ptr(23), false),
			question(3, nil, false),
		},
	})

	assert.True(t, r.IsFirst())
	assert.Equal(t, 0, r.Prev())
	assert.Equal(t, 2, r.GoTo(9))
	assert.True(t, r.IsLast())
	assert.Equal(t, 2, r.Next())

	q, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, int64(3), q.ID)
	assert.InDelta(t, 10.0, r.Detail().Accuracy(), 0.001)
}

func TestReview_Markers(t *testing.T) {
	r := New(entities.AttemptDetail{Questions: []entities.ReviewQuestion{
		question(1, ptr(11), true),
		question(2, ptr(23), false),
		question(3, nil, false),
	}})
	r.GoTo(1)

	assert.Equal(t, []Marker{MarkCorrect, MarkCurrent, MarkUnanswered}, r.Markers())

	r.GoTo(0)
	assert.Equal(t, []Marker{MarkCurrent, MarkIncorrect, MarkUnanswered}, r.Markers())
}

func TestReview_Empty(t *testing.T) {
	r := New(entities.AttemptDetail{})

	_, ok := r.Current()
	assert.False(t, ok)
	assert.Empty(t, r.Markers())
	assert.Equal(t, 0, r.Next())
}
