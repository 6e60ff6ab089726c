package grading

import (
	"testing"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func bookQuestion(expected ...string) *domain.Question {
	key := domain.BookKey{}
	for i, e := range expected {
		key.Questions = append(key.Questions, domain.BookQuestion{QuestionNumber: i + 1, ExpectedAnswer: e})
	}
	return &domain.Question{ID: "q-book", Key: key}
}

func TestEngine_TrueFalse(t *testing.T) {
	e := NewEngine()
	q := &domain.Question{ID: "q1", Key: domain.TrueFalseKey{CorrectAnswer: true}}

	assert.True(t, e.Grade(q, domain.BooleanAnswer{Value: true}))
	assert.False(t, e.Grade(q, domain.BooleanAnswer{Value: false}))
	assert.False(t, e.Grade(q, nil))
}

func TestEngine_RegularTest(t *testing.T) {
	e := NewEngine()
	q := &domain.Question{ID: "q1", Key: domain.ChoiceKey{
		QuestionType: domain.QuestionTypeTextChoice,
		Choices: []domain.AnswerChoice{
			{ID: "a", Label: "A", IsCorrect: false},
			{ID: "b", Label: "B", IsCorrect: true},
		},
	}}

	assert.True(t, e.Grade(q, domain.ChoiceAnswer{ChoiceID: "b"}))
	assert.False(t, e.Grade(q, domain.ChoiceAnswer{ChoiceID: "a"}))
	assert.False(t, e.Grade(q, domain.ChoiceAnswer{ChoiceID: ""}))
	assert.False(t, e.Grade(q, domain.ChoiceAnswer{ChoiceID: "from-another-question"}))
	assert.False(t, e.Grade(q, nil))
}

func TestEngine_Matching(t *testing.T) {
	e := NewEngine()
	q := &domain.Question{ID: "q1", Key: domain.MatchingKey{Pairs: []domain.MatchingPair{
		{LeftItem: "heart", RightItem: "pump"},
		{LeftItem: "lung", RightItem: "breath"},
	}}}

	tests := []struct {
		name    string
		mapping map[string]string
		want    bool
	}{
		{"exact", map[string]string{"heart": "pump", "lung": "breath"}, true},
		{"swapped", map[string]string{"heart": "breath", "lung": "pump"}, false},
		{"missing key", map[string]string{"heart": "pump"}, false},
		{"extra key", map[string]string{"heart": "pump", "lung": "breath", "liver": "filter"}, false},
		{"empty", map[string]string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Grade(q, domain.MatchingAnswer{Mapping: tt.mapping}))
		})
	}

	noPairs := &domain.Question{ID: "q2", Key: domain.MatchingKey{}}
	assert.False(t, e.Grade(noPairs, domain.MatchingAnswer{Mapping: map[string]string{}}))
}

func TestEngine_BookTest(t *testing.T) {
	e := NewEngine()
	q := bookQuestion("A", "B", "C", "D", "E")

	assert.True(t, e.Grade(q, domain.BookAnswer{Answers: []string{"A", "B", "C", "D", "A"}}), "4 of 5 is 80%")
	assert.False(t, e.Grade(q, domain.BookAnswer{Answers: []string{"A", "B", "C", "A", "A"}}), "3 of 5 is 60%")
	assert.False(t, e.Grade(q, domain.BookAnswer{Answers: []string{"A", "B"}}), "short sheet")
	assert.True(t, e.Grade(q, domain.BookAnswer{Answers: []string{"A", "B", "C", "D", "E", "F"}}), "extra lines ignored")
	assert.False(t, e.Grade(q, domain.BookAnswer{}))
	assert.False(t, e.Grade(q, domain.BookAnswer{Answers: []string{" A", "B ", "C", "D", "E"}}), "padded lines do not match")
	assert.False(t, e.Grade(bookQuestion(), domain.BookAnswer{Answers: []string{"A"}}))

	seven := bookQuestion("A", "A", "A", "A", "A", "A", "A", "A", "A", "A")
	assert.True(t, e.Grade(seven, domain.BookAnswer{Answers: []string{"A", "A", "A", "A", "A", "A", "A", "B", "B", "B"}}), "exactly 70%")
}

func TestEngine_MismatchedVariantsGradeFalse(t *testing.T) {
	e := NewEngine()
	tf := &domain.Question{ID: "q1", Key: domain.TrueFalseKey{CorrectAnswer: true}}

	assert.False(t, e.Grade(tf, domain.ChoiceAnswer{ChoiceID: "x"}))
	assert.False(t, e.Grade(tf, domain.BookAnswer{Answers: []string{"true"}}))
	assert.False(t, e.Grade(nil, domain.BooleanAnswer{Value: true}))
	assert.False(t, e.Grade(&domain.Question{ID: "q2"}, domain.BooleanAnswer{Value: true}))
}

func TestEngine_Deterministic(t *testing.T) {
	e := NewEngine()
	q := bookQuestion("A", "B", "C")
	a := domain.BookAnswer{Answers: []string{"A", "B", "X"}}

	first := e.Grade(q, a)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, e.Grade(q, a))
	}
}

func TestEngine_GradeAll(t *testing.T) {
	e := NewEngine()
	questions := map[string]*domain.Question{
		"q1": {ID: "q1", Key: domain.TrueFalseKey{CorrectAnswer: true}},
		"q2": {ID: "q2", Key: domain.TrueFalseKey{CorrectAnswer: false}},
	}
	answers := []*domain.UserAnswer{
		{ID: "a1", QuestionID: "q1", Answer: domain.BooleanAnswer{Value: true}},
		{ID: "a2", QuestionID: "q2", Answer: nil},
		{ID: "a3", QuestionID: "deleted", Answer: domain.BooleanAnswer{Value: true}},
	}

	res := e.GradeAll(questions, answers)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, map[string]bool{"a1": true, "a2": false, "a3": false}, res.Correct)
}
