// Package grading decides whether a submitted answer is correct.
//
// Grading is pure: the same question and answer always produce the same
// result, and a missing or mismatched answer is simply incorrect.
package grading

import (
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
)

// BookPassRatio is the share of book sheet lines that must match.
const BookPassRatio = 0.7

// Strategy grades one answer variant against its key.
type Strategy interface {
	Grade(key domain.AnswerKey, answer domain.Answer) bool
}

// Engine routes by answer tag to the matching Strategy.
type Engine struct {
	strategies map[domain.TestType]Strategy
}

// NewEngine installs the built-in strategies.
func NewEngine() *Engine {
	return &Engine{
		strategies: map[domain.TestType]Strategy{
			domain.TestTypeTrueFalse:   trueFalseStrategy{},
			domain.TestTypeRegularTest: choiceStrategy{},
			domain.TestTypeMatching:    matchingStrategy{},
			domain.TestTypeBookTest:    bookStrategy{ratio: BookPassRatio},
		},
	}
}

// Grade returns whether answer is correct for q.
func (e *Engine) Grade(q *domain.Question, answer domain.Answer) bool {
	if q == nil || q.Key == nil || answer == nil {
		return false
	}
	if answer.TestType() != q.Key.TestType() {
		return false
	}
	s, ok := e.strategies[answer.TestType()]
	if !ok {
		return false
	}
	return s.Grade(q.Key, answer)
}

// Result is the outcome of grading a whole attempt.
type Result struct {
	Correct map[string]bool // by answer ID
	Total   int
	Score   int
}

// GradeAll grades every answer slot. Slots whose question is missing from
// questions grade as incorrect.
func (e *Engine) GradeAll(questions map[string]*domain.Question, answers []*domain.UserAnswer) Result {
	res := Result{Correct: make(map[string]bool, len(answers)), Total: len(answers)}
	for _, a := range answers {
		ok := e.Grade(questions[a.QuestionID], a.Answer)
		res.Correct[a.ID] = ok
		if ok {
			res.Score++
		}
	}
	return res
}

// --- Strategies ---

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(key domain.AnswerKey, answer domain.Answer) bool {
	k, ok := key.(domain.TrueFalseKey)
	if !ok {
		return false
	}
	a, ok := answer.(domain.BooleanAnswer)
	return ok && a.Value == k.CorrectAnswer
}

type choiceStrategy struct{}

func (choiceStrategy) Grade(key domain.AnswerKey, answer domain.Answer) bool {
	k, ok := key.(domain.ChoiceKey)
	if !ok {
		return false
	}
	a, ok := answer.(domain.ChoiceAnswer)
	if !ok || a.ChoiceID == "" {
		return false
	}
	choice, found := k.Choice(a.ChoiceID)
	return found && choice.IsCorrect
}

type matchingStrategy struct{}

func (matchingStrategy) Grade(key domain.AnswerKey, answer domain.Answer) bool {
	k, ok := key.(domain.MatchingKey)
	if !ok || len(k.Pairs) == 0 {
		return false
	}
	a, ok := answer.(domain.MatchingAnswer)
	if !ok || len(a.Mapping) == 0 {
		return false
	}
	want := k.Mapping()
	if len(want) != len(a.Mapping) {
		return false
	}
	for left, right := range want {
		got, present := a.Mapping[left]
		if !present || got != right {
			return false
		}
	}
	return true
}

type bookStrategy struct{ ratio float64 }

func (s bookStrategy) Grade(key domain.AnswerKey, answer domain.Answer) bool {
	k, ok := key.(domain.BookKey)
	if !ok || len(k.Questions) == 0 {
		return false
	}
	a, ok := answer.(domain.BookAnswer)
	if !ok || len(a.Answers) == 0 {
		return false
	}
	matches := 0
	for i, q := range k.Questions {
		if i < len(a.Answers) && a.Answers[i] == q.ExpectedAnswer {
			matches++
		}
	}
	return float64(matches)/float64(len(k.Questions)) >= s.ratio
}
