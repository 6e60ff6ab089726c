package domain

import (
	"math"
	"time"
)

// PassThresholdPercent is the minimum score_percent for a passed attempt.
const PassThresholdPercent = 70.0

// UserTest is one attempt of a user at a test.
type UserTest struct {
	ID             string
	UserID         string
	TestID         string
	AttemptNumber  int
	StartDate      time.Time
	FinishDate     *time.Time
	IsInProgress   bool
	IsSubmitted    bool
	IsPassed       bool
	TotalQuestions int
	CorrectAnswers int
}

// IsActive reports whether answers can still be written to the attempt.
func (t *UserTest) IsActive() bool {
	return t != nil && t.IsInProgress && !t.IsSubmitted
}

// ScorePercent returns correct/total as a percentage rounded to two decimals.
func (t *UserTest) ScorePercent() float64 {
	return ScorePercent(t.CorrectAnswers, t.TotalQuestions)
}

func ScorePercent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}

// Finish closes the attempt with the given grading totals.
func (t *UserTest) Finish(total, correct int, now time.Time) {
	t.TotalQuestions = total
	t.CorrectAnswers = correct
	t.IsSubmitted = true
	t.IsInProgress = false
	t.IsPassed = ScorePercent(correct, total) >= PassThresholdPercent
	t.FinishDate = &now
}

// UserAnswer is the answer slot of one sampled question inside an attempt.
type UserAnswer struct {
	ID         string
	UserTestID string
	QuestionID string
	Answer     Answer
	IsCorrect  bool
	AnsweredAt *time.Time
}
