package models

import (
	"database/sql"
	"time"
)

type UserTest struct {
	ID             string       `db:"id"`
	UserID         string       `db:"user_id"`
	TestID         string       `db:"test_id"`
	AttemptNumber  int          `db:"attempt_number"`
	StartDate      time.Time    `db:"start_date"`
	FinishDate     sql.NullTime `db:"finish_date"`
	IsInProgress   bool         `db:"is_in_progress"`
	IsSubmitted    bool         `db:"is_submitted"`
	IsPassed       bool         `db:"is_passed"`
	TotalQuestions int          `db:"total_questions"`
	CorrectAnswers int          `db:"correct_answers"`
}

type UserAnswer struct {
	ID         string       `db:"id"`
	UserTestID string       `db:"user_test_id"`
	QuestionID string       `db:"question_id"`
	Answer     JSONB        `db:"answer"`
	IsCorrect  bool         `db:"is_correct"`
	AnsweredAt sql.NullTime `db:"answered_at"`
}
