package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID             string              `db:"id"`
	Title          string              `db:"title"`
	Price          decimal.NullDecimal `db:"price"`
	DurationMonths int                 `db:"duration_months"`
	IsActive       bool                `db:"is_active"`
}

type Test struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Type           string    `db:"type"`
	QuestionsCount int       `db:"questions_count"`
	TestDuration   int       `db:"test_duration"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
}

// Question is the wide questions row; only the columns of the test's type are set.
type Question struct {
	ID                  string         `db:"id"`
	TestID              string         `db:"test_id"`
	QuestionText        string         `db:"question_text"`
	ImageURL            sql.NullString `db:"image_url"`
	SortOrder           int            `db:"sort_order"`
	IsActive            bool           `db:"is_active"`
	CorrectAnswer       sql.NullBool   `db:"correct_answer"`
	RegularQuestionType sql.NullString `db:"regular_question_type"`
	BookQuestions       JSONB          `db:"book_questions"`
}

type AnswerChoice struct {
	ID         string         `db:"id"`
	QuestionID string         `db:"question_id"`
	Label      string         `db:"label"`
	ChoiceText string         `db:"choice_text"`
	ImageURL   sql.NullString `db:"image_url"`
	IsCorrect  bool           `db:"is_correct"`
}

type MatchingPair struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	LeftItem   string `db:"left_item"`
	RightItem  string `db:"right_item"`
}

// LessonPartContext is a lesson_parts row joined with its lesson and course.
type LessonPartContext struct {
	PartID               string              `db:"part_id"`
	PartType             string              `db:"part_type"`
	PartSortOrder        int                 `db:"part_sort_order"`
	AwardCoin            int64               `db:"award_coin"`
	AwardPoint           int64               `db:"award_point"`
	TestID               sql.NullString      `db:"test_id"`
	PartIsActive         bool                `db:"part_is_active"`
	LessonID             string              `db:"lesson_id"`
	LessonSortOrder      int                 `db:"lesson_sort_order"`
	LessonIsActive       bool                `db:"lesson_is_active"`
	CourseID             string              `db:"course_id"`
	CourseTitle          string              `db:"course_title"`
	CoursePrice          decimal.NullDecimal `db:"course_price"`
	CourseDurationMonths int                 `db:"course_duration_months"`
	CourseIsActive       bool                `db:"course_is_active"`
}
