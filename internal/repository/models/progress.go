package models

import (
	"database/sql"
	"time"
)

type UserCourse struct {
	ID              string       `db:"id"`
	UserID          string       `db:"user_id"`
	CourseID        string       `db:"course_id"`
	IsFreeTrial     bool         `db:"is_free_trial"`
	StartDate       time.Time    `db:"start_date"`
	FinishDate      sql.NullTime `db:"finish_date"`
	IsExpired       bool         `db:"is_expired"`
	IsCompleted     bool         `db:"is_completed"`
	ProgressPercent float64      `db:"progress_percent"`
	CoinsEarned     int64        `db:"coins_earned"`
	PointsEarned    int64        `db:"points_earned"`
}

type UserLesson struct {
	ID              string       `db:"id"`
	UserCourseID    string       `db:"user_course_id"`
	LessonID        string       `db:"lesson_id"`
	IsCompleted     bool         `db:"is_completed"`
	CompletionDate  sql.NullTime `db:"completion_date"`
	ProgressPercent float64      `db:"progress_percent"`
}

type UserLessonPart struct {
	ID             string       `db:"id"`
	UserLessonID   string       `db:"user_lesson_id"`
	LessonPartID   string       `db:"lesson_part_id"`
	IsCompleted    bool         `db:"is_completed"`
	CompletionDate sql.NullTime `db:"completion_date"`
}

// ProgressChain is a user_lesson_parts row joined upward to its user course.
type ProgressChain struct {
	UserLessonPart
	LessonID              string       `db:"ul_lesson_id"`
	UserCourseID          string       `db:"ul_user_course_id"`
	LessonIsCompleted     bool         `db:"ul_is_completed"`
	LessonCompletionDate  sql.NullTime `db:"ul_completion_date"`
	LessonProgressPercent float64      `db:"ul_progress_percent"`
	UserID                string       `db:"uc_user_id"`
	CourseID              string       `db:"uc_course_id"`
	IsFreeTrial           bool         `db:"uc_is_free_trial"`
	StartDate             time.Time    `db:"uc_start_date"`
	FinishDate            sql.NullTime `db:"uc_finish_date"`
	IsExpired             bool         `db:"uc_is_expired"`
	CourseIsCompleted     bool         `db:"uc_is_completed"`
	CourseProgressPercent float64      `db:"uc_progress_percent"`
	CoinsEarned           int64        `db:"uc_coins_earned"`
	PointsEarned          int64        `db:"uc_points_earned"`
}
