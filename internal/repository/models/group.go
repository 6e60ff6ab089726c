package models

import "time"

type Group struct {
	ID                 string    `db:"id"`
	TeacherID          string    `db:"teacher_id"`
	CourseID           string    `db:"course_id"`
	Name               string    `db:"name"`
	GroupEndDate       time.Time `db:"group_end_date"`
	IsActive           bool      `db:"is_active"`
	MaxMemberCount     int       `db:"max_member_count"`
	CurrentMemberCount int       `db:"current_member_count"`
}

type GroupMember struct {
	ID       string    `db:"id"`
	GroupID  string    `db:"group_id"`
	UserID   string    `db:"user_id"`
	IsActive bool      `db:"is_active"`
	JoinedAt time.Time `db:"joined_at"`
}

type TeacherGlobalLimit struct {
	ID        string `db:"id"`
	TeacherID string `db:"teacher_id"`
	CourseID  string `db:"course_id"`
	LimitSize int    `db:"limit_size"`
	Used      int    `db:"used"`
}
