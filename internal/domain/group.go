package domain

import "time"

// Group is a teacher-led cohort studying one course until GroupEndDate.
type Group struct {
	ID                 string
	TeacherID          string
	CourseID           string
	Name               string
	GroupEndDate       time.Time
	IsActive           bool
	MaxMemberCount     int
	CurrentMemberCount int
}

func (g *Group) IsFull() bool {
	return g.MaxMemberCount > 0 && g.CurrentMemberCount >= g.MaxMemberCount
}

type GroupMember struct {
	ID       string
	GroupID  string
	UserID   string
	IsActive bool
	JoinedAt time.Time
}

// TeacherGlobalLimit caps how many students a teacher may enroll into a course.
type TeacherGlobalLimit struct {
	ID        string
	TeacherID string
	CourseID  string
	Limit     int
	Used      int
}

func (l *TeacherGlobalLimit) Remaining() int {
	return l.Limit - l.Used
}
