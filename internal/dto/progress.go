package dto

// LessonPartCompletionResponse reports the effect of completing a lesson part.
// @Description Lesson part completion result
type LessonPartCompletionResponse struct {
	UserLessonPartID string        `json:"user_lesson_part_id"`
	LessonPartID     string        `json:"lesson_part_id"`
	Completed        bool          `json:"completed"`
	Awarded          AwardResponse `json:"awarded"`
	LessonCompleted  bool          `json:"lesson_completed"`
	CourseCompleted  bool          `json:"course_completed"`
	LessonProgress   float64       `json:"lesson_progress"`
	CourseProgress   float64       `json:"course_progress"`
}

// AddGroupMemberRequest names the student to enroll.
// @Description Group member enrollment request
type AddGroupMemberRequest struct {
	UserID string `json:"user_id"`
}

// GroupMemberResponse is the created membership.
// @Description Group membership
type GroupMemberResponse struct {
	ID           string `json:"id"`
	GroupID      string `json:"group_id"`
	UserID       string `json:"user_id"`
	UserCourseID string `json:"user_course_id"`
	MemberCount  int    `json:"member_count"`
}
