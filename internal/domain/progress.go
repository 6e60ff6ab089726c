package domain

import (
	"math"
	"time"
)

// UserCourse is a user's access to and progress through a course.
type UserCourse struct {
	ID              string
	UserID          string
	CourseID        string
	IsFreeTrial     bool
	StartDate       time.Time
	FinishDate      *time.Time
	IsExpired       bool
	IsCompleted     bool
	ProgressPercent float64
	CoinsEarned     int64
	PointsEarned    int64
}

// HasPaidAccess reports whether the row grants full, unexpired access.
func (uc *UserCourse) HasPaidAccess() bool {
	return uc != nil && !uc.IsFreeTrial && !uc.IsExpired
}

type UserLesson struct {
	ID              string
	UserCourseID    string
	LessonID        string
	IsCompleted     bool
	CompletionDate  *time.Time
	ProgressPercent float64
}

type UserLessonPart struct {
	ID             string
	UserLessonID   string
	LessonPartID   string
	IsCompleted    bool
	CompletionDate *time.Time
}

// ProgressChain is the UserCourse/UserLesson/UserLessonPart triple tracking one lesson part.
type ProgressChain struct {
	Course *UserCourse
	Lesson *UserLesson
	Part   *UserLessonPart
}

// Award is the coin/point amount credited for one lesson part completion.
type Award struct {
	Coin  int64
	Point int64
}

func (a Award) IsZero() bool {
	return a.Coin == 0 && a.Point == 0
}

// ScaledAward returns floor(full * correct/total) for each currency.
func ScaledAward(full Award, correct, total int) Award {
	if total <= 0 || correct <= 0 {
		return Award{}
	}
	if correct >= total {
		return full
	}
	return Award{
		Coin:  full.Coin * int64(correct) / int64(total),
		Point: full.Point * int64(correct) / int64(total),
	}
}

// ProgressPercent returns completed/total*100 rounded to two decimals.
// emptyValue is returned when there are no children to count.
func ProgressPercent(completed, total int, emptyValue float64) float64 {
	if total <= 0 {
		return emptyValue
	}
	p := math.Round(float64(completed)/float64(total)*100*100) / 100
	if p > 100 {
		p = 100
	}
	return p
}

// ProgressResult reports what a completion call actually changed.
type ProgressResult struct {
	Completed       bool
	Awarded         Award
	LessonCompleted bool
	CourseCompleted bool
	LessonProgress  float64
	CourseProgress  float64
}
