package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a purchasable unit. A nil Price means the course cannot be bought.
type Course struct {
	ID             string
	Title          string
	Price          *decimal.Decimal
	DurationMonths int
	IsActive       bool
}

// IsPurchasable reports whether the course is active and priced.
func (c *Course) IsPurchasable() bool {
	return c != nil && c.IsActive && c.Price != nil
}

type Lesson struct {
	ID       string
	CourseID string
	Order    int
	IsActive bool
}

type LessonPartType string

const (
	LessonPartVideo       LessonPartType = "video"
	LessonPartTheory      LessonPartType = "theory"
	LessonPartMatching    LessonPartType = "matching"
	LessonPartTrueFalse   LessonPartType = "true_false"
	LessonPartBookTest    LessonPartType = "book_test"
	LessonPartRegularTest LessonPartType = "regular_test"
	LessonPartAssignment  LessonPartType = "assignment"
)

// IsTest reports whether parts of this type complete through a test attempt.
func (t LessonPartType) IsTest() bool {
	switch t {
	case LessonPartMatching, LessonPartTrueFalse, LessonPartBookTest, LessonPartRegularTest:
		return true
	}
	return false
}

type LessonPart struct {
	ID         string
	LessonID   string
	Type       LessonPartType
	Order      int
	AwardCoin  int64
	AwardPoint int64
	TestID     *string
	IsActive   bool
}

// LessonPartContext bundles a part with the lesson and course that own it.
type LessonPartContext struct {
	Part   *LessonPart
	Lesson *Lesson
	Course *Course
}

type TestType string

const (
	TestTypeTrueFalse   TestType = "true_false"
	TestTypeMatching    TestType = "matching"
	TestTypeBookTest    TestType = "book_test"
	TestTypeRegularTest TestType = "regular_test"
)

func (t TestType) Valid() bool {
	switch t {
	case TestTypeTrueFalse, TestTypeMatching, TestTypeBookTest, TestTypeRegularTest:
		return true
	}
	return false
}

type Test struct {
	ID             string
	Title          string
	Type           TestType
	QuestionsCount int
	// Duration is the time limit in minutes; zero means unlimited.
	Duration  int
	IsActive  bool
	CreatedAt time.Time
}
