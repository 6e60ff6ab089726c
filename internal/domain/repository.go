package domain

import (
	"context"
	"time"
)

// TransactionManager runs fn inside one database transaction carried by ctx.
// Repositories called with that ctx join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	GetActiveUser(ctx context.Context, userID string) (*User, error)
	// LockActiveUser is GetActiveUser with a row lock held until the
	// surrounding transaction ends.
	LockActiveUser(ctx context.Context, userID string) (*User, error)
	AddCoins(ctx context.Context, userID string, amount int64) error
	// SubtractCoins returns ErrInsufficientBalance when the balance is lower than amount.
	SubtractCoins(ctx context.Context, userID string, amount int64) error
	AddPoints(ctx context.Context, userID string, amount int64) error
	SubtractPoints(ctx context.Context, userID string, amount int64) error
}

type ContentRepository interface {
	GetActiveTest(ctx context.Context, testID string) (*Test, error)
	ListActiveQuestionIDs(ctx context.Context, testID string) ([]string, error)
	GetQuestions(ctx context.Context, testType TestType, questionIDs []string) ([]*Question, error)
	GetCourse(ctx context.Context, courseID string) (*Course, error)
	GetLessonPartContext(ctx context.Context, lessonPartID string) (*LessonPartContext, error)
	// GetLessonPartByTest returns the first active lesson part that delivers the test.
	GetLessonPartByTest(ctx context.Context, testID string) (*LessonPartContext, error)
	ListFreeLessonIDs(ctx context.Context, courseID string, limit int) ([]string, error)
}

type AttemptRepository interface {
	// LockAttemptSlot serializes attempt creation for (user, test) until the transaction ends.
	LockAttemptSlot(ctx context.Context, userID, testID string) error
	GetActiveAttempt(ctx context.Context, userID, testID string) (*UserTest, error)
	LockActiveAttempt(ctx context.Context, userID, testID string) (*UserTest, error)
	NextAttemptNumber(ctx context.Context, userID, testID string) (int, error)
	// CreateAttempt returns ErrUniqueViolation if another active attempt won the race.
	CreateAttempt(ctx context.Context, attempt *UserTest) error
	CreateBlankAnswers(ctx context.Context, answers []*UserAnswer) error
	GetAnswer(ctx context.Context, answerID string) (*UserAnswer, error)
	ListAnswers(ctx context.Context, userTestID string) ([]*UserAnswer, error)
	SaveAnswer(ctx context.Context, answerID string, answer Answer, answeredAt time.Time) error
	SaveGrade(ctx context.Context, answerID string, isCorrect bool) error
	SubmitAttempt(ctx context.Context, attempt *UserTest) error
	ListSubmittedAttempts(ctx context.Context, userID, testID string) ([]*UserTest, error)
}

type ProgressRepository interface {
	GetUserCourse(ctx context.Context, userID, courseID string) (*UserCourse, error)
	// GetOrCreateUserCourse inserts uc unless a row for (user, course) exists, and returns the stored row.
	GetOrCreateUserCourse(ctx context.Context, uc *UserCourse) (*UserCourse, error)
	// UpsertPaidUserCourse grants paid, unexpired access for (user, course).
	UpsertPaidUserCourse(ctx context.Context, uc *UserCourse) (*UserCourse, error)
	GetOrCreateUserLesson(ctx context.Context, userCourseID, lessonID string) (*UserLesson, error)
	GetOrCreateUserLessonPart(ctx context.Context, userLessonID, lessonPartID string) (*UserLessonPart, error)
	GetChain(ctx context.Context, userLessonPartID string) (*ProgressChain, error)
	FindUserLessonPart(ctx context.Context, userID, lessonPartID string) (*UserLessonPart, error)
	// CompleteUserLessonPart flips is_completed false->true and reports whether this call did it.
	CompleteUserLessonPart(ctx context.Context, userLessonPartID string, now time.Time) (bool, error)
	AddCourseEarnings(ctx context.Context, userCourseID string, award Award) error
	CountLessonProgress(ctx context.Context, userLessonID string) (completed, total int, err error)
	UpdateLessonProgress(ctx context.Context, userLessonID string, percent float64, now time.Time) (*UserLesson, error)
	CountCourseProgress(ctx context.Context, userCourseID string) (completed, total int, err error)
	UpdateCourseProgress(ctx context.Context, userCourseID string, percent float64, now time.Time) (*UserCourse, error)
	ListLapsedUserCourseIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	ExpireLapsedUserCourse(ctx context.Context, userCourseID string, now time.Time) (bool, error)
	ExpireUserCourse(ctx context.Context, userID, courseID string) (bool, error)
}

type PaymentRepository interface {
	GetPromoCodeByCode(ctx context.Context, code string) (*PromoCode, error)
	IsPromoCodeForCourse(ctx context.Context, promoCodeID, courseID string) (bool, error)
	HasUsedPromoCode(ctx context.Context, userID, promoCodeID string) (bool, error)
	HasActivePromoReservation(ctx context.Context, userID, promoCodeID string, now time.Time) (bool, error)
	SumActiveCoinReservations(ctx context.Context, userID string, now time.Time) (int64, error)

	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	LockTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	MarkTransactionPaid(ctx context.Context, transactionID string, now time.Time) (bool, error)
	MarkTransactionCanceled(ctx context.Context, transactionID string, now time.Time) (bool, error)
	DeleteCanceledTransactions(ctx context.Context, canceledBefore time.Time) (int64, error)

	CreateCoinReservation(ctx context.Context, r *CoinReservation) error
	CreatePromoReservation(ctx context.Context, r *PromoCodeReservation) error
	LockActiveCoinReservation(ctx context.Context, transactionID string) (*CoinReservation, error)
	LockActivePromoReservation(ctx context.Context, transactionID string) (*PromoCodeReservation, error)
	DeactivateReservation(ctx context.Context, kind ReservationKind, reservationID string) (bool, error)
	DeactivateTransactionReservations(ctx context.Context, transactionID string) error
	ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]ExpiredReservation, error)

	CreateUserPromoCode(ctx context.Context, upc *UserPromoCode) error
}

type GroupRepository interface {
	LockGroup(ctx context.Context, groupID string) (*Group, error)
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)
	HasActiveCourseMembership(ctx context.Context, userID, courseID string) (bool, error)
	CreateMember(ctx context.Context, member *GroupMember) error
	IncrementMemberCount(ctx context.Context, groupID string) error
	LockTeacherLimit(ctx context.Context, teacherID, courseID string) (*TeacherGlobalLimit, error)
	IncrementTeacherLimitUsage(ctx context.Context, limitID string) error
	ListExpiredGroupIDs(ctx context.Context, today time.Time) ([]string, error)
	DeactivateGroup(ctx context.Context, groupID string) (*Group, error)
	DeactivateMembers(ctx context.Context, groupID string) ([]string, error)
}

// PaymentGateway builds a checkout URL for one provider.
type PaymentGateway interface {
	Provider() PaymentProvider
	PaymentURL(req PaymentLinkRequest) (string, error)
}
