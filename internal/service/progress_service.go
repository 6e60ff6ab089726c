package service

import (
	"context"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"go.uber.org/zap"
)

// ProgressService owns the UserCourse/UserLesson/UserLessonPart ledger.
type ProgressService interface {
	// EnsureChain returns the progress rows tracking lpc for userID, creating
	// the missing ones. Users without access to the lesson get FORBIDDEN.
	EnsureChain(ctx context.Context, userID string, lpc *domain.LessonPartContext) (*domain.ProgressChain, error)
	// MarkLessonPartCompleted completes the part at most once and credits
	// award to the winner of that transition.
	MarkLessonPartCompleted(ctx context.Context, userLessonPartID string, award domain.Award) (*domain.ProgressResult, error)
	CompleteLessonPart(ctx context.Context, userID, lessonPartID string) (*dto.LessonPartCompletionResponse, error)
}

type progressService struct {
	tm          domain.TransactionManager
	content     domain.ContentRepository
	progress    domain.ProgressRepository
	users       domain.UserRepository
	freeLessons int
	now         func() time.Time
}

func NewProgressService(
	tm domain.TransactionManager,
	content domain.ContentRepository,
	progress domain.ProgressRepository,
	users domain.UserRepository,
	cfg config.CourseConfig,
) ProgressService {
	return &progressService{
		tm:          tm,
		content:     content,
		progress:    progress,
		users:       users,
		freeLessons: cfg.FreeLessonsCount,
		now:         time.Now,
	}
}

func (s *progressService) isFreeLesson(ctx context.Context, courseID, lessonID string) (bool, error) {
	if s.freeLessons <= 0 {
		return false, nil
	}
	ids, err := s.content.ListFreeLessonIDs(ctx, courseID, s.freeLessons)
	if err != nil {
		return false, domain.NewInternalError("failed to list free lessons", err)
	}
	for _, id := range ids {
		if id == lessonID {
			return true, nil
		}
	}
	return false, nil
}

// EnsureChain implements ProgressService
func (s *progressService) EnsureChain(ctx context.Context, userID string, lpc *domain.LessonPartContext) (*domain.ProgressChain, error) {
	uc, err := s.progress.GetUserCourse(ctx, userID, lpc.Course.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get user course", err)
	}

	if !uc.HasPaidAccess() {
		free, err := s.isFreeLesson(ctx, lpc.Course.ID, lpc.Lesson.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, domain.NewForbiddenError("course access required for this lesson")
		}
		if uc == nil {
			uc, err = s.progress.GetOrCreateUserCourse(ctx, &domain.UserCourse{
				ID:          util.NewULID(),
				UserID:      userID,
				CourseID:    lpc.Course.ID,
				IsFreeTrial: true,
				StartDate:   s.now(),
			})
			if err != nil {
				return nil, domain.NewInternalError("failed to create user course", err)
			}
		}
	}

	ul, err := s.progress.GetOrCreateUserLesson(ctx, uc.ID, lpc.Lesson.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to create user lesson", err)
	}
	ulp, err := s.progress.GetOrCreateUserLessonPart(ctx, ul.ID, lpc.Part.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to create user lesson part", err)
	}
	return &domain.ProgressChain{Course: uc, Lesson: ul, Part: ulp}, nil
}

// MarkLessonPartCompleted implements ProgressService
func (s *progressService) MarkLessonPartCompleted(ctx context.Context, userLessonPartID string, award domain.Award) (*domain.ProgressResult, error) {
	var result *domain.ProgressResult
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		chain, err := s.progress.GetChain(ctx, userLessonPartID)
		if err != nil {
			return domain.NewInternalError("failed to load progress chain", err)
		}
		if chain == nil {
			return domain.NewNotFoundError("user lesson part")
		}

		result = &domain.ProgressResult{
			LessonProgress: chain.Lesson.ProgressPercent,
			CourseProgress: chain.Course.ProgressPercent,
		}

		now := s.now()
		won, err := s.progress.CompleteUserLessonPart(ctx, userLessonPartID, now)
		if err != nil {
			return domain.NewInternalError("failed to complete lesson part", err)
		}
		if !won {
			return nil
		}
		result.Completed = true
		result.Awarded = award

		userID := chain.Course.UserID
		if award.Coin > 0 {
			if err := s.users.AddCoins(ctx, userID, award.Coin); err != nil {
				return domain.NewInternalError("failed to credit coins", err)
			}
		}
		if award.Point > 0 {
			if err := s.users.AddPoints(ctx, userID, award.Point); err != nil {
				return domain.NewInternalError("failed to credit points", err)
			}
		}
		if !award.IsZero() {
			if err := s.progress.AddCourseEarnings(ctx, chain.Course.ID, award); err != nil {
				return domain.NewInternalError("failed to record course earnings", err)
			}
		}

		completed, total, err := s.progress.CountLessonProgress(ctx, chain.Lesson.ID)
		if err != nil {
			return domain.NewInternalError("failed to count lesson progress", err)
		}
		lesson, err := s.progress.UpdateLessonProgress(ctx, chain.Lesson.ID, domain.ProgressPercent(completed, total, 100), now)
		if err != nil {
			return domain.NewInternalError("failed to update lesson progress", err)
		}
		result.LessonProgress = lesson.ProgressPercent
		if !lesson.IsCompleted || chain.Lesson.IsCompleted {
			return nil
		}
		result.LessonCompleted = true

		completed, total, err = s.progress.CountCourseProgress(ctx, chain.Course.ID)
		if err != nil {
			return domain.NewInternalError("failed to count course progress", err)
		}
		course, err := s.progress.UpdateCourseProgress(ctx, chain.Course.ID, domain.ProgressPercent(completed, total, 0), now)
		if err != nil {
			return domain.NewInternalError("failed to update course progress", err)
		}
		result.CourseProgress = course.ProgressPercent
		result.CourseCompleted = course.IsCompleted && !chain.Course.IsCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		logger.Get().Info("Lesson part completed",
			zap.String("userLessonPartID", userLessonPartID),
			zap.Int64("coin", award.Coin),
			zap.Int64("point", award.Point),
			zap.Bool("lessonCompleted", result.LessonCompleted),
			zap.Bool("courseCompleted", result.CourseCompleted))
	}
	return result, nil
}

// CompleteLessonPart implements ProgressService
func (s *progressService) CompleteLessonPart(ctx context.Context, userID, lessonPartID string) (*dto.LessonPartCompletionResponse, error) {
	if err := requireActiveUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	lpc, err := s.content.GetLessonPartContext(ctx, lessonPartID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get lesson part", err)
	}
	if lpc == nil || !lpc.Part.IsActive {
		return nil, domain.NewNotFoundError("lesson part")
	}
	if lpc.Part.Type.IsTest() {
		return nil, domain.NewValidationError("lesson_part_id", "test lesson parts are completed by finishing the test")
	}

	var (
		chain  *domain.ProgressChain
		result *domain.ProgressResult
	)
	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		chain, err = s.EnsureChain(ctx, userID, lpc)
		if err != nil {
			return err
		}
		result, err = s.MarkLessonPartCompleted(ctx, chain.Part.ID, domain.Award{
			Coin:  lpc.Part.AwardCoin,
			Point: lpc.Part.AwardPoint,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.LessonPartCompletionResponse{
		UserLessonPartID: chain.Part.ID,
		LessonPartID:     lessonPartID,
		Completed:        result.Completed,
		Awarded:          dto.AwardResponse{Coin: result.Awarded.Coin, Point: result.Awarded.Point},
		LessonCompleted:  result.LessonCompleted,
		CourseCompleted:  result.CourseCompleted,
		LessonProgress:   result.LessonProgress,
		CourseProgress:   result.CourseProgress,
	}, nil
}
