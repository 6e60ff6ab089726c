package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository/models"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"github.com/jmoiron/sqlx"
)

type sqlxProgressRepository struct {
	db *sqlx.DB
}

func NewSQLXProgressRepository(db *sqlx.DB) domain.ProgressRepository {
	return &sqlxProgressRepository{db: db}
}

const (
	userCourseColumns = `id, user_id, course_id, is_free_trial, start_date, finish_date, is_expired,
	is_completed, progress_percent, coins_earned, points_earned`
	userLessonColumns     = `id, user_course_id, lesson_id, is_completed, completion_date, progress_percent`
	userLessonPartColumns = `id, user_lesson_id, lesson_part_id, is_completed, completion_date`
)

func toDomainUserCourse(m *models.UserCourse) *domain.UserCourse {
	return &domain.UserCourse{
		ID:              m.ID,
		UserID:          m.UserID,
		CourseID:        m.CourseID,
		IsFreeTrial:     m.IsFreeTrial,
		StartDate:       m.StartDate,
		FinishDate:      util.NullTimeToPtr(m.FinishDate),
		IsExpired:       m.IsExpired,
		IsCompleted:     m.IsCompleted,
		ProgressPercent: m.ProgressPercent,
		CoinsEarned:     m.CoinsEarned,
		PointsEarned:    m.PointsEarned,
	}
}

func toDomainUserLesson(m *models.UserLesson) *domain.UserLesson {
	return &domain.UserLesson{
		ID:              m.ID,
		UserCourseID:    m.UserCourseID,
		LessonID:        m.LessonID,
		IsCompleted:     m.IsCompleted,
		CompletionDate:  util.NullTimeToPtr(m.CompletionDate),
		ProgressPercent: m.ProgressPercent,
	}
}

func toDomainUserLessonPart(m *models.UserLessonPart) *domain.UserLessonPart {
	return &domain.UserLessonPart{
		ID:             m.ID,
		UserLessonID:   m.UserLessonID,
		LessonPartID:   m.LessonPartID,
		IsCompleted:    m.IsCompleted,
		CompletionDate: util.NullTimeToPtr(m.CompletionDate),
	}
}

func (r *sqlxProgressRepository) GetUserCourse(ctx context.Context, userID, courseID string) (*domain.UserCourse, error) {
	var m models.UserCourse
	query := `SELECT ` + userCourseColumns + ` FROM user_courses WHERE user_id = $1 AND course_id = $2`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userID, courseID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user course: %w", err)
	}
	return toDomainUserCourse(&m), nil
}

func (r *sqlxProgressRepository) GetOrCreateUserCourse(ctx context.Context, uc *domain.UserCourse) (*domain.UserCourse, error) {
	exec := GetExecutor(ctx, r.db)
	query := `INSERT INTO user_courses (id, user_id, course_id, is_free_trial, start_date, finish_date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id, course_id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, query,
		uc.ID, uc.UserID, uc.CourseID, uc.IsFreeTrial, uc.StartDate, util.TimePtrToNullTime(uc.FinishDate)); err != nil {
		return nil, fmt.Errorf("failed to create user course: %w", err)
	}
	stored, err := r.GetUserCourse(ctx, uc.UserID, uc.CourseID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user course for %s/%s missing after insert", uc.UserID, uc.CourseID)
	}
	return stored, nil
}

func (r *sqlxProgressRepository) UpsertPaidUserCourse(ctx context.Context, uc *domain.UserCourse) (*domain.UserCourse, error) {
	var m models.UserCourse
	query := `INSERT INTO user_courses (id, user_id, course_id, is_free_trial, start_date, finish_date, is_expired)
	          VALUES ($1, $2, $3, FALSE, $4, $5, FALSE)
	          ON CONFLICT (user_id, course_id) DO UPDATE SET
	              is_free_trial = FALSE,
	              is_expired = FALSE,
	              start_date = EXCLUDED.start_date,
	              finish_date = EXCLUDED.finish_date,
	              updated_at = NOW()
	          RETURNING ` + userCourseColumns
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query,
		uc.ID, uc.UserID, uc.CourseID, uc.StartDate, util.TimePtrToNullTime(uc.FinishDate)); err != nil {
		return nil, fmt.Errorf("failed to upsert user course: %w", err)
	}
	return toDomainUserCourse(&m), nil
}

func (r *sqlxProgressRepository) GetOrCreateUserLesson(ctx context.Context, userCourseID, lessonID string) (*domain.UserLesson, error) {
	exec := GetExecutor(ctx, r.db)
	insert := `INSERT INTO user_lessons (id, user_course_id, lesson_id) VALUES ($1, $2, $3)
	           ON CONFLICT (user_course_id, lesson_id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, insert, util.NewULID(), userCourseID, lessonID); err != nil {
		return nil, fmt.Errorf("failed to create user lesson: %w", err)
	}
	var m models.UserLesson
	query := `SELECT ` + userLessonColumns + ` FROM user_lessons WHERE user_course_id = $1 AND lesson_id = $2`
	if err := exec.GetContext(ctx, &m, query, userCourseID, lessonID); err != nil {
		return nil, fmt.Errorf("failed to get user lesson: %w", err)
	}
	return toDomainUserLesson(&m), nil
}

func (r *sqlxProgressRepository) GetOrCreateUserLessonPart(ctx context.Context, userLessonID, lessonPartID string) (*domain.UserLessonPart, error) {
	exec := GetExecutor(ctx, r.db)
	insert := `INSERT INTO user_lesson_parts (id, user_lesson_id, lesson_part_id) VALUES ($1, $2, $3)
	           ON CONFLICT (user_lesson_id, lesson_part_id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, insert, util.NewULID(), userLessonID, lessonPartID); err != nil {
		return nil, fmt.Errorf("failed to create user lesson part: %w", err)
	}
	var m models.UserLessonPart
	query := `SELECT ` + userLessonPartColumns + ` FROM user_lesson_parts WHERE user_lesson_id = $1 AND lesson_part_id = $2`
	if err := exec.GetContext(ctx, &m, query, userLessonID, lessonPartID); err != nil {
		return nil, fmt.Errorf("failed to get user lesson part: %w", err)
	}
	return toDomainUserLessonPart(&m), nil
}

// GetChain loads a user lesson part together with its user lesson and user course.
func (r *sqlxProgressRepository) GetChain(ctx context.Context, userLessonPartID string) (*domain.ProgressChain, error) {
	var m models.ProgressChain
	query := `SELECT ulp.id, ulp.user_lesson_id, ulp.lesson_part_id, ulp.is_completed, ulp.completion_date,
	                 ul.lesson_id AS ul_lesson_id, ul.user_course_id AS ul_user_course_id,
	                 ul.is_completed AS ul_is_completed, ul.completion_date AS ul_completion_date,
	                 ul.progress_percent AS ul_progress_percent,
	                 uc.user_id AS uc_user_id, uc.course_id AS uc_course_id, uc.is_free_trial AS uc_is_free_trial,
	                 uc.start_date AS uc_start_date, uc.finish_date AS uc_finish_date, uc.is_expired AS uc_is_expired,
	                 uc.is_completed AS uc_is_completed, uc.progress_percent AS uc_progress_percent,
	                 uc.coins_earned AS uc_coins_earned, uc.points_earned AS uc_points_earned
	          FROM user_lesson_parts ulp
	          JOIN user_lessons ul ON ul.id = ulp.user_lesson_id
	          JOIN user_courses uc ON uc.id = ul.user_course_id
	          WHERE ulp.id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userLessonPartID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress chain: %w", err)
	}
	return &domain.ProgressChain{
		Part: toDomainUserLessonPart(&m.UserLessonPart),
		Lesson: &domain.UserLesson{
			ID:              m.UserLessonID,
			UserCourseID:    m.UserCourseID,
			LessonID:        m.LessonID,
			IsCompleted:     m.LessonIsCompleted,
			CompletionDate:  util.NullTimeToPtr(m.LessonCompletionDate),
			ProgressPercent: m.LessonProgressPercent,
		},
		Course: &domain.UserCourse{
			ID:              m.UserCourseID,
			UserID:          m.UserID,
			CourseID:        m.CourseID,
			IsFreeTrial:     m.IsFreeTrial,
			StartDate:       m.StartDate,
			FinishDate:      util.NullTimeToPtr(m.FinishDate),
			IsExpired:       m.IsExpired,
			IsCompleted:     m.CourseIsCompleted,
			ProgressPercent: m.CourseProgressPercent,
			CoinsEarned:     m.CoinsEarned,
			PointsEarned:    m.PointsEarned,
		},
	}, nil
}

func (r *sqlxProgressRepository) FindUserLessonPart(ctx context.Context, userID, lessonPartID string) (*domain.UserLessonPart, error) {
	var m models.UserLessonPart
	query := `SELECT ulp.id, ulp.user_lesson_id, ulp.lesson_part_id, ulp.is_completed, ulp.completion_date
	          FROM user_lesson_parts ulp
	          JOIN user_lessons ul ON ul.id = ulp.user_lesson_id
	          JOIN user_courses uc ON uc.id = ul.user_course_id
	          WHERE uc.user_id = $1 AND ulp.lesson_part_id = $2
	          LIMIT 1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userID, lessonPartID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user lesson part: %w", err)
	}
	return toDomainUserLessonPart(&m), nil
}

// CompleteUserLessonPart is the award-once gate: only the caller whose
// UPDATE flips the flag gets true.
func (r *sqlxProgressRepository) CompleteUserLessonPart(ctx context.Context, userLessonPartID string, now time.Time) (bool, error) {
	query := `UPDATE user_lesson_parts SET is_completed = TRUE, completion_date = $2
	          WHERE id = $1 AND is_completed = FALSE`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, userLessonPartID, now)
	if err != nil {
		return false, fmt.Errorf("failed to complete user lesson part: %w", err)
	}
	return affected(res)
}

func (r *sqlxProgressRepository) AddCourseEarnings(ctx context.Context, userCourseID string, award domain.Award) error {
	query := `UPDATE user_courses SET coins_earned = coins_earned + $2, points_earned = points_earned + $3,
	          updated_at = NOW() WHERE id = $1`
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, userCourseID, award.Coin, award.Point); err != nil {
		return fmt.Errorf("failed to add course earnings: %w", err)
	}
	return nil
}

type progressCount struct {
	Completed int `db:"completed"`
	Total     int `db:"total"`
}

func (r *sqlxProgressRepository) CountLessonProgress(ctx context.Context, userLessonID string) (int, int, error) {
	var c progressCount
	query := `SELECT
	              (SELECT COUNT(*) FROM user_lesson_parts ulp
	                 JOIN lesson_parts lp ON lp.id = ulp.lesson_part_id
	                WHERE ulp.user_lesson_id = ul.id AND ulp.is_completed = TRUE AND lp.is_active = TRUE) AS completed,
	              (SELECT COUNT(*) FROM lesson_parts lp
	                WHERE lp.lesson_id = ul.lesson_id AND lp.is_active = TRUE) AS total
	          FROM user_lessons ul WHERE ul.id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &c, query, userLessonID); err != nil {
		return 0, 0, fmt.Errorf("failed to count lesson progress: %w", err)
	}
	return c.Completed, c.Total, nil
}

// UpdateLessonProgress raises progress to percent (never lowers it) and
// completes the lesson once it reaches 100.
func (r *sqlxProgressRepository) UpdateLessonProgress(ctx context.Context, userLessonID string, percent float64, now time.Time) (*domain.UserLesson, error) {
	var m models.UserLesson
	query := `UPDATE user_lessons SET
	              progress_percent = GREATEST(progress_percent, $2),
	              is_completed = is_completed OR GREATEST(progress_percent, $2) >= 100,
	              completion_date = CASE WHEN is_completed = FALSE AND GREATEST(progress_percent, $2) >= 100
	                                     THEN $3 ELSE completion_date END
	          WHERE id = $1
	          RETURNING ` + userLessonColumns
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userLessonID, percent, now); err != nil {
		return nil, fmt.Errorf("failed to update lesson progress: %w", err)
	}
	return toDomainUserLesson(&m), nil
}

func (r *sqlxProgressRepository) CountCourseProgress(ctx context.Context, userCourseID string) (int, int, error) {
	var c progressCount
	query := `SELECT
	              (SELECT COUNT(*) FROM user_lessons ul
	                 JOIN lessons l ON l.id = ul.lesson_id
	                WHERE ul.user_course_id = uc.id AND ul.is_completed = TRUE AND l.is_active = TRUE) AS completed,
	              (SELECT COUNT(*) FROM lessons l
	                WHERE l.course_id = uc.course_id AND l.is_active = TRUE) AS total
	          FROM user_courses uc WHERE uc.id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &c, query, userCourseID); err != nil {
		return 0, 0, fmt.Errorf("failed to count course progress: %w", err)
	}
	return c.Completed, c.Total, nil
}

// UpdateCourseProgress mirrors UpdateLessonProgress; completion stamps finish_date.
func (r *sqlxProgressRepository) UpdateCourseProgress(ctx context.Context, userCourseID string, percent float64, now time.Time) (*domain.UserCourse, error) {
	var m models.UserCourse
	query := `UPDATE user_courses SET
	              progress_percent = GREATEST(progress_percent, $2),
	              is_completed = is_completed OR GREATEST(progress_percent, $2) >= 100,
	              finish_date = CASE WHEN is_completed = FALSE AND GREATEST(progress_percent, $2) >= 100
	                                 THEN $3 ELSE finish_date END,
	              updated_at = NOW()
	          WHERE id = $1
	          RETURNING ` + userCourseColumns
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userCourseID, percent, now); err != nil {
		return nil, fmt.Errorf("failed to update course progress: %w", err)
	}
	return toDomainUserCourse(&m), nil
}

func (r *sqlxProgressRepository) ListLapsedUserCourseIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM user_courses
	          WHERE finish_date IS NOT NULL AND finish_date < $1 AND is_expired = FALSE
	          ORDER BY finish_date LIMIT $2`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &ids, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list lapsed user courses: %w", err)
	}
	return ids, nil
}

// ExpireLapsedUserCourse expires one lapsed row and clears its finish date.
func (r *sqlxProgressRepository) ExpireLapsedUserCourse(ctx context.Context, userCourseID string, now time.Time) (bool, error) {
	query := `UPDATE user_courses SET is_expired = TRUE, finish_date = NULL, updated_at = NOW()
	          WHERE id = $1 AND is_expired = FALSE AND finish_date < $2`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, userCourseID, now)
	if err != nil {
		return false, fmt.Errorf("failed to expire user course: %w", err)
	}
	return affected(res)
}

func (r *sqlxProgressRepository) ExpireUserCourse(ctx context.Context, userID, courseID string) (bool, error) {
	query := `UPDATE user_courses SET is_expired = TRUE, updated_at = NOW()
	          WHERE user_id = $1 AND course_id = $2 AND is_expired = FALSE`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to expire user course: %w", err)
	}
	return affected(res)
}
