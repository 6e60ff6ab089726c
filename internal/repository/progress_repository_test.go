package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCourseRowColumns = []string{"id", "user_id", "course_id", "is_free_trial", "start_date", "finish_date",
	"is_expired", "is_completed", "progress_percent", "coins_earned", "points_earned"}

func TestSQLXProgressRepository_GetOrCreateUserCourse_ReturnsStoredRow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	start := time.Now()
	mock.ExpectExec(q(`ON CONFLICT (user_id, course_id) DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(`FROM user_courses WHERE user_id = $1 AND course_id = $2`)).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows(userCourseRowColumns).
			AddRow("uc-existing", "u1", "c1", false, start, nil, false, false, 40.0, 30, 12))

	uc, err := repo.GetOrCreateUserCourse(context.Background(), &domain.UserCourse{
		ID: "uc-new", UserID: "u1", CourseID: "c1", IsFreeTrial: true, StartDate: start,
	})

	require.NoError(t, err)
	assert.Equal(t, "uc-existing", uc.ID, "an existing row wins over the insert")
	assert.False(t, uc.IsFreeTrial)
	assert.Equal(t, int64(30), uc.CoinsEarned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_UpsertPaidUserCourse(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	start := time.Now()
	finish := start.AddDate(0, 0, 60)
	mock.ExpectQuery(q(`ON CONFLICT (user_id, course_id) DO UPDATE SET`)).
		WithArgs("uc1", "u1", "c1", start, finish).
		WillReturnRows(sqlmock.NewRows(userCourseRowColumns).
			AddRow("uc1", "u1", "c1", false, start, finish, false, false, 0.0, 0, 0))

	uc, err := repo.UpsertPaidUserCourse(context.Background(), &domain.UserCourse{
		ID: "uc1", UserID: "u1", CourseID: "c1", StartDate: start, FinishDate: &finish,
	})

	require.NoError(t, err)
	assert.True(t, uc.HasPaidAccess())
	require.NotNil(t, uc.FinishDate)
	assert.True(t, finish.Equal(*uc.FinishDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_GetOrCreateUserLessonPart(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectExec(q(`INSERT INTO user_lesson_parts`)).
		WithArgs(sqlmock.AnyArg(), "ul1", "lp1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`FROM user_lesson_parts WHERE user_lesson_id = $1 AND lesson_part_id = $2`)).
		WithArgs("ul1", "lp1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_lesson_id", "lesson_part_id", "is_completed", "completion_date"}).
			AddRow("ulp1", "ul1", "lp1", false, nil))

	part, err := repo.GetOrCreateUserLessonPart(context.Background(), "ul1", "lp1")

	require.NoError(t, err)
	assert.Equal(t, "ulp1", part.ID)
	assert.False(t, part.IsCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_GetChain(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	start := time.Now()
	cols := []string{"id", "user_lesson_id", "lesson_part_id", "is_completed", "completion_date",
		"ul_lesson_id", "ul_user_course_id", "ul_is_completed", "ul_completion_date", "ul_progress_percent",
		"uc_user_id", "uc_course_id", "uc_is_free_trial", "uc_start_date", "uc_finish_date", "uc_is_expired",
		"uc_is_completed", "uc_progress_percent", "uc_coins_earned", "uc_points_earned"}
	mock.ExpectQuery(q(`JOIN user_courses uc ON uc.id = ul.user_course_id`)).
		WithArgs("ulp1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"ulp1", "ul1", "lp1", false, nil,
			"l1", "uc1", false, nil, 25.0,
			"u1", "c1", true, start, nil, false,
			false, 10.0, 5, 2))

	chain, err := repo.GetChain(context.Background(), "ulp1")

	require.NoError(t, err)
	require.NotNil(t, chain)
	assert.Equal(t, "ul1", chain.Lesson.ID)
	assert.Equal(t, "uc1", chain.Course.ID)
	assert.Equal(t, "u1", chain.Course.UserID)
	assert.InDelta(t, 25.0, chain.Lesson.ProgressPercent, 0.001)
	assert.True(t, chain.Course.IsFreeTrial)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_GetChain_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectQuery(q(`FROM user_lesson_parts ulp`)).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	chain, err := repo.GetChain(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, chain)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_CompleteUserLessonPart(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(q(`WHERE id = $1 AND is_completed = FALSE`)).
		WithArgs("ulp1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`WHERE id = $1 AND is_completed = FALSE`)).
		WithArgs("ulp1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.CompleteUserLessonPart(context.Background(), "ulp1", now)
	require.NoError(t, err)
	second, err := repo.CompleteUserLessonPart(context.Background(), "ulp1", now)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second, "only the first completion flips the flag")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_AddCourseEarnings(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectExec(q(`coins_earned = coins_earned + $2, points_earned = points_earned + $3`)).
		WithArgs("uc1", int64(8), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AddCourseEarnings(context.Background(), "uc1", domain.Award{Coin: 8, Point: 4}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_CountAndUpdateLessonProgress(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(q(`FROM user_lessons ul WHERE ul.id = $1`)).
		WithArgs("ul1").
		WillReturnRows(sqlmock.NewRows([]string{"completed", "total"}).AddRow(3, 3))
	mock.ExpectQuery(q(`progress_percent = GREATEST(progress_percent, $2)`)).
		WithArgs("ul1", 100.0, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_course_id", "lesson_id", "is_completed", "completion_date", "progress_percent"}).
			AddRow("ul1", "uc1", "l1", true, now, 100.0))

	completed, total, err := repo.CountLessonProgress(context.Background(), "ul1")
	require.NoError(t, err)
	assert.Equal(t, 3, completed)
	assert.Equal(t, 3, total)

	lesson, err := repo.UpdateLessonProgress(context.Background(), "ul1", 100, now)
	require.NoError(t, err)
	assert.True(t, lesson.IsCompleted)
	assert.NotNil(t, lesson.CompletionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_UpdateCourseProgress_StampsFinishDate(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(q(`finish_date = CASE WHEN is_completed = FALSE`)).
		WithArgs("uc1", 100.0, now).
		WillReturnRows(sqlmock.NewRows(userCourseRowColumns).
			AddRow("uc1", "u1", "c1", false, now.AddDate(0, -1, 0), now, false, true, 100.0, 50, 20))

	uc, err := repo.UpdateCourseProgress(context.Background(), "uc1", 100, now)

	require.NoError(t, err)
	assert.True(t, uc.IsCompleted)
	require.NotNil(t, uc.FinishDate)
	assert.True(t, now.Equal(*uc.FinishDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_LapsedCourses(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(q(`finish_date < $1 AND is_expired = FALSE`)).
		WithArgs(now, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("uc1").AddRow("uc2"))
	mock.ExpectExec(q(`SET is_expired = TRUE, finish_date = NULL`)).
		WithArgs("uc1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ids, err := repo.ListLapsedUserCourseIDs(context.Background(), now, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"uc1", "uc2"}, ids)

	ok, err := repo.ExpireLapsedUserCourse(context.Background(), "uc1", now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXProgressRepository_ExpireUserCourse(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXProgressRepository(db)
	defer db.Close()

	mock.ExpectExec(q(`WHERE user_id = $1 AND course_id = $2 AND is_expired = FALSE`)).
		WithArgs("u1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ExpireUserCourse(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
