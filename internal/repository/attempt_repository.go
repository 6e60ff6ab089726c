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

type sqlxAttemptRepository struct {
	db *sqlx.DB
}

func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

const userTestColumns = `id, user_id, test_id, attempt_number, start_date, finish_date,
	is_in_progress, is_submitted, is_passed, total_questions, correct_answers`

func toDomainUserTest(m *models.UserTest) *domain.UserTest {
	if m == nil {
		return nil
	}
	return &domain.UserTest{
		ID:             m.ID,
		UserID:         m.UserID,
		TestID:         m.TestID,
		AttemptNumber:  m.AttemptNumber,
		StartDate:      m.StartDate,
		FinishDate:     util.NullTimeToPtr(m.FinishDate),
		IsInProgress:   m.IsInProgress,
		IsSubmitted:    m.IsSubmitted,
		IsPassed:       m.IsPassed,
		TotalQuestions: m.TotalQuestions,
		CorrectAnswers: m.CorrectAnswers,
	}
}

func fromDomainUserTest(d *domain.UserTest) *models.UserTest {
	if d == nil {
		return nil
	}
	return &models.UserTest{
		ID:             d.ID,
		UserID:         d.UserID,
		TestID:         d.TestID,
		AttemptNumber:  d.AttemptNumber,
		StartDate:      d.StartDate,
		FinishDate:     util.TimePtrToNullTime(d.FinishDate),
		IsInProgress:   d.IsInProgress,
		IsSubmitted:    d.IsSubmitted,
		IsPassed:       d.IsPassed,
		TotalQuestions: d.TotalQuestions,
		CorrectAnswers: d.CorrectAnswers,
	}
}

func toDomainUserAnswer(m *models.UserAnswer) (*domain.UserAnswer, error) {
	answer, err := domain.DecodeAnswer(m.Answer)
	if err != nil {
		return nil, fmt.Errorf("user answer %s: %w", m.ID, err)
	}
	return &domain.UserAnswer{
		ID:         m.ID,
		UserTestID: m.UserTestID,
		QuestionID: m.QuestionID,
		Answer:     answer,
		IsCorrect:  m.IsCorrect,
		AnsweredAt: util.NullTimeToPtr(m.AnsweredAt),
	}, nil
}

// LockAttemptSlot takes a transaction-scoped advisory lock on (user, test).
func (r *sqlxAttemptRepository) LockAttemptSlot(ctx context.Context, userID, testID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, "user_test:"+userID+":"+testID); err != nil {
		return fmt.Errorf("failed to lock attempt slot: %w", err)
	}
	return nil
}

func (r *sqlxAttemptRepository) GetActiveAttempt(ctx context.Context, userID, testID string) (*domain.UserTest, error) {
	return r.getActive(ctx, userID, testID, "")
}

func (r *sqlxAttemptRepository) LockActiveAttempt(ctx context.Context, userID, testID string) (*domain.UserTest, error) {
	return r.getActive(ctx, userID, testID, " FOR UPDATE")
}

func (r *sqlxAttemptRepository) getActive(ctx context.Context, userID, testID, lock string) (*domain.UserTest, error) {
	var m models.UserTest
	query := `SELECT ` + userTestColumns + ` FROM user_tests
	          WHERE user_id = $1 AND test_id = $2 AND is_in_progress = TRUE AND is_submitted = FALSE` + lock
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, userID, testID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	return toDomainUserTest(&m), nil
}

func (r *sqlxAttemptRepository) NextAttemptNumber(ctx context.Context, userID, testID string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(attempt_number), 0) + 1 FROM user_tests WHERE user_id = $1 AND test_id = $2`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &next, query, userID, testID); err != nil {
		return 0, fmt.Errorf("failed to compute next attempt number: %w", err)
	}
	return next, nil
}

func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.UserTest) error {
	query := `INSERT INTO user_tests (` + userTestColumns + `)
	          VALUES (:id, :user_id, :test_id, :attempt_number, :start_date, :finish_date,
	                  :is_in_progress, :is_submitted, :is_passed, :total_questions, :correct_answers)`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainUserTest(attempt)); err != nil {
		return fmt.Errorf("failed to create attempt: %w", mapPgError(err))
	}
	return nil
}

// CreateBlankAnswers inserts all answer slots in a single statement.
func (r *sqlxAttemptRepository) CreateBlankAnswers(ctx context.Context, answers []*domain.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	rows := make([]models.UserAnswer, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, models.UserAnswer{
			ID:         a.ID,
			UserTestID: a.UserTestID,
			QuestionID: a.QuestionID,
		})
	}
	query := `INSERT INTO user_answers (id, user_test_id, question_id, answer, is_correct, answered_at)
	          VALUES (:id, :user_test_id, :question_id, :answer, :is_correct, :answered_at)`
	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to create answers: %w", mapPgError(err))
	}
	return nil
}

func (r *sqlxAttemptRepository) GetAnswer(ctx context.Context, answerID string) (*domain.UserAnswer, error) {
	var m models.UserAnswer
	query := `SELECT id, user_test_id, question_id, answer, is_correct, answered_at FROM user_answers WHERE id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, answerID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return toDomainUserAnswer(&m)
}

func (r *sqlxAttemptRepository) ListAnswers(ctx context.Context, userTestID string) ([]*domain.UserAnswer, error) {
	var rows []models.UserAnswer
	query := `SELECT ua.id, ua.user_test_id, ua.question_id, ua.answer, ua.is_correct, ua.answered_at
	          FROM user_answers ua JOIN questions q ON q.id = ua.question_id
	          WHERE ua.user_test_id = $1 ORDER BY q.sort_order, ua.id`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userTestID); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	out := make([]*domain.UserAnswer, 0, len(rows))
	for i := range rows {
		a, err := toDomainUserAnswer(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SaveAnswer stores the submitted answer. is_correct is left untouched.
func (r *sqlxAttemptRepository) SaveAnswer(ctx context.Context, answerID string, answer domain.Answer, answeredAt time.Time) error {
	payload, err := domain.EncodeAnswer(answer)
	if err != nil {
		return err
	}
	query := `UPDATE user_answers SET answer = $2, answered_at = $3 WHERE id = $1`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, answerID, models.JSONB(payload), answeredAt)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return fmt.Errorf("answer %s not found", answerID)
	}
	return nil
}

func (r *sqlxAttemptRepository) SaveGrade(ctx context.Context, answerID string, isCorrect bool) error {
	query := `UPDATE user_answers SET is_correct = $2 WHERE id = $1`
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, answerID, isCorrect); err != nil {
		return fmt.Errorf("failed to save grade: %w", err)
	}
	return nil
}

// SubmitAttempt closes an active attempt with its totals.
func (r *sqlxAttemptRepository) SubmitAttempt(ctx context.Context, attempt *domain.UserTest) error {
	query := `UPDATE user_tests SET is_submitted = TRUE, is_in_progress = FALSE, is_passed = $2,
	          total_questions = $3, correct_answers = $4, finish_date = $5
	          WHERE id = $1 AND is_in_progress = TRUE AND is_submitted = FALSE`
	res, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		attempt.ID, attempt.IsPassed, attempt.TotalQuestions, attempt.CorrectAnswers, util.TimePtrToNullTime(attempt.FinishDate))
	if err != nil {
		return fmt.Errorf("failed to submit attempt: %w", err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if !ok {
		return fmt.Errorf("attempt %s is no longer active", attempt.ID)
	}
	return nil
}

func (r *sqlxAttemptRepository) ListSubmittedAttempts(ctx context.Context, userID, testID string) ([]*domain.UserTest, error) {
	var rows []models.UserTest
	query := `SELECT ` + userTestColumns + ` FROM user_tests
	          WHERE user_id = $1 AND test_id = $2 AND is_submitted = TRUE
	          ORDER BY attempt_number DESC`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, query, userID, testID); err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	out := make([]*domain.UserTest, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainUserTest(&rows[i]))
	}
	return out, nil
}
