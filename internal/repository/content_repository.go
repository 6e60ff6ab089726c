package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository/models"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxContentRepository reads course content. Nothing here writes.
type sqlxContentRepository struct {
	db *sqlx.DB
}

func NewSQLXContentRepository(db *sqlx.DB) domain.ContentRepository {
	return &sqlxContentRepository{db: db}
}

const lessonPartContextSelect = `
	SELECT lp.id AS part_id, lp.type AS part_type, lp.sort_order AS part_sort_order,
	       lp.award_coin, lp.award_point, lp.test_id, lp.is_active AS part_is_active,
	       l.id AS lesson_id, l.sort_order AS lesson_sort_order, l.is_active AS lesson_is_active,
	       c.id AS course_id, c.title AS course_title, c.price AS course_price,
	       c.duration_months AS course_duration_months, c.is_active AS course_is_active
	FROM lesson_parts lp
	JOIN lessons l ON l.id = lp.lesson_id
	JOIN courses c ON c.id = l.course_id`

func toDomainCourse(m *models.Course) *domain.Course {
	c := &domain.Course{
		ID:             m.ID,
		Title:          m.Title,
		DurationMonths: m.DurationMonths,
		IsActive:       m.IsActive,
	}
	if m.Price.Valid {
		p := m.Price.Decimal
		c.Price = &p
	}
	return c
}

func toDomainLessonPartContext(m *models.LessonPartContext) *domain.LessonPartContext {
	course := toDomainCourse(&models.Course{
		ID:             m.CourseID,
		Title:          m.CourseTitle,
		Price:          m.CoursePrice,
		DurationMonths: m.CourseDurationMonths,
		IsActive:       m.CourseIsActive,
	})
	return &domain.LessonPartContext{
		Part: &domain.LessonPart{
			ID:         m.PartID,
			LessonID:   m.LessonID,
			Type:       domain.LessonPartType(m.PartType),
			Order:      m.PartSortOrder,
			AwardCoin:  m.AwardCoin,
			AwardPoint: m.AwardPoint,
			TestID:     util.NullStringToPtr(m.TestID),
			IsActive:   m.PartIsActive,
		},
		Lesson: &domain.Lesson{
			ID:       m.LessonID,
			CourseID: m.CourseID,
			Order:    m.LessonSortOrder,
			IsActive: m.LessonIsActive,
		},
		Course: course,
	}
}

func (r *sqlxContentRepository) GetActiveTest(ctx context.Context, testID string) (*domain.Test, error) {
	var m models.Test
	query := `SELECT id, title, type, questions_count, test_duration, is_active, created_at
	          FROM tests WHERE id = $1 AND is_active = TRUE`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, testID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &domain.Test{
		ID:             m.ID,
		Title:          m.Title,
		Type:           domain.TestType(m.Type),
		QuestionsCount: m.QuestionsCount,
		Duration:       m.TestDuration,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func (r *sqlxContentRepository) ListActiveQuestionIDs(ctx context.Context, testID string) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM questions WHERE test_id = $1 AND is_active = TRUE ORDER BY sort_order, id`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &ids, query, testID); err != nil {
		return nil, fmt.Errorf("failed to list question ids: %w", err)
	}
	return ids, nil
}

// GetQuestions loads the questions with the answer key of testType attached.
// Questions come back in their configured order.
func (r *sqlxContentRepository) GetQuestions(ctx context.Context, testType domain.TestType, questionIDs []string) ([]*domain.Question, error) {
	if len(questionIDs) == 0 {
		return []*domain.Question{}, nil
	}
	exec := GetExecutor(ctx, r.db)

	query, args, err := inQuery(`SELECT id, test_id, question_text, image_url, sort_order, is_active,
	          correct_answer, regular_question_type, book_questions
	          FROM questions WHERE id IN (?) ORDER BY sort_order, id`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build questions query: %w", err)
	}
	var rows []models.Question
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	choices := map[string][]domain.AnswerChoice{}
	pairs := map[string][]domain.MatchingPair{}
	switch testType {
	case domain.TestTypeRegularTest:
		q, a, err := inQuery(`SELECT id, question_id, label, choice_text, image_url, is_correct
		          FROM answer_choices WHERE question_id IN (?) ORDER BY label, id`, questionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to build choices query: %w", err)
		}
		var cs []models.AnswerChoice
		if err := exec.SelectContext(ctx, &cs, q, a...); err != nil {
			return nil, fmt.Errorf("failed to get answer choices: %w", err)
		}
		for _, c := range cs {
			choices[c.QuestionID] = append(choices[c.QuestionID], domain.AnswerChoice{
				ID:        c.ID,
				Label:     c.Label,
				Text:      c.ChoiceText,
				ImageURL:  c.ImageURL.String,
				IsCorrect: c.IsCorrect,
			})
		}
	case domain.TestTypeMatching:
		q, a, err := inQuery(`SELECT id, question_id, left_item, right_item
		          FROM matching_pairs WHERE question_id IN (?) ORDER BY id`, questionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to build pairs query: %w", err)
		}
		var ps []models.MatchingPair
		if err := exec.SelectContext(ctx, &ps, q, a...); err != nil {
			return nil, fmt.Errorf("failed to get matching pairs: %w", err)
		}
		for _, p := range ps {
			pairs[p.QuestionID] = append(pairs[p.QuestionID], domain.MatchingPair{
				ID:        p.ID,
				LeftItem:  p.LeftItem,
				RightItem: p.RightItem,
			})
		}
	}

	out := make([]*domain.Question, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		q := &domain.Question{
			ID:       m.ID,
			TestID:   m.TestID,
			Text:     m.QuestionText,
			ImageURL: m.ImageURL.String,
			Order:    m.SortOrder,
			IsActive: m.IsActive,
		}
		switch testType {
		case domain.TestTypeTrueFalse:
			q.Key = domain.TrueFalseKey{CorrectAnswer: m.CorrectAnswer.Valid && m.CorrectAnswer.Bool}
		case domain.TestTypeRegularTest:
			q.Key = domain.ChoiceKey{
				QuestionType: domain.RegularQuestionType(m.RegularQuestionType.String),
				Choices:      choices[m.ID],
			}
		case domain.TestTypeMatching:
			q.Key = domain.MatchingKey{Pairs: pairs[m.ID]}
		case domain.TestTypeBookTest:
			sheet, err := parseBookQuestions(m.BookQuestions)
			if err != nil {
				return nil, fmt.Errorf("question %s: %w", m.ID, err)
			}
			q.Key = domain.BookKey{Questions: sheet}
		default:
			return nil, fmt.Errorf("unsupported test type %q", testType)
		}
		out = append(out, q)
	}
	return out, nil
}

// parseBookQuestions accepts both stored layouts: a section wrapper
// [{"questions_count": n, "questions": [...]}] and a flat list of lines.
func parseBookQuestions(raw models.JSONB) ([]domain.BookQuestion, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var sections []struct {
		Questions []domain.BookQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &sections); err == nil && len(sections) > 0 && sections[0].Questions != nil {
		return sections[0].Questions, nil
	}
	var flat []domain.BookQuestion
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("invalid book_questions: %w", err)
	}
	return flat, nil
}

func (r *sqlxContentRepository) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	var m models.Course
	query := `SELECT id, title, price, duration_months, is_active FROM courses WHERE id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, courseID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return toDomainCourse(&m), nil
}

func (r *sqlxContentRepository) GetLessonPartContext(ctx context.Context, lessonPartID string) (*domain.LessonPartContext, error) {
	var m models.LessonPartContext
	query := lessonPartContextSelect + ` WHERE lp.id = $1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, lessonPartID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lesson part: %w", err)
	}
	return toDomainLessonPartContext(&m), nil
}

func (r *sqlxContentRepository) GetLessonPartByTest(ctx context.Context, testID string) (*domain.LessonPartContext, error) {
	var m models.LessonPartContext
	query := lessonPartContextSelect + `
	          WHERE lp.test_id = $1 AND lp.is_active = TRUE
	          ORDER BY l.sort_order, lp.sort_order, lp.id
	          LIMIT 1`
	if err := GetExecutor(ctx, r.db).GetContext(ctx, &m, query, testID); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lesson part by test: %w", err)
	}
	return toDomainLessonPartContext(&m), nil
}

func (r *sqlxContentRepository) ListFreeLessonIDs(ctx context.Context, courseID string, limit int) ([]string, error) {
	ids := []string{}
	if limit <= 0 {
		return ids, nil
	}
	query := `SELECT id FROM lessons WHERE course_id = $1 AND is_active = TRUE
	          ORDER BY sort_order, id LIMIT $2`
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &ids, query, courseID, limit); err != nil {
		return nil, fmt.Errorf("failed to list free lessons: %w", err)
	}
	return ids, nil
}
