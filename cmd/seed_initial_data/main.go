package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/cmd/seed_initial_data/internal/seedmodels"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/config"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/database"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/repository"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultSeedFile = "configs/seed_data/initial_courses.json"

func main() {
	seedFile := flag.String("file", defaultSeedFile, "seed data file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	log.Info("Starting initial data seeding process...")
	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	byteValue, err := os.ReadFile(*seedFile)
	if err != nil {
		log.Fatal("Failed to read seed file", zap.String("path", *seedFile), zap.Error(err))
	}
	var courses []seedmodels.SeedCourse
	if err := json.Unmarshal(byteValue, &courses); err != nil {
		log.Fatal("Failed to unmarshal seed data", zap.Error(err))
	}
	log.Info("Loaded seed data", zap.Int("courses", len(courses)))

	tm := repository.NewTransactionManagerAdapter(db)
	for _, sc := range courses {
		err := tm.WithTransaction(ctx, func(ctx context.Context) error {
			return seedCourse(ctx, db, log, sc)
		})
		if err != nil {
			log.Error("Error seeding course, transaction rolled back", zap.String("course", sc.Title), zap.Error(err))
		}
	}
	log.Info("Initial data seeding process completed.")
}

// seedCourse inserts one course tree. Courses whose title already exists are skipped.
func seedCourse(ctx context.Context, db *sqlx.DB, log *zap.Logger, sc seedmodels.SeedCourse) error {
	exec := repository.GetExecutor(ctx, db)

	var exists bool
	if err := exec.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM courses WHERE title = $1)`, sc.Title); err != nil {
		return fmt.Errorf("failed to check course %q: %w", sc.Title, err)
	}
	if exists {
		log.Info("Course exists, skipping", zap.String("title", sc.Title))
		return nil
	}

	duration := sc.DurationMonths
	if duration <= 0 {
		duration = 1
	}
	courseID := util.NewULID()
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO courses (id, title, price, duration_months) VALUES ($1, $2, $3, $4)`,
		courseID, sc.Title, sc.Price, duration); err != nil {
		return fmt.Errorf("failed to insert course %q: %w", sc.Title, err)
	}

	for li, sl := range sc.Lessons {
		lessonID := util.NewULID()
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO lessons (id, course_id, title, sort_order) VALUES ($1, $2, $3, $4)`,
			lessonID, courseID, sl.Title, li+1); err != nil {
			return fmt.Errorf("failed to insert lesson %q: %w", sl.Title, err)
		}

		for pi, sp := range sl.Parts {
			partType := domain.LessonPartType(sp.Type)
			var testID *string
			if partType.IsTest() {
				if sp.Test == nil {
					return fmt.Errorf("lesson %q part %d is a %s part without a test", sl.Title, pi+1, sp.Type)
				}
				id, err := seedTest(ctx, exec, *sp.Test)
				if err != nil {
					return err
				}
				testID = &id
			}
			if _, err := exec.ExecContext(ctx,
				`INSERT INTO lesson_parts (id, lesson_id, type, sort_order, award_coin, award_point, test_id)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				util.NewULID(), lessonID, sp.Type, pi+1, sp.AwardCoin, sp.AwardPoint, testID); err != nil {
				return fmt.Errorf("failed to insert lesson part %d of %q: %w", pi+1, sl.Title, err)
			}
		}
	}

	log.Info("Created course", zap.String("id", courseID), zap.String("title", sc.Title), zap.Int("lessons", len(sc.Lessons)))
	return nil
}

func seedTest(ctx context.Context, exec repository.DBTX, st seedmodels.SeedTest) (string, error) {
	testType := domain.TestType(st.Type)
	if !testType.Valid() {
		return "", fmt.Errorf("test %q has unknown type %q", st.Title, st.Type)
	}
	count := st.QuestionsCount
	if count <= 0 {
		count = len(st.Questions)
	}

	testID := util.NewULID()
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO tests (id, title, type, questions_count, test_duration) VALUES ($1, $2, $3, $4, $5)`,
		testID, st.Title, st.Type, count, st.Duration); err != nil {
		return "", fmt.Errorf("failed to insert test %q: %w", st.Title, err)
	}

	for qi, sq := range st.Questions {
		questionID := util.NewULID()
		var book []byte
		if testType == domain.TestTypeBookTest {
			sheet := make([]domain.BookQuestion, 0, len(sq.BookAnswers))
			for i, a := range sq.BookAnswers {
				sheet = append(sheet, domain.BookQuestion{QuestionNumber: i + 1, ExpectedAnswer: a})
			}
			var err error
			if book, err = json.Marshal(sheet); err != nil {
				return "", fmt.Errorf("failed to encode book answers: %w", err)
			}
		}
		var questionType *string
		if testType == domain.TestTypeRegularTest {
			qt := sq.QuestionType
			if qt == "" {
				qt = string(domain.QuestionTypeTextChoice)
			}
			questionType = &qt
		}
		var correct *bool
		if testType == domain.TestTypeTrueFalse {
			correct = sq.CorrectAnswer
		}

		if _, err := exec.ExecContext(ctx,
			`INSERT INTO questions (id, test_id, question_text, image_url, sort_order, correct_answer, regular_question_type, book_questions)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			questionID, testID, sq.Text, util.StringToNullString(sq.ImageURL), qi+1, correct, questionType, nullableJSON(book)); err != nil {
			return "", fmt.Errorf("failed to insert question %d of %q: %w", qi+1, st.Title, err)
		}

		for _, c := range sq.Choices {
			if _, err := exec.ExecContext(ctx,
				`INSERT INTO answer_choices (id, question_id, label, choice_text, image_url, is_correct) VALUES ($1, $2, $3, $4, $5, $6)`,
				util.NewULID(), questionID, c.Label, c.Text, util.StringToNullString(c.ImageURL), c.IsCorrect); err != nil {
				return "", fmt.Errorf("failed to insert choice %s: %w", c.Label, err)
			}
		}
		for _, p := range sq.Pairs {
			if _, err := exec.ExecContext(ctx,
				`INSERT INTO matching_pairs (id, question_id, left_item, right_item) VALUES ($1, $2, $3, $4)`,
				util.NewULID(), questionID, p.Left, p.Right); err != nil {
				return "", fmt.Errorf("failed to insert matching pair: %w", err)
			}
		}
	}
	return testID, nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
