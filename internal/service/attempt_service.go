package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/cache"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/grading"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/logger"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"go.uber.org/zap"
)

// sheetTTL bounds how long a rendered question sheet stays cached for tests without a time limit.
const sheetTTL = 2 * time.Hour

// AttemptService runs the start/answer/finish lifecycle of test attempts.
type AttemptService interface {
	StartAttempt(ctx context.Context, userID, testID string) (*dto.StartAttemptResponse, error)
	GetAttemptQuestions(ctx context.Context, userID, testID string) (*dto.AttemptQuestionsResponse, error)
	SubmitAnswer(ctx context.Context, userID, testID, answerID string, payload dto.AnswerPayload) (*dto.SubmitAnswerResponse, error)
	FinishAttempt(ctx context.Context, userID, testID string) (*dto.FinishAttemptResponse, error)
	ListResults(ctx context.Context, userID, testID string) (*dto.TestResultsResponse, error)
}

type attemptService struct {
	tm        domain.TransactionManager
	content   domain.ContentRepository
	attempts  domain.AttemptRepository
	users     domain.UserRepository
	progress  ProgressService
	cache     domain.Cache
	engine    *grading.Engine
	validator *validation.Validator
	now       func() time.Time
}

// NewAttemptService creates a new attempt service. cache may be nil.
func NewAttemptService(
	tm domain.TransactionManager,
	content domain.ContentRepository,
	attempts domain.AttemptRepository,
	users domain.UserRepository,
	progress ProgressService,
	cache domain.Cache,
	engine *grading.Engine,
	validator *validation.Validator,
) AttemptService {
	return &attemptService{
		tm:        tm,
		content:   content,
		attempts:  attempts,
		users:     users,
		progress:  progress,
		cache:     cache,
		engine:    engine,
		validator: validator,
		now:       time.Now,
	}
}

// errAttemptRace signals that a concurrent start created the active attempt first.
var errAttemptRace = errors.New("concurrent attempt created")

// getTest loads the test for an active caller. Every attempt operation
// starts here.
func (s *attemptService) getTest(ctx context.Context, userID, testID string) (*domain.Test, error) {
	if err := requireActiveUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	test, err := s.content.GetActiveTest(ctx, testID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get test", err)
	}
	if test == nil {
		return nil, domain.NewNotFoundError("test")
	}
	return test, nil
}

func toStartAttemptResponse(t *domain.UserTest, created bool) *dto.StartAttemptResponse {
	return &dto.StartAttemptResponse{
		ID:            t.ID,
		TestID:        t.TestID,
		StartDate:     t.StartDate,
		AttemptNumber: t.AttemptNumber,
		IsInProgress:  t.IsInProgress,
		Created:       created,
	}
}

// StartAttempt implements AttemptService
func (s *attemptService) StartAttempt(ctx context.Context, userID, testID string) (*dto.StartAttemptResponse, error) {
	test, err := s.getTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}

	var resp *dto.StartAttemptResponse
	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.attempts.LockAttemptSlot(ctx, userID, testID); err != nil {
			return domain.NewInternalError("failed to lock attempt slot", err)
		}

		active, err := s.attempts.GetActiveAttempt(ctx, userID, testID)
		if err != nil {
			return domain.NewInternalError("failed to get active attempt", err)
		}
		if active != nil {
			resp = toStartAttemptResponse(active, false)
			return nil
		}

		lpc, err := s.content.GetLessonPartByTest(ctx, testID)
		if err != nil {
			return domain.NewInternalError("failed to get lesson part", err)
		}
		if lpc != nil {
			if _, err := s.progress.EnsureChain(ctx, userID, lpc); err != nil {
				return err
			}
		}

		number, err := s.attempts.NextAttemptNumber(ctx, userID, testID)
		if err != nil {
			return domain.NewInternalError("failed to compute attempt number", err)
		}
		pool, err := s.content.ListActiveQuestionIDs(ctx, testID)
		if err != nil {
			return domain.NewInternalError("failed to list questions", err)
		}
		sampled := util.SampleStrings(pool, test.QuestionsCount)

		attempt := &domain.UserTest{
			ID:            util.NewULID(),
			UserID:        userID,
			TestID:        testID,
			AttemptNumber: number,
			StartDate:     s.now(),
			IsInProgress:  true,
		}
		if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
			if errors.Is(err, domain.ErrUniqueViolation) {
				return errAttemptRace
			}
			return domain.NewInternalError("failed to create attempt", err)
		}

		answers := make([]*domain.UserAnswer, 0, len(sampled))
		for _, qid := range sampled {
			answers = append(answers, &domain.UserAnswer{
				ID:         util.NewULID(),
				UserTestID: attempt.ID,
				QuestionID: qid,
			})
		}
		if err := s.attempts.CreateBlankAnswers(ctx, answers); err != nil {
			return domain.NewInternalError("failed to create answers", err)
		}

		resp = toStartAttemptResponse(attempt, true)
		return nil
	})

	if errors.Is(err, errAttemptRace) {
		// The failed insert aborted our transaction; read the winner outside it.
		active, getErr := s.attempts.GetActiveAttempt(ctx, userID, testID)
		if getErr != nil {
			return nil, domain.NewInternalError("failed to get active attempt", getErr)
		}
		if active == nil {
			return nil, domain.NewConflictError("test_id", "attempt could not be started, try again")
		}
		return toStartAttemptResponse(active, false), nil
	}
	if err != nil {
		return nil, err
	}

	if resp.Created {
		logger.Get().Info("Attempt started",
			zap.String("userID", userID),
			zap.String("testID", testID),
			zap.String("attemptID", resp.ID),
			zap.Int("attemptNumber", resp.AttemptNumber))
	}
	return resp, nil
}

func (s *attemptService) getActiveAttempt(ctx context.Context, userID, testID string) (*domain.UserTest, error) {
	attempt, err := s.attempts.GetActiveAttempt(ctx, userID, testID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get active attempt", err)
	}
	if attempt == nil {
		return nil, domain.NewNotFoundError("active attempt")
	}
	return attempt, nil
}

// renderQuestion builds the client view of q. Correctness is never included.
func renderQuestion(q *domain.Question) dto.AttemptQuestionItem {
	item := dto.AttemptQuestionItem{
		QuestionID: q.ID,
		Text:       q.Text,
		ImageURL:   q.ImageURL,
	}
	switch key := q.Key.(type) {
	case domain.ChoiceKey:
		item.QuestionType = string(key.QuestionType)
		item.Choices = make([]dto.ChoiceItem, 0, len(key.Choices))
		for _, c := range key.Choices {
			item.Choices = append(item.Choices, dto.ChoiceItem{ID: c.ID, Label: c.Label, Text: c.Text, ImageURL: c.ImageURL})
		}
	case domain.MatchingKey:
		item.LeftItems = make([]string, 0, len(key.Pairs))
		item.RightItems = make([]string, 0, len(key.Pairs))
		for _, p := range key.Pairs {
			item.LeftItems = append(item.LeftItems, p.LeftItem)
			item.RightItems = append(item.RightItems, p.RightItem)
		}
		// Pair order would give the mapping away.
		sort.Strings(item.RightItems)
	case domain.BookKey:
		item.BookQuestionsCount = len(key.Questions)
	}
	return item
}

func toAnswerPayload(a domain.Answer) *dto.AnswerPayload {
	switch v := a.(type) {
	case domain.BooleanAnswer:
		return &dto.AnswerPayload{BooleanAnswer: &v.Value}
	case domain.ChoiceAnswer:
		return &dto.AnswerPayload{SelectedChoiceID: &v.ChoiceID}
	case domain.MatchingAnswer:
		return &dto.AnswerPayload{MatchingAnswer: v.Mapping}
	case domain.BookAnswer:
		return &dto.AnswerPayload{BookAnswer: v.Answers}
	}
	return nil
}

// loadSheet returns the rendered questions of an attempt by question ID,
// reading through the cache.
func (s *attemptService) loadSheet(ctx context.Context, attempt *domain.UserTest, test *domain.Test, answers []*domain.UserAnswer) (map[string]dto.AttemptQuestionItem, error) {
	key := cache.AttemptSheetKey(attempt.ID)
	sheet := make(map[string]dto.AttemptQuestionItem, len(answers))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			if jsonErr := json.Unmarshal([]byte(cached), &sheet); jsonErr == nil {
				return sheet, nil
			}
			logger.Get().Warn("Discarding unreadable cached sheet", zap.String("key", key))
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Failed to read sheet cache", zap.String("key", key), zap.Error(err))
		}
	}

	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.content.GetQuestions(ctx, test.Type, ids)
	if err != nil {
		return nil, domain.NewInternalError("failed to get questions", err)
	}
	for _, q := range questions {
		sheet[q.ID] = renderQuestion(q)
	}

	if s.cache != nil {
		ttl := sheetTTL
		if test.Duration > 0 {
			ttl = time.Duration(test.Duration)*time.Minute + time.Minute
		}
		if data, err := json.Marshal(sheet); err == nil {
			if err := s.cache.Set(ctx, key, string(data), ttl); err != nil {
				logger.Get().Warn("Failed to cache sheet", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return sheet, nil
}

// GetAttemptQuestions implements AttemptService
func (s *attemptService) GetAttemptQuestions(ctx context.Context, userID, testID string) (*dto.AttemptQuestionsResponse, error) {
	test, err := s.getTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.getActiveAttempt(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list answers", err)
	}
	sheet, err := s.loadSheet(ctx, attempt, test, answers)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AttemptQuestionItem, 0, len(answers))
	for _, a := range answers {
		item, ok := sheet[a.QuestionID]
		if !ok {
			item = dto.AttemptQuestionItem{QuestionID: a.QuestionID}
		}
		item.AnswerID = a.ID
		item.Answered = a.AnsweredAt != nil
		if a.Answer != nil {
			item.Answer = toAnswerPayload(a.Answer)
		}
		items = append(items, item)
	}

	return &dto.AttemptQuestionsResponse{
		AttemptID: attempt.ID,
		TestID:    testID,
		TestType:  string(test.Type),
		Duration:  test.Duration,
		StartDate: attempt.StartDate,
		Questions: items,
	}, nil
}

// SubmitAnswer implements AttemptService. The answer is stored ungraded.
func (s *attemptService) SubmitAnswer(ctx context.Context, userID, testID, answerID string, payload dto.AnswerPayload) (*dto.SubmitAnswerResponse, error) {
	test, err := s.getTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	answer, verrs := s.validator.ParseAnswer(test.Type, payload)
	if len(verrs) > 0 {
		return nil, verrs
	}

	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		attempt, err := s.attempts.LockActiveAttempt(ctx, userID, testID)
		if err != nil {
			return domain.NewInternalError("failed to get active attempt", err)
		}
		if attempt == nil {
			return domain.NewNotFoundError("active attempt")
		}

		slot, err := s.attempts.GetAnswer(ctx, answerID)
		if err != nil {
			return domain.NewInternalError("failed to get answer", err)
		}
		if slot == nil || slot.UserTestID != attempt.ID {
			return domain.NewNotFoundError("answer")
		}

		if choice, ok := answer.(domain.ChoiceAnswer); ok {
			questions, err := s.content.GetQuestions(ctx, test.Type, []string{slot.QuestionID})
			if err != nil {
				return domain.NewInternalError("failed to get question", err)
			}
			valid := false
			if len(questions) == 1 {
				if key, isChoice := questions[0].Key.(domain.ChoiceKey); isChoice {
					_, valid = key.Choice(choice.ChoiceID)
				}
			}
			if !valid {
				return domain.NewValidationError("selected_choice_id", "choice does not belong to this question")
			}
		}

		if err := s.attempts.SaveAnswer(ctx, answerID, answer, s.now()); err != nil {
			return domain.NewInternalError("failed to save answer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SubmitAnswerResponse{ID: answerID}, nil
}

// FinishAttempt implements AttemptService
func (s *attemptService) FinishAttempt(ctx context.Context, userID, testID string) (*dto.FinishAttemptResponse, error) {
	test, err := s.getTest(ctx, userID, testID)
	if err != nil {
		return nil, err
	}

	var (
		attempt  *domain.UserTest
		progress *domain.ProgressResult
	)
	err = s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		attempt, err = s.attempts.LockActiveAttempt(ctx, userID, testID)
		if err != nil {
			return domain.NewInternalError("failed to get active attempt", err)
		}
		if attempt == nil {
			return domain.NewNotFoundError("active attempt")
		}

		answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
		if err != nil {
			return domain.NewInternalError("failed to list answers", err)
		}
		ids := make([]string, 0, len(answers))
		for _, a := range answers {
			ids = append(ids, a.QuestionID)
		}
		questions, err := s.content.GetQuestions(ctx, test.Type, ids)
		if err != nil {
			return domain.NewInternalError("failed to get questions", err)
		}
		byID := make(map[string]*domain.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		graded := s.engine.GradeAll(byID, answers)
		for _, a := range answers {
			if graded.Correct[a.ID] == a.IsCorrect {
				continue
			}
			if err := s.attempts.SaveGrade(ctx, a.ID, graded.Correct[a.ID]); err != nil {
				return domain.NewInternalError("failed to save grade", err)
			}
		}

		attempt.Finish(graded.Total, graded.Score, s.now())
		if err := s.attempts.SubmitAttempt(ctx, attempt); err != nil {
			return domain.NewInternalError("failed to submit attempt", err)
		}

		progress, err = s.propagate(ctx, userID, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.AttemptSheetKey(attempt.ID)); err != nil {
			logger.Get().Warn("Failed to drop sheet cache", zap.String("attemptID", attempt.ID), zap.Error(err))
		}
	}

	logger.Get().Info("Attempt finished",
		zap.String("userID", userID),
		zap.String("testID", testID),
		zap.String("attemptID", attempt.ID),
		zap.Int("correct", attempt.CorrectAnswers),
		zap.Int("total", attempt.TotalQuestions),
		zap.Bool("passed", attempt.IsPassed))

	resp := &dto.FinishAttemptResponse{
		ID:             attempt.ID,
		IsPassed:       attempt.IsPassed,
		IsSubmitted:    attempt.IsSubmitted,
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
		ScorePercent:   attempt.ScorePercent(),
		FinishDate:     attempt.FinishDate,
	}
	if progress != nil {
		resp.LessonPartCompleted = progress.Completed
		resp.Awarded = dto.AwardResponse{Coin: progress.Awarded.Coin, Point: progress.Awarded.Point}
	}
	return resp, nil
}

// propagate completes the lesson part delivering the test. Only the first
// attempt earns a reward, scaled by its score.
func (s *attemptService) propagate(ctx context.Context, userID string, attempt *domain.UserTest) (*domain.ProgressResult, error) {
	lpc, err := s.content.GetLessonPartByTest(ctx, attempt.TestID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get lesson part", err)
	}
	if lpc == nil {
		return nil, nil
	}

	chain, err := s.progress.EnsureChain(ctx, userID, lpc)
	if err != nil {
		if domain.HasCode(err, domain.CodeForbidden) {
			logger.Get().Warn("Skipping progress for attempt without course access",
				zap.String("userID", userID),
				zap.String("attemptID", attempt.ID),
				zap.String("lessonPartID", lpc.Part.ID))
			return nil, nil
		}
		return nil, err
	}
	if chain.Part.IsCompleted {
		return nil, nil
	}

	award := domain.Award{}
	if attempt.AttemptNumber == 1 {
		award = domain.ScaledAward(domain.Award{Coin: lpc.Part.AwardCoin, Point: lpc.Part.AwardPoint},
			attempt.CorrectAnswers, attempt.TotalQuestions)
	}
	return s.progress.MarkLessonPartCompleted(ctx, chain.Part.ID, award)
}

// ListResults implements AttemptService
func (s *attemptService) ListResults(ctx context.Context, userID, testID string) (*dto.TestResultsResponse, error) {
	if _, err := s.getTest(ctx, userID, testID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListSubmittedAttempts(ctx, userID, testID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list attempts", err)
	}

	resp := &dto.TestResultsResponse{
		TestID:        testID,
		TotalAttempts: len(attempts),
		Attempts:      make([]dto.AttemptResultItem, 0, len(attempts)),
	}
	for _, a := range attempts {
		score := a.ScorePercent()
		if score > resp.BestScore {
			resp.BestScore = score
		}
		if a.IsPassed {
			resp.Passed = true
		}
		resp.Attempts = append(resp.Attempts, dto.AttemptResultItem{
			ID:             a.ID,
			AttemptNumber:  a.AttemptNumber,
			StartDate:      a.StartDate,
			FinishDate:     a.FinishDate,
			IsPassed:       a.IsPassed,
			TotalQuestions: a.TotalQuestions,
			CorrectAnswers: a.CorrectAnswers,
			ScorePercent:   score,
		})
	}
	return resp, nil
}
