package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/cache"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/grading"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAttemptService(c domain.Cache) (*attemptService, *MockContentRepository, *MockAttemptRepository, *MockProgressService) {
	content := new(MockContentRepository)
	attempts := new(MockAttemptRepository)
	progress := new(MockProgressService)
	users := new(MockUserRepository)
	users.On("GetActiveUser", mock.Anything, mock.Anything).Return(activeUser(0), nil)
	svc := &attemptService{
		tm:        &MockTransactionManager{},
		content:   content,
		attempts:  attempts,
		users:     users,
		progress:  progress,
		cache:     c,
		engine:    grading.NewEngine(),
		validator: validation.NewValidator(),
		now:       clock,
	}
	return svc, content, attempts, progress
}

func activeTest(testType domain.TestType, questionsCount int) *domain.Test {
	return &domain.Test{ID: "test-1", Type: testType, QuestionsCount: questionsCount, IsActive: true}
}

func activeAttempt(number int) *domain.UserTest {
	return &domain.UserTest{
		ID:            "attempt-1",
		UserID:        "user-1",
		TestID:        "test-1",
		AttemptNumber: number,
		StartDate:     fixedNow,
		IsInProgress:  true,
	}
}

func trueFalseQuestion(id string, correct bool) *domain.Question {
	return &domain.Question{ID: id, TestID: "test-1", Text: "Is " + id + " true?", Key: domain.TrueFalseKey{CorrectAnswer: correct}}
}

func TestStartAttempt_SamplesAvailableQuestions(t *testing.T) {
	svc, content, attempts, _ := newTestAttemptService(nil)
	ctx := context.Background()
	pool := []string{"q1", "q2", "q3", "q4"}

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 10), nil)
	attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)
	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(nil, nil)
	attempts.On("NextAttemptNumber", mock.Anything, "user-1", "test-1").Return(1, nil)
	content.On("ListActiveQuestionIDs", mock.Anything, "test-1").Return(pool, nil)
	attempts.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a *domain.UserTest) bool {
		return a.UserID == "user-1" && a.AttemptNumber == 1 && a.IsInProgress && !a.IsSubmitted
	})).Return(nil)

	var created []*domain.UserAnswer
	attempts.On("CreateBlankAnswers", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).([]*domain.UserAnswer) }).
		Return(nil)

	resp, err := svc.StartAttempt(ctx, "user-1", "test-1")
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, 1, resp.AttemptNumber)
	assert.True(t, resp.IsInProgress)

	require.Len(t, created, 4)
	got := make([]string, 0, len(created))
	for _, a := range created {
		assert.Equal(t, resp.ID, a.UserTestID)
		assert.Nil(t, a.Answer)
		got = append(got, a.QuestionID)
	}
	sort.Strings(got)
	assert.Equal(t, pool, got)
	attempts.AssertExpectations(t)
}

func TestStartAttempt_SamplesQuestionsCount(t *testing.T) {
	svc, content, attempts, _ := newTestAttemptService(nil)
	pool := []string{"q1", "q2", "q3", "q4", "q5", "q6"}

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 3), nil)
	attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)
	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(nil, nil)
	attempts.On("NextAttemptNumber", mock.Anything, "user-1", "test-1").Return(2, nil)
	content.On("ListActiveQuestionIDs", mock.Anything, "test-1").Return(pool, nil)
	attempts.On("CreateAttempt", mock.Anything, mock.Anything).Return(nil)
	attempts.On("CreateBlankAnswers", mock.Anything, mock.MatchedBy(func(a []*domain.UserAnswer) bool {
		seen := map[string]bool{}
		for _, ans := range a {
			seen[ans.QuestionID] = true
		}
		return len(a) == 3 && len(seen) == 3
	})).Return(nil)

	resp, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.AttemptNumber)
	attempts.AssertExpectations(t)
}

func TestStartAttempt_ReturnsActiveAttempt(t *testing.T) {
	svc, content, attempts, progress := newTestAttemptService(nil)
	existing := activeAttempt(3)

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(existing, nil)

	resp, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Equal(t, existing.ID, resp.ID)
	assert.Equal(t, 3, resp.AttemptNumber)
	attempts.AssertNotCalled(t, "CreateAttempt", mock.Anything, mock.Anything)
	attempts.AssertNotCalled(t, "CreateBlankAnswers", mock.Anything, mock.Anything)
	progress.AssertNotCalled(t, "EnsureChain", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartAttempt_LosesRaceToConcurrentStart(t *testing.T) {
	svc, content, attempts, _ := newTestAttemptService(nil)
	winner := activeAttempt(1)

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil).Once()
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(winner, nil).Once()
	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(nil, nil)
	attempts.On("NextAttemptNumber", mock.Anything, "user-1", "test-1").Return(1, nil)
	content.On("ListActiveQuestionIDs", mock.Anything, "test-1").Return([]string{"q1"}, nil)
	attempts.On("CreateAttempt", mock.Anything, mock.Anything).Return(domain.ErrUniqueViolation)

	resp, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, resp.ID)
	assert.False(t, resp.Created)
	attempts.AssertNotCalled(t, "CreateBlankAnswers", mock.Anything, mock.Anything)
}

func TestStartAttempt_CreatesProgressChain(t *testing.T) {
	svc, content, attempts, progress := newTestAttemptService(nil)
	lpc := lessonPartContext(domain.LessonPartTrueFalse)

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)
	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
	progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(testChain(), nil)
	attempts.On("NextAttemptNumber", mock.Anything, "user-1", "test-1").Return(1, nil)
	content.On("ListActiveQuestionIDs", mock.Anything, "test-1").Return([]string{"q1"}, nil)
	attempts.On("CreateAttempt", mock.Anything, mock.Anything).Return(nil)
	attempts.On("CreateBlankAnswers", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	progress.AssertExpectations(t)
}

func TestStartAttempt_Failures(t *testing.T) {
	t.Run("unknown test", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		content.On("GetActiveTest", mock.Anything, "test-x").Return(nil, nil)

		_, err := svc.StartAttempt(context.Background(), "user-1", "test-x")
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
		attempts.AssertNotCalled(t, "LockAttemptSlot", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no course access", func(t *testing.T) {
		svc, content, attempts, progress := newTestAttemptService(nil)
		lpc := lessonPartContext(domain.LessonPartTrueFalse)
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
		attempts.On("LockAttemptSlot", mock.Anything, "user-1", "test-1").Return(nil)
		attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)
		content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
		progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(nil, domain.NewForbiddenError("course access required"))

		_, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
		assert.True(t, domain.HasCode(err, domain.CodeForbidden))
		attempts.AssertNotCalled(t, "CreateAttempt", mock.Anything, mock.Anything)
	})
}

// finishFixture wires a true_false attempt whose answers grade 3 of 5 correct.
func finishFixture(t *testing.T, attemptNumber int) (*attemptService, *MockContentRepository, *MockAttemptRepository, *MockProgressService) {
	t.Helper()
	svc, content, attempts, progress := newTestAttemptService(nil)

	yes, no := true, false
	answers := []*domain.UserAnswer{
		{ID: "a1", UserTestID: "attempt-1", QuestionID: "q1", Answer: domain.BooleanAnswer{Value: yes}},
		{ID: "a2", UserTestID: "attempt-1", QuestionID: "q2", Answer: domain.BooleanAnswer{Value: yes}},
		{ID: "a3", UserTestID: "attempt-1", QuestionID: "q3", Answer: domain.BooleanAnswer{Value: no}},
		{ID: "a4", UserTestID: "attempt-1", QuestionID: "q4", Answer: domain.BooleanAnswer{Value: no}},
		{ID: "a5", UserTestID: "attempt-1", QuestionID: "q5"},
	}
	questions := []*domain.Question{
		trueFalseQuestion("q1", true),
		trueFalseQuestion("q2", true),
		trueFalseQuestion("q3", false),
		trueFalseQuestion("q4", true),
		trueFalseQuestion("q5", true),
	}

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(attemptNumber), nil)
	attempts.On("ListAnswers", mock.Anything, "attempt-1").Return(answers, nil)
	content.On("GetQuestions", mock.Anything, domain.TestTypeTrueFalse, []string{"q1", "q2", "q3", "q4", "q5"}).Return(questions, nil)
	attempts.On("SaveGrade", mock.Anything, "a1", true).Return(nil)
	attempts.On("SaveGrade", mock.Anything, "a2", true).Return(nil)
	attempts.On("SaveGrade", mock.Anything, "a3", true).Return(nil)
	attempts.On("SubmitAttempt", mock.Anything, mock.MatchedBy(func(a *domain.UserTest) bool {
		return a.IsSubmitted && !a.IsInProgress && a.TotalQuestions == 5 && a.CorrectAnswers == 3 &&
			!a.IsPassed && a.FinishDate != nil && a.FinishDate.Equal(fixedNow)
	})).Return(nil)
	return svc, content, attempts, progress
}

func TestFinishAttempt_FirstAttemptScaledAward(t *testing.T) {
	svc, content, attempts, progress := finishFixture(t, 1)
	lpc := lessonPartContext(domain.LessonPartTrueFalse)

	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
	progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(testChain(), nil)
	progress.On("MarkLessonPartCompleted", mock.Anything, "ulp-1", domain.Award{Coin: 6, Point: 3}).
		Return(&domain.ProgressResult{Completed: true, Awarded: domain.Award{Coin: 6, Point: 3}}, nil)

	resp, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, "attempt-1", resp.ID)
	assert.True(t, resp.IsSubmitted)
	assert.False(t, resp.IsPassed)
	assert.Equal(t, 5, resp.TotalQuestions)
	assert.Equal(t, 3, resp.CorrectAnswers)
	assert.Equal(t, 60.0, resp.ScorePercent)
	assert.True(t, resp.LessonPartCompleted)
	assert.Equal(t, dto.AwardResponse{Coin: 6, Point: 3}, resp.Awarded)
	attempts.AssertExpectations(t)
	progress.AssertExpectations(t)
	attempts.AssertNotCalled(t, "SaveGrade", mock.Anything, "a4", mock.Anything)
	attempts.AssertNotCalled(t, "SaveGrade", mock.Anything, "a5", mock.Anything)
}

func TestFinishAttempt_RetakeCompletesWithoutAward(t *testing.T) {
	svc, content, _, progress := finishFixture(t, 2)
	lpc := lessonPartContext(domain.LessonPartTrueFalse)

	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
	progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(testChain(), nil)
	progress.On("MarkLessonPartCompleted", mock.Anything, "ulp-1", domain.Award{}).
		Return(&domain.ProgressResult{Completed: true}, nil)

	resp, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.True(t, resp.LessonPartCompleted)
	assert.Equal(t, dto.AwardResponse{}, resp.Awarded)
	progress.AssertExpectations(t)
}

func TestFinishAttempt_AlreadyCompletedPart(t *testing.T) {
	svc, content, _, progress := finishFixture(t, 2)
	lpc := lessonPartContext(domain.LessonPartTrueFalse)
	chain := testChain()
	chain.Part.IsCompleted = true

	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
	progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(chain, nil)

	resp, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.False(t, resp.LessonPartCompleted)
	progress.AssertNotCalled(t, "MarkLessonPartCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinishAttempt_WithoutCourseAccessStillSubmits(t *testing.T) {
	svc, content, attempts, progress := finishFixture(t, 1)
	lpc := lessonPartContext(domain.LessonPartTrueFalse)

	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(lpc, nil)
	progress.On("EnsureChain", mock.Anything, "user-1", lpc).Return(nil, domain.NewForbiddenError("course access required"))

	resp, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.True(t, resp.IsSubmitted)
	assert.False(t, resp.LessonPartCompleted)
	attempts.AssertCalled(t, "SubmitAttempt", mock.Anything, mock.Anything)
	progress.AssertNotCalled(t, "MarkLessonPartCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinishAttempt_DropsCachedSheet(t *testing.T) {
	c := new(MockCache)
	_, content, attempts, progress := finishFixture(t, 1)
	svc := &attemptService{
		tm:       &MockTransactionManager{},
		content:  content,
		attempts: attempts,
		progress: progress,
		cache:    c,
		engine:   grading.NewEngine(),
		now:      clock,
	}
	content.On("GetLessonPartByTest", mock.Anything, "test-1").Return(nil, nil)
	c.On("Delete", mock.Anything, cache.AttemptSheetKey("attempt-1")).Return(nil)

	_, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestFinishAttempt_NoActiveAttempt(t *testing.T) {
	svc, content, attempts, _ := newTestAttemptService(nil)
	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)

	_, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	attempts.AssertNotCalled(t, "SubmitAttempt", mock.Anything, mock.Anything)
}

func TestSubmitAnswer(t *testing.T) {
	choiceID := util.NewULID()
	choiceQuestion := &domain.Question{ID: "q1", Key: domain.ChoiceKey{
		QuestionType: domain.QuestionTypeTextChoice,
		Choices:      []domain.AnswerChoice{{ID: choiceID, Label: "A", Text: "Heart", IsCorrect: true}},
	}}

	t.Run("stores ungraded answer", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeRegularTest, 5), nil)
		attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(1), nil)
		attempts.On("GetAnswer", mock.Anything, "a1").Return(&domain.UserAnswer{ID: "a1", UserTestID: "attempt-1", QuestionID: "q1"}, nil)
		content.On("GetQuestions", mock.Anything, domain.TestTypeRegularTest, []string{"q1"}).Return([]*domain.Question{choiceQuestion}, nil)
		attempts.On("SaveAnswer", mock.Anything, "a1", domain.ChoiceAnswer{ChoiceID: choiceID}, fixedNow).Return(nil)

		resp, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "a1", dto.AnswerPayload{SelectedChoiceID: &choiceID})
		require.NoError(t, err)
		assert.Equal(t, "a1", resp.ID)
		attempts.AssertExpectations(t)
		attempts.AssertNotCalled(t, "SaveGrade", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("payload of another type", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeRegularTest, 5), nil)
		yes := true

		_, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "a1", dto.AnswerPayload{BooleanAnswer: &yes})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
		attempts.AssertNotCalled(t, "LockActiveAttempt", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("choice of another question", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		foreign := util.NewULID()
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeRegularTest, 5), nil)
		attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(1), nil)
		attempts.On("GetAnswer", mock.Anything, "a1").Return(&domain.UserAnswer{ID: "a1", UserTestID: "attempt-1", QuestionID: "q1"}, nil)
		content.On("GetQuestions", mock.Anything, domain.TestTypeRegularTest, []string{"q1"}).Return([]*domain.Question{choiceQuestion}, nil)

		_, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "a1", dto.AnswerPayload{SelectedChoiceID: &foreign})
		var verrs domain.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "selected_choice_id", verrs[0].Field)
		attempts.AssertNotCalled(t, "SaveAnswer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("answer of another attempt", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		yes := true
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
		attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(1), nil)
		attempts.On("GetAnswer", mock.Anything, "a9").Return(&domain.UserAnswer{ID: "a9", UserTestID: "attempt-old", QuestionID: "q1"}, nil)

		_, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "a9", dto.AnswerPayload{BooleanAnswer: &yes})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})

	t.Run("no active attempt", func(t *testing.T) {
		svc, content, attempts, _ := newTestAttemptService(nil)
		yes := true
		content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
		attempts.On("LockActiveAttempt", mock.Anything, "user-1", "test-1").Return(nil, nil)

		_, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "a1", dto.AnswerPayload{BooleanAnswer: &yes})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})
}

func TestGetAttemptQuestions_CacheMiss(t *testing.T) {
	c := new(MockCache)
	svc, content, attempts, _ := newTestAttemptService(c)
	answeredAt := fixedNow
	left := domain.MatchingKey{Pairs: []domain.MatchingPair{
		{ID: "p1", LeftItem: "Heart", RightItem: "Pump"},
		{ID: "p2", LeftItem: "Lung", RightItem: "Breath"},
	}}
	answers := []*domain.UserAnswer{
		{ID: "a1", UserTestID: "attempt-1", QuestionID: "q1",
			Answer: domain.MatchingAnswer{Mapping: map[string]string{"Heart": "Pump"}}, AnsweredAt: &answeredAt},
		{ID: "a2", UserTestID: "attempt-1", QuestionID: "q2"},
	}
	test := activeTest(domain.TestTypeMatching, 2)
	test.Duration = 30

	content.On("GetActiveTest", mock.Anything, "test-1").Return(test, nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(1), nil)
	attempts.On("ListAnswers", mock.Anything, "attempt-1").Return(answers, nil)
	c.On("Get", mock.Anything, cache.AttemptSheetKey("attempt-1")).Return("", domain.ErrCacheMiss)
	content.On("GetQuestions", mock.Anything, domain.TestTypeMatching, []string{"q1", "q2"}).Return([]*domain.Question{
		{ID: "q1", Text: "Match organs", Key: left},
		{ID: "q2", Text: "Match again", Key: left},
	}, nil)
	c.On("Set", mock.Anything, cache.AttemptSheetKey("attempt-1"), mock.AnythingOfType("string"), mock.Anything).Return(nil)

	resp, err := svc.GetAttemptQuestions(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, "matching", resp.TestType)
	assert.Equal(t, 30, resp.Duration)
	require.Len(t, resp.Questions, 2)

	first := resp.Questions[0]
	assert.Equal(t, "a1", first.AnswerID)
	assert.True(t, first.Answered)
	assert.Equal(t, []string{"Heart", "Lung"}, first.LeftItems)
	assert.Equal(t, []string{"Breath", "Pump"}, first.RightItems)
	require.NotNil(t, first.Answer)
	assert.Equal(t, "Pump", first.Answer.MatchingAnswer["Heart"])

	assert.False(t, resp.Questions[1].Answered)
	assert.Nil(t, resp.Questions[1].Answer)
	c.AssertExpectations(t)
}

func TestGetAttemptQuestions_CacheHit(t *testing.T) {
	c := new(MockCache)
	svc, content, attempts, _ := newTestAttemptService(c)
	sheet := map[string]dto.AttemptQuestionItem{
		"q1": {QuestionID: "q1", Text: "Is the heart a muscle?"},
	}
	raw, err := json.Marshal(sheet)
	require.NoError(t, err)

	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 1), nil)
	attempts.On("GetActiveAttempt", mock.Anything, "user-1", "test-1").Return(activeAttempt(1), nil)
	attempts.On("ListAnswers", mock.Anything, "attempt-1").Return([]*domain.UserAnswer{
		{ID: "a1", UserTestID: "attempt-1", QuestionID: "q1"},
	}, nil)
	c.On("Get", mock.Anything, cache.AttemptSheetKey("attempt-1")).Return(string(raw), nil)

	resp, err := svc.GetAttemptQuestions(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "Is the heart a muscle?", resp.Questions[0].Text)
	assert.Equal(t, "a1", resp.Questions[0].AnswerID)
	content.AssertNotCalled(t, "GetQuestions", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderQuestion_HidesCorrectness(t *testing.T) {
	item := renderQuestion(&domain.Question{ID: "q1", Key: domain.ChoiceKey{
		QuestionType: domain.QuestionTypeImageChoice,
		Choices: []domain.AnswerChoice{
			{ID: "c1", Label: "A", ImageURL: "https://cdn/a.png", IsCorrect: true},
			{ID: "c2", Label: "B", ImageURL: "https://cdn/b.png"},
		},
	}})
	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct")
	assert.Equal(t, "image_choice", item.QuestionType)
	assert.Len(t, item.Choices, 2)

	book := renderQuestion(&domain.Question{ID: "q2", Key: domain.BookKey{Questions: []domain.BookQuestion{
		{QuestionNumber: 1, ExpectedAnswer: "a"}, {QuestionNumber: 2, ExpectedAnswer: "b"},
	}}})
	assert.Equal(t, 2, book.BookQuestionsCount)
}

func TestListResults(t *testing.T) {
	svc, content, attempts, _ := newTestAttemptService(nil)
	finished := fixedNow
	content.On("GetActiveTest", mock.Anything, "test-1").Return(activeTest(domain.TestTypeTrueFalse, 5), nil)
	attempts.On("ListSubmittedAttempts", mock.Anything, "user-1", "test-1").Return([]*domain.UserTest{
		{ID: "t2", AttemptNumber: 2, IsSubmitted: true, IsPassed: true, TotalQuestions: 5, CorrectAnswers: 4, FinishDate: &finished},
		{ID: "t1", AttemptNumber: 1, IsSubmitted: true, TotalQuestions: 5, CorrectAnswers: 3, FinishDate: &finished},
	}, nil)

	resp, err := svc.ListResults(context.Background(), "user-1", "test-1")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalAttempts)
	assert.Equal(t, 80.0, resp.BestScore)
	assert.True(t, resp.Passed)
	require.Len(t, resp.Attempts, 2)
	assert.Equal(t, "t2", resp.Attempts[0].ID)
	assert.Equal(t, 60.0, resp.Attempts[1].ScorePercent)
}

func TestAttemptOperations_RejectDeletedUser(t *testing.T) {
	calls := map[string]func(svc *attemptService) error{
		"start": func(svc *attemptService) error {
			_, err := svc.StartAttempt(context.Background(), "user-1", "test-1")
			return err
		},
		"questions": func(svc *attemptService) error {
			_, err := svc.GetAttemptQuestions(context.Background(), "user-1", "test-1")
			return err
		},
		"submit": func(svc *attemptService) error {
			yes := true
			_, err := svc.SubmitAnswer(context.Background(), "user-1", "test-1", "answer-1", dto.AnswerPayload{BooleanAnswer: &yes})
			return err
		},
		"finish": func(svc *attemptService) error {
			_, err := svc.FinishAttempt(context.Background(), "user-1", "test-1")
			return err
		},
		"results": func(svc *attemptService) error {
			_, err := svc.ListResults(context.Background(), "user-1", "test-1")
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			svc, content, attempts, progress := newTestAttemptService(nil)
			deleted := new(MockUserRepository)
			deleted.On("GetActiveUser", mock.Anything, "user-1").Return(nil, nil)
			svc.users = deleted

			err := call(svc)
			assert.True(t, domain.HasCode(err, domain.CodeNotFound))
			deleted.AssertExpectations(t)
			content.AssertNotCalled(t, "GetActiveTest", mock.Anything, mock.Anything)
			assert.Empty(t, attempts.Calls)
			assert.Empty(t, progress.Calls)
		})
	}
}
