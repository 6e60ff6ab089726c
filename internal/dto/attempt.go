package dto

import "time"

// StartAttemptResponse describes the attempt a user is now working on.
// @Description Active test attempt
type StartAttemptResponse struct {
	ID            string    `json:"id"`
	TestID        string    `json:"test_id"`
	StartDate     time.Time `json:"start_date"`
	AttemptNumber int       `json:"attempt_number"`
	IsInProgress  bool      `json:"is_in_progress"`
	// Created is false when an existing in-progress attempt was returned.
	Created bool `json:"-"`
}

// AnswerPayload is the body of a submitted answer. Exactly the field matching
// the test type must be set.
// @Description Answer submission; set the field for the test type
type AnswerPayload struct {
	SelectedChoiceID *string           `json:"selected_choice_id,omitempty"`
	BooleanAnswer    *bool             `json:"boolean_answer,omitempty"`
	MatchingAnswer   map[string]string `json:"matching_answer,omitempty"`
	BookAnswer       []string          `json:"book_answer,omitempty"`
}

// SubmitAnswerResponse echoes the updated answer slot.
type SubmitAnswerResponse struct {
	ID string `json:"id"`
}

// ChoiceItem is an answer option without its correctness flag.
type ChoiceItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// AttemptQuestionItem is one answer slot with what is needed to render it.
type AttemptQuestionItem struct {
	AnswerID           string         `json:"answer_id"`
	QuestionID         string         `json:"question_id"`
	Text               string         `json:"text"`
	ImageURL           string         `json:"image_url,omitempty"`
	QuestionType       string         `json:"question_type,omitempty"`
	Choices            []ChoiceItem   `json:"choices,omitempty"`
	LeftItems          []string       `json:"left_items,omitempty"`
	RightItems         []string       `json:"right_items,omitempty"`
	BookQuestionsCount int            `json:"book_questions_count,omitempty"`
	Answered           bool           `json:"answered"`
	Answer             *AnswerPayload `json:"answer,omitempty"`
}

// AttemptQuestionsResponse lists the sampled questions of the active attempt.
// @Description Questions of the active attempt
type AttemptQuestionsResponse struct {
	AttemptID string                `json:"attempt_id"`
	TestID    string                `json:"test_id"`
	TestType  string                `json:"test_type"`
	Duration  int                   `json:"duration"`
	StartDate time.Time             `json:"start_date"`
	Questions []AttemptQuestionItem `json:"questions"`
}

// AwardResponse is the coin/point amount credited by a completion.
type AwardResponse struct {
	Coin  int64 `json:"coin"`
	Point int64 `json:"point"`
}

// FinishAttemptResponse reports the graded attempt.
// @Description Result of a finished attempt
type FinishAttemptResponse struct {
	ID                  string        `json:"id"`
	IsPassed            bool          `json:"is_passed"`
	IsSubmitted         bool          `json:"is_submitted"`
	TotalQuestions      int           `json:"total_questions"`
	CorrectAnswers      int           `json:"correct_answers"`
	ScorePercent        float64       `json:"score_percent"`
	FinishDate          *time.Time    `json:"finish_date"`
	LessonPartCompleted bool          `json:"lesson_part_completed"`
	Awarded             AwardResponse `json:"awarded"`
}

// AttemptResultItem summarises one submitted attempt.
type AttemptResultItem struct {
	ID             string     `json:"id"`
	AttemptNumber  int        `json:"attempt_number"`
	StartDate      time.Time  `json:"start_date"`
	FinishDate     *time.Time `json:"finish_date"`
	IsPassed       bool       `json:"is_passed"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	ScorePercent   float64    `json:"score_percent"`
}

// TestResultsResponse lists a user's submitted attempts, newest first.
// @Description Submitted attempts of a test
type TestResultsResponse struct {
	TestID        string              `json:"test_id"`
	TotalAttempts int                 `json:"total_attempts"`
	BestScore     float64             `json:"best_score"`
	Passed        bool                `json:"passed"`
	Attempts      []AttemptResultItem `json:"attempts"`
}
