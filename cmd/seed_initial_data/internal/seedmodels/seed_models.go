package seedmodels

import "github.com/shopspring/decimal"

// SeedChoice is one option of a regular_test question.
type SeedChoice struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	ImageURL  string `json:"image_url,omitempty"`
	IsCorrect bool   `json:"is_correct"`
}

// SeedPair is one left/right pair of a matching question.
type SeedPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// SeedQuestion carries the key fields of every test type; only the ones for
// the owning test's type are read.
type SeedQuestion struct {
	Text          string       `json:"text"`
	ImageURL      string       `json:"image_url,omitempty"`
	CorrectAnswer *bool        `json:"correct_answer,omitempty"`
	QuestionType  string       `json:"question_type,omitempty"`
	Choices       []SeedChoice `json:"choices,omitempty"`
	Pairs         []SeedPair   `json:"pairs,omitempty"`
	BookAnswers   []string     `json:"book_answers,omitempty"`
}

// SeedTest defines a test delivered by a lesson part.
type SeedTest struct {
	Title          string         `json:"title"`
	Type           string         `json:"type"`
	QuestionsCount int            `json:"questions_count"`
	Duration       int            `json:"duration"`
	Questions      []SeedQuestion `json:"questions"`
}

// SeedLessonPart defines one step of a lesson. Test parts carry their test.
type SeedLessonPart struct {
	Type       string    `json:"type"`
	AwardCoin  int64     `json:"award_coin"`
	AwardPoint int64     `json:"award_point"`
	Test       *SeedTest `json:"test,omitempty"`
}

// SeedLesson defines the structure for a lesson in the JSON seed file.
type SeedLesson struct {
	Title string           `json:"title"`
	Parts []SeedLessonPart `json:"parts"`
}

// SeedCourse defines the structure for a course in the JSON seed file.
type SeedCourse struct {
	Title          string           `json:"title"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	DurationMonths int              `json:"duration_months"`
	Lessons        []SeedLesson     `json:"lessons"`
}
