package domain

// Question belongs to exactly one Test. Key holds the gradable part and its
// variant must match the Test's type.
type Question struct {
	ID       string
	TestID   string
	Text     string
	ImageURL string
	Order    int
	IsActive bool
	Key      AnswerKey
}

// AnswerKey is the correct-answer definition of a question. The concrete
// types below are the only implementations.
type AnswerKey interface {
	TestType() TestType
}

// TrueFalseKey is the key of a true_false question.
type TrueFalseKey struct {
	CorrectAnswer bool
}

func (TrueFalseKey) TestType() TestType { return TestTypeTrueFalse }

type RegularQuestionType string

const (
	QuestionTypeTextChoice  RegularQuestionType = "text_choice"
	QuestionTypeImageChoice RegularQuestionType = "image_choice"
	QuestionTypeVideoChoice RegularQuestionType = "video_choice"
)

type AnswerChoice struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Text      string `json:"text"`
	ImageURL  string `json:"image_url,omitempty"`
	IsCorrect bool   `json:"-"`
}

// ChoiceKey is the key of a regular_test question: one correct choice among several.
type ChoiceKey struct {
	QuestionType RegularQuestionType
	Choices      []AnswerChoice
}

func (ChoiceKey) TestType() TestType { return TestTypeRegularTest }

// Choice returns the choice with the given id.
func (k ChoiceKey) Choice(id string) (AnswerChoice, bool) {
	for _, c := range k.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return AnswerChoice{}, false
}

type MatchingPair struct {
	ID        string `json:"id"`
	LeftItem  string `json:"left_item"`
	RightItem string `json:"right_item"`
}

// MatchingKey is the key of a matching question.
type MatchingKey struct {
	Pairs []MatchingPair
}

func (MatchingKey) TestType() TestType { return TestTypeMatching }

// Mapping returns the correct left to right mapping.
func (k MatchingKey) Mapping() map[string]string {
	m := make(map[string]string, len(k.Pairs))
	for _, p := range k.Pairs {
		m[p.LeftItem] = p.RightItem
	}
	return m
}

type BookQuestion struct {
	QuestionNumber int    `json:"question_number"`
	ExpectedAnswer string `json:"expected_answer"`
}

// BookKey is the key of a book_test question: an ordered answer sheet.
type BookKey struct {
	Questions []BookQuestion
}

func (BookKey) TestType() TestType { return TestTypeBookTest }
