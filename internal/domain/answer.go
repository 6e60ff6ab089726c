package domain

import (
	"encoding/json"
	"fmt"
)

// Answer is a submitted answer. Like AnswerKey it is a closed set of
// variants keyed by the test type; a nil Answer means "not answered".
type Answer interface {
	TestType() TestType
}

type BooleanAnswer struct {
	Value bool
}

func (BooleanAnswer) TestType() TestType { return TestTypeTrueFalse }

type ChoiceAnswer struct {
	ChoiceID string
}

func (ChoiceAnswer) TestType() TestType { return TestTypeRegularTest }

type MatchingAnswer struct {
	Mapping map[string]string
}

func (MatchingAnswer) TestType() TestType { return TestTypeMatching }

type BookAnswer struct {
	Answers []string
}

func (BookAnswer) TestType() TestType { return TestTypeBookTest }

// answerEnvelope is the persisted JSON shape of an Answer.
type answerEnvelope struct {
	Kind             TestType          `json:"kind"`
	SelectedChoiceID *string           `json:"selected_choice_id,omitempty"`
	BooleanAnswer    *bool             `json:"boolean_answer,omitempty"`
	MatchingAnswer   map[string]string `json:"matching_answer,omitempty"`
	BookAnswer       []string          `json:"book_answer,omitempty"`
}

// EncodeAnswer serializes an answer for storage. A nil answer encodes to nil.
func EncodeAnswer(a Answer) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	env := answerEnvelope{Kind: a.TestType()}
	switch v := a.(type) {
	case BooleanAnswer:
		env.BooleanAnswer = &v.Value
	case ChoiceAnswer:
		env.SelectedChoiceID = &v.ChoiceID
	case MatchingAnswer:
		env.MatchingAnswer = v.Mapping
		if env.MatchingAnswer == nil {
			env.MatchingAnswer = map[string]string{}
		}
	case BookAnswer:
		env.BookAnswer = v.Answers
		if env.BookAnswer == nil {
			env.BookAnswer = []string{}
		}
	default:
		return nil, fmt.Errorf("unsupported answer type %T", a)
	}
	return json.Marshal(env)
}

// DecodeAnswer is the inverse of EncodeAnswer. Empty input decodes to nil.
func DecodeAnswer(data []byte) (Answer, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode answer: %w", err)
	}
	switch env.Kind {
	case TestTypeTrueFalse:
		if env.BooleanAnswer == nil {
			return nil, nil
		}
		return BooleanAnswer{Value: *env.BooleanAnswer}, nil
	case TestTypeRegularTest:
		if env.SelectedChoiceID == nil {
			return nil, nil
		}
		return ChoiceAnswer{ChoiceID: *env.SelectedChoiceID}, nil
	case TestTypeMatching:
		return MatchingAnswer{Mapping: env.MatchingAnswer}, nil
	case TestTypeBookTest:
		return BookAnswer{Answers: env.BookAnswer}, nil
	default:
		return nil, fmt.Errorf("unknown answer kind %q", env.Kind)
	}
}
