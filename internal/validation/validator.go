package validation

import (
	"strings"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/dto"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"
)

const (
	maxPromoCodeLength = 50
	maxBookAnswerLines = 500
	maxAnswerTextLen   = 255
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateID checks that value is a well-formed entity identifier.
func (v *Validator) ValidateID(field, value string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(value) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !util.IsULID(value) {
		errors = append(errors, domain.NewInvalidFormatError(field, value))
	}
	return errors
}

// ParseAnswer checks that payload carries exactly the field of testType and
// converts it into the matching answer variant.
func (v *Validator) ParseAnswer(testType domain.TestType, payload dto.AnswerPayload) (domain.Answer, domain.ValidationErrors) {
	var errors domain.ValidationErrors

	provided := map[string]bool{
		"selected_choice_id": payload.SelectedChoiceID != nil,
		"boolean_answer":     payload.BooleanAnswer != nil,
		"matching_answer":    payload.MatchingAnswer != nil,
		"book_answer":        payload.BookAnswer != nil,
	}
	var expected string
	switch testType {
	case domain.TestTypeTrueFalse:
		expected = "boolean_answer"
	case domain.TestTypeRegularTest:
		expected = "selected_choice_id"
	case domain.TestTypeMatching:
		expected = "matching_answer"
	case domain.TestTypeBookTest:
		expected = "book_answer"
	default:
		return nil, domain.NewValidationError("test_type", "unsupported test type")
	}

	for _, field := range []string{"selected_choice_id", "boolean_answer", "matching_answer", "book_answer"} {
		if field != expected && provided[field] {
			errors = errors.Add(field, "not allowed for "+string(testType)+" tests")
		}
	}
	if !provided[expected] {
		errors = append(errors, domain.NewMissingFieldError(expected))
		return nil, errors
	}

	var answer domain.Answer
	switch testType {
	case domain.TestTypeTrueFalse:
		answer = domain.BooleanAnswer{Value: *payload.BooleanAnswer}
	case domain.TestTypeRegularTest:
		id := strings.TrimSpace(*payload.SelectedChoiceID)
		if id == "" {
			errors = append(errors, domain.NewMissingFieldError("selected_choice_id"))
		} else if !util.IsULID(id) {
			errors = append(errors, domain.NewInvalidFormatError("selected_choice_id", id))
		}
		answer = domain.ChoiceAnswer{ChoiceID: id}
	case domain.TestTypeMatching:
		mapping := make(map[string]string, len(payload.MatchingAnswer))
		for left, right := range payload.MatchingAnswer {
			if strings.TrimSpace(left) == "" || strings.TrimSpace(right) == "" {
				errors = errors.Add("matching_answer", "pairs must have non-empty left and right items")
				break
			}
			mapping[left] = right
		}
		answer = domain.MatchingAnswer{Mapping: mapping}
	case domain.TestTypeBookTest:
		if len(payload.BookAnswer) > maxBookAnswerLines {
			errors = append(errors, domain.NewOutOfRangeError("book_answer", len(payload.BookAnswer), 0, maxBookAnswerLines))
		}
		// Lines are stored as sent; grading compares them exactly.
		for _, line := range payload.BookAnswer {
			if len(line) > maxAnswerTextLen {
				errors = errors.Add("book_answer", "answer lines must be at most 255 characters")
				break
			}
		}
		answer = domain.BookAnswer{Answers: append([]string(nil), payload.BookAnswer...)}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return answer, nil
}

func (v *Validator) validateDuration(duration int) domain.ValidationErrors {
	if duration < domain.MinPurchaseDuration || duration > domain.MaxPurchaseDuration {
		return domain.ValidationErrors{domain.NewOutOfRangeError("duration", duration, domain.MinPurchaseDuration, domain.MaxPurchaseDuration)}
	}
	return nil
}

// ValidateDiscountQuoteRequest validates a quote request. A zero duration
// defaults to one month.
func (v *Validator) ValidateDiscountQuoteRequest(req *dto.DiscountQuoteRequest) domain.ValidationErrors {
	errors := v.ValidateID("course_id", req.CourseID)
	if req.Duration == 0 {
		req.Duration = domain.MinPurchaseDuration
	}
	errors = append(errors, v.validateDuration(req.Duration)...)
	if req.CoinsToUse < 0 {
		errors = errors.Add("coins_to_use", "must not be negative")
	}
	if len(req.PromoCode) > maxPromoCodeLength {
		errors = append(errors, domain.NewOutOfRangeError("promo_code", len(req.PromoCode), 1, maxPromoCodeLength))
	}
	return errors
}

// ValidateCreateTransactionRequest validates a purchase request. Discounts
// are only accepted together with bypass_validation.
func (v *Validator) ValidateCreateTransactionRequest(req *dto.CreateTransactionRequest) domain.ValidationErrors {
	errors := v.ValidateID("course_id", req.CourseID)
	if req.Duration == 0 {
		req.Duration = domain.MinPurchaseDuration
	}
	errors = append(errors, v.validateDuration(req.Duration)...)
	if req.Amount.IsNegative() {
		errors = errors.Add("amount", "must not be negative")
	}
	if !domain.PaymentProvider(req.Provider).Valid() {
		errors = errors.Add("provider", "must be one of: payme, click")
	}
	if req.CoinsUsed < 0 {
		errors = errors.Add("coins_used", "must not be negative")
	}
	if len(req.PromoCode) > maxPromoCodeLength {
		errors = append(errors, domain.NewOutOfRangeError("promo_code", len(req.PromoCode), 1, maxPromoCodeLength))
	}
	if !req.BypassValidation {
		if req.PromoCode != "" {
			errors = errors.Add("promo_code", "discounts require bypass_validation")
		}
		if req.CoinsUsed > 0 {
			errors = errors.Add("coins_used", "discounts require bypass_validation")
		}
	}
	return errors
}

// ValidatePaymentCallbackRequest validates a provider outcome notification.
func (v *Validator) ValidatePaymentCallbackRequest(req *dto.PaymentCallbackRequest) domain.ValidationErrors {
	return v.ValidateID("transaction_id", req.TransactionID)
}

// ValidateAddGroupMemberRequest validates a group enrollment request.
func (v *Validator) ValidateAddGroupMemberRequest(req *dto.AddGroupMemberRequest) domain.ValidationErrors {
	return v.ValidateID("user_id", req.UserID)
}
