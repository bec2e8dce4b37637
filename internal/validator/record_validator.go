package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quizbank/internal/errors"
	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/go-playground/validator/v10"
)

// RecordValidator checks canonical records produced by the normalization engine
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator creates a record validator sharing the struct validator's registrations
func NewRecordValidator(validate *validator.Validate) *RecordValidator {
	return &RecordValidator{validate: validate}
}

// ValidateRecord checks the storage invariants of a canonical record: non-empty stem,
// answer key of distinct A-D letters and a non-negative mastery count
func (v *RecordValidator) ValidateRecord(q *models.Question) error {
	if q == nil {
		return fmt.Errorf("record cannot be nil")
	}

	var out errors.ValidationErrors
	if err := v.validate.Struct(q); err != nil {
		out = append(out, errors.ToValidationErrors(err)...)
	}

	if !IsAnswerKey(q.Answer) {
		out = append(out, *errors.NewValidationErrorWithRule("answer", "must contain only the letters A-D without duplicates", "answer_key", q.Answer))
	}

	if len(out) > 0 {
		return out
	}
	return nil
}

// ValidateTypeLabel checks that the type label on stem and options agrees with the answer key
// length. Records whose label came from an explicit annotation are exempt and should not be
// passed here.
func (v *RecordValidator) ValidateTypeLabel(q *models.Question) error {
	var out errors.ValidationErrors

	label := string(models.QuestionTypeForAnswer(q.Answer))
	if !strings.HasPrefix(q.Stem, label+"  ") {
		out = append(out, *errors.NewValidationErrorWithRule("stem", fmt.Sprintf("must start with %q", label+"  "), "question_type", q.Stem))
	}
	if q.Options != "" && q.Options != label && !strings.HasPrefix(q.Options, label+", ") {
		out = append(out, *errors.NewValidationErrorWithRule("options", fmt.Sprintf("must start with %q", label), "question_type", q.Options))
	}

	if len(out) > 0 {
		return out
	}
	return nil
}
