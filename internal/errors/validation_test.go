package errors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMessages(t *testing.T) {
	err := NewValidationError("threshold", "must be a positive integer", -1)
	assert.Equal(t, "validation error on field 'threshold': must be a positive integer", err.Error())
	assert.Empty(t, err.Rule)

	withRule := NewValidationErrorWithRule("input_path", "is required", "required", "")
	assert.Equal(t, "required", withRule.Rule)
}

func TestValidationErrorsSummary(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("input_path", "is required", nil))
	assert.Equal(t, "validation failed: input_path is required", errs.Error())

	errs = append(errs, *NewValidationError("sheet", "is too long", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

type sampleRequest struct {
	Path      string `validate:"required"`
	Threshold int    `validate:"min=1"`
	Publisher string `validate:"oneof=mock kafka"`
	Port      string `validate:"numeric"`
}

func TestToValidationErrors(t *testing.T) {
	v := validator.New()
	err := v.Struct(sampleRequest{Threshold: 0, Publisher: "rabbit", Port: "http"})
	require.Error(t, err)

	converted := ToValidationErrors(err)
	require.Len(t, converted, 4)

	byField := make(map[string]ValidationError)
	for _, fe := range converted {
		byField[fe.Field] = fe
	}
	assert.Equal(t, "is required", byField["Path"].Message)
	assert.Equal(t, "must be at least 1", byField["Threshold"].Message)
	assert.Equal(t, "must be one of: mock kafka", byField["Publisher"].Message)
	assert.Equal(t, "must be a number", byField["Port"].Message)
	assert.Equal(t, "oneof", byField["Publisher"].Rule)
	assert.Equal(t, "rabbit", byField["Publisher"].Value)
}

func TestToValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, ToValidationErrors(errors.New("boom")))
	assert.Nil(t, ToValidationErrors(nil))
}
