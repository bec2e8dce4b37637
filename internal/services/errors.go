package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quizbank/internal/errors"
	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Conversion errors
	ErrInputMissing       = errors.New("input table not found")
	ErrSchemaUnresolvable = errors.New("table schema could not be resolved")
	ErrUnsupportedFormat  = repositories.ErrUnsupportedFormat
	ErrSheetNotFound      = repositories.ErrSheetNotFound

	// Study errors
	ErrInvalidAnswer    = errors.New("answer contains no valid option letters")
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidIncrement = errors.New("increment must be non-negative")
	ErrBankNotLoaded    = errors.New("question bank not loaded")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// SchemaError reports a table whose required columns or header row cannot be located
type SchemaError struct {
	Strategy models.ConversionStrategy `json:"strategy"`
	Path     string                    `json:"path"`
	Reason   string                    `json:"reason"`
}

func (se *SchemaError) Error() string {
	if se.Strategy == "" {
		return fmt.Sprintf("schema error in %s: %s", se.Path, se.Reason)
	}
	return fmt.Sprintf("schema error (%s) in %s: %s", se.Strategy, se.Path, se.Reason)
}

func (se *SchemaError) Unwrap() error {
	return ErrSchemaUnresolvable
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewSchemaError(strategy models.ConversionStrategy, path, reason string) *SchemaError {
	return &SchemaError{Strategy: strategy, Path: path, Reason: reason}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInputMissing) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSheetNotFound) ||
		errors.Is(err, repositories.ErrTableNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidAnswer) ||
		errors.Is(err, ErrInvalidIncrement) ||
		errors.Is(err, ErrUnsupportedFormat) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsSchema checks if error represents an unresolvable table layout
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchemaUnresolvable)
}

// translateRepositoryError maps storage errors onto service errors
func translateRepositoryError(err error, path string) error {
	if errors.Is(err, repositories.ErrTableNotFound) {
		return fmt.Errorf("%w: %s", ErrInputMissing, path)
	}
	return err
}
