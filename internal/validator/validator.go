package validator

import (
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SupportedTableExtensions lists the file extensions the table repositories can read and write
var SupportedTableExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Validator is the main validator instance that combines struct tags and record invariants
type Validator struct {
	structValidator *validator.Validate
	recordValidator *RecordValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		recordValidator: NewRecordValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if converted := ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// Record returns the canonical record validator
func (v *Validator) Record() *RecordValidator {
	return v.recordValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	// Spreadsheet/CSV path validation
	validate.RegisterValidation("table_path", validateTablePath)

	// Sheet name or zero-based index
	validate.RegisterValidation("sheet_selector", validateSheetSelector)

	// Letter set A-D without duplicates
	validate.RegisterValidation("answer_key", validateAnswerKey)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// IsSupportedTablePath reports whether the path has an extension a table repository handles
func IsSupportedTablePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedTableExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

func validateTablePath(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	return IsSupportedTablePath(value)
}

func validateSheetSelector(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n >= 0
	}
	// Excel caps sheet names at 31 characters
	return len([]rune(value)) <= 31
}

func validateAnswerKey(fl validator.FieldLevel) bool {
	return IsAnswerKey(fl.Field().String())
}

// IsAnswerKey reports whether s only holds distinct letters A-D. The empty key is allowed.
func IsAnswerKey(s string) bool {
	var seen [4]bool
	for _, r := range s {
		if r < 'A' || r > 'D' || seen[r-'A'] {
			return false
		}
		seen[r-'A'] = true
	}
	return true
}
