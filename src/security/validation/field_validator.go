package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/username/gescom/backend/src/logger"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength  = 255
	MaxCommentLength        = 1024
	MaxDocumentNumberLength = 100
	MaxCompanyNameLength    = 255
)

// --- String validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

var documentNumberRegex = regexp.MustCompile(`^[a-zA-Z0-9/_\- ]+$`)

// ValidateDocumentNumber checks format and length for cheque/draft references.
// Empty is allowed; the intake layer decides when one is mandatory.
func ValidateDocumentNumber(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if err := ValidateStringMaxLength(trimmed, MaxDocumentNumberLength, "document number"); err != nil {
		return err
	}
	if !documentNumberRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: document number ('%s') is not in the expected format (alphanumeric with /-_ )", ErrValidationFailed, s)
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmailAddress checks address shape. Empty is allowed; contact
// details are optional.
func ValidateEmailAddress(s, fieldName string) error {
	if s == "" {
		return nil
	}
	if err := ValidateStringMaxLength(s, DefaultMaxStringLength, fieldName); err != nil {
		return err
	}
	if !emailRegex.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not a valid email address", ErrValidationFailed, fieldName, s)
	}
	return nil
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{2,29}$`)

// ValidatePhoneNumber accepts digits with common separators, optionally
// prefixed with +. Empty is allowed; contact details are optional.
func ValidatePhoneNumber(s, fieldName string) error {
	if s == "" {
		return nil
	}
	if !phoneRegex.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not a valid phone number", ErrValidationFailed, fieldName, s)
	}
	return nil
}

// --- Amount validator ---

// ValidateAmount parses a decimal amount string. Amounts are monetary:
// non-negative with at most 3 decimal places.
func ValidateAmount(s, fieldName string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return decimal.Zero, err
	}
	val, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s ('%s') is not a valid amount: %v", ErrValidationFailed, fieldName, s, err)
	}
	if val.IsNegative() {
		logger.L.Warn("negative amount rejected", "field", fieldName, "value", trimmed)
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	// Compare against the truncated value rather than the literal exponent,
	// so trailing zeros like "1.2300" pass.
	if !val.Equal(val.Truncate(3)) {
		return decimal.Zero, fmt.Errorf("%w: %s ('%s') has more than 3 decimal places", ErrValidationFailed, fieldName, s)
	}
	return val, nil
}

// --- Date validators ---

// ValidateDateString checks if a string is a valid calendar date in
// "YYYY-MM-DD" format. The normalized form is returned so callers store a
// canonical, lexicographically sortable value.
func ValidateDateString(s, fieldName string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return "", err
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	if t.Format("2006-01-02") != trimmed {
		return "", fmt.Errorf("%w: %s ('%s') is an invalid date (e.g., day/month mismatch)", ErrValidationFailed, fieldName, s)
	}
	return trimmed, nil
}

var weekTokenRegex = regexp.MustCompile(`^\d{4}-W\d{1,2}$`)

// ValidateWeekToken checks the "YYYY-Wnn" shape used by the treasury view.
// Empty is allowed and means the current week.
func ValidateWeekToken(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if !weekTokenRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: week ('%s') is not in the expected format (YYYY-Wnn)", ErrValidationFailed, s)
	}
	return nil
}
