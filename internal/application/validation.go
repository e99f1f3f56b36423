package application

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"shelfsync/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "bookID" -> "book ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"bookID":         "book ID",
		"memberID":       "member ID",
		"bookName":       "book name",
		"registerNumber": "register number",
		"oldName":        "current name",
		"newName":        "new name",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

var (
	rowsOnce     sync.Once
	rowValidator *validator.Validate
)

// importValidator checks imported rows without tagging the domain types
func importValidator() *validator.Validate {
	rowsOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterStructValidationMapRules(map[string]string{
			"BookName": "required",
		}, domain.Book{})
		v.RegisterStructValidationMapRules(map[string]string{
			"Name":           "required",
			"RegisterNumber": "required",
		}, domain.Member{})
		rowValidator = v
	})
	return rowValidator
}

// ValidBookRows keeps the rows that carry a book name and returns how
// many were dropped
func ValidBookRows(rows []domain.Book) ([]domain.Book, int) {
	return validRows(rows)
}

// ValidMemberRows keeps the rows that carry both a name and a register
// number and returns how many were dropped
func ValidMemberRows(rows []domain.Member) ([]domain.Member, int) {
	return validRows(rows)
}

func validRows[T any](rows []T) ([]T, int) {
	v := importValidator()
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if err := v.Struct(row); err != nil {
			continue
		}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}
