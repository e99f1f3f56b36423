package application

import (
	"errors"
	"testing"

	"shelfsync/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
		wantMsg   string
	}{
		{
			name:      "valid value",
			fieldName: "bookID",
			value:     "id_1_abc",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "bookID",
			value:     "",
			wantErr:   true,
			wantMsg:   "book ID is required",
		},
		{
			name:      "whitespace only",
			fieldName: "registerNumber",
			value:     "   ",
			wantErr:   true,
			wantMsg:   "register number is required",
		},
		{
			name:      "unknown field name kept as is",
			fieldName: "category",
			value:     "",
			wantErr:   true,
			wantMsg:   "category is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
				if valErr.Message != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, valErr.Message)
				}
			}
		})
	}
}

func TestValidBookRows(t *testing.T) {
	rows := []domain.Book{
		{BookNo: "A1", BookName: "Dune"},
		{BookNo: "A2"},
		{BookName: "Emma", Author: "Austen"},
	}

	valid, invalid := ValidBookRows(rows)
	if len(valid) != 2 || invalid != 1 {
		t.Fatalf("expected 2 valid and 1 invalid, got %d and %d", len(valid), invalid)
	}
	if valid[1].BookName != "Emma" {
		t.Errorf("expected order to be preserved, got %+v", valid)
	}
}

func TestValidMemberRows(t *testing.T) {
	rows := []domain.Member{
		{Name: "X", RegisterNumber: "R-1"},
		{Name: "Y"},
		{RegisterNumber: "R-3"},
	}

	valid, invalid := ValidMemberRows(rows)
	if len(valid) != 1 || invalid != 2 {
		t.Errorf("expected 1 valid and 2 invalid, got %d and %d", len(valid), invalid)
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := error(&NotFoundError{Kind: "book", ID: "b1"})
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected NotFoundError to match ErrNotFound")
	}
	if err.Error() != "book b1 not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
