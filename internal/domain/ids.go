package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DateLayout is the ISO calendar date format used for every stored date
const DateLayout = "2006-01-02"

// LoanPeriodDays is the number of calendar days a book may be kept
const LoanPeriodDays = 14

// NewID returns an identifier of the form id_<unix-millis>_<random>
func NewID(now time.Time) string {
	entropy := ulid.Make().String()[ulid.EncodedSize-9:]
	return fmt.Sprintf("id_%d_%s", now.UnixMilli(), strings.ToLower(entropy))
}

// FormatDate renders t as an ISO calendar date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DueDate returns the ISO due date for a loan starting on today
func DueDate(today time.Time) string {
	return FormatDate(today.AddDate(0, 0, LoanPeriodDays))
}
