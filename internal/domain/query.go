package domain

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Availability filters the catalogue by lending state
type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilityIssued    Availability = "issued"
)

// ParseAvailability maps user input to an Availability, defaulting to all
func ParseAvailability(s string) Availability {
	switch Availability(strings.ToLower(strings.TrimSpace(s))) {
	case AvailabilityAvailable:
		return AvailabilityAvailable
	case AvailabilityIssued:
		return AvailabilityIssued
	default:
		return AvailabilityAll
	}
}

// BookFilter narrows the catalogue listing
type BookFilter struct {
	Term         string // Matched against name, author and book number
	Availability Availability
	Category     string // Empty matches every category
}

// Summary holds the headline counters of the library
type Summary struct {
	TotalBooks      int
	TotalMembers    int
	IssuedBooks     int
	TotalCategories int
}

// FilterBooks returns the books matching f ordered naturally by book number
func FilterBooks(books []Book, f BookFilter) []Book {
	term := strings.ToLower(strings.TrimSpace(f.Term))

	var out []Book
	for _, b := range books {
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		switch f.Availability {
		case AvailabilityAvailable:
			if !b.Available {
				continue
			}
		case AvailabilityIssued:
			if b.Available {
				continue
			}
		}
		if term != "" && !containsFold(term, b.BookName, b.Author, b.BookNo) {
			continue
		}
		out = append(out, b)
	}

	SortBooks(out)
	return out
}

// SortBooks orders books by book number, comparing digit runs numerically
// and ignoring case ("A2" before "A10").
func SortBooks(books []Book) {
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	slices.SortStableFunc(books, func(a, b Book) int {
		return c.CompareString(a.BookNo, b.BookNo)
	})
}

// IssuedBooks returns the books currently lent out whose name or number,
// or whose borrower's name or register number, contains term.
func IssuedBooks(lib Library, term string) []Book {
	term = strings.ToLower(strings.TrimSpace(term))

	var out []Book
	for _, b := range lib.Books {
		if b.Available {
			continue
		}
		if term != "" {
			fields := []string{b.BookName, b.BookNo}
			if b.IssuedTo != nil {
				if m, ok := lib.MemberByID(*b.IssuedTo); ok {
					fields = append(fields, m.Name, m.RegisterNumber)
				}
			}
			if !containsFold(term, fields...) {
				continue
			}
		}
		out = append(out, b)
	}
	SortBooks(out)
	return out
}

// MemberHistory returns every history entry of a member, oldest first
func MemberHistory(lib Library, memberID string) []IssueHistoryEntry {
	var out []IssueHistoryEntry
	for _, e := range lib.History {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return out
}

// MembersInClass returns the members enrolled in class
func MembersInClass(lib Library, class string) []Member {
	var out []Member
	for _, m := range lib.Members {
		if m.Class == class {
			out = append(out, m)
		}
	}
	return out
}

// Summarize computes the headline counters
func Summarize(lib Library) Summary {
	s := Summary{
		TotalBooks:      len(lib.Books),
		TotalMembers:    len(lib.Members),
		TotalCategories: len(lib.Categories),
	}
	for _, b := range lib.Books {
		if !b.Available {
			s.IssuedBooks++
		}
	}
	return s
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
