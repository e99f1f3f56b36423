package application

import "shelfsync/internal/domain"

// Re-export domain types for use by adapters
type (
	Book         = domain.Book
	Member       = domain.Member
	BookFilter   = domain.BookFilter
	Availability = domain.Availability
)

// ParseAvailability maps user input to an Availability filter
func ParseAvailability(s string) Availability {
	return domain.ParseAvailability(s)
}
