package ports

import (
	"context"

	"shelfsync/internal/domain"
)

// MutateFunc applies a domain operation to a private copy of the library
// and describes what it changed
type MutateFunc func(lib *domain.Library) (domain.Change, error)

// LibraryStore is the single write path for library state
type LibraryStore interface {
	// Snapshot returns a deep copy of the current state
	Snapshot() domain.Library
	// Mutate applies fn and routes the resulting change to storage
	Mutate(ctx context.Context, fn MutateFunc) error
}
