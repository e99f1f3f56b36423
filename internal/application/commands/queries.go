package commands

import (
	"context"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// SummaryCommand computes the dashboard counters
type SummaryCommand struct {
	store ports.LibraryStore
}

// NewSummaryCommand creates a new SummaryCommand
func NewSummaryCommand(store ports.LibraryStore) *SummaryCommand {
	return &SummaryCommand{store: store}
}

// Execute runs the summary command
func (c *SummaryCommand) Execute(ctx context.Context) (domain.Summary, error) {
	return domain.Summarize(c.store.Snapshot()), nil
}

// IssuedBook is an issued book joined with its borrower
type IssuedBook struct {
	domain.Book
	Borrower *domain.Member // nil when the member was deleted
}

// IssuedBooksCommand lists the books currently lent out
type IssuedBooksCommand struct {
	store ports.LibraryStore
	Term  string
}

// NewIssuedBooksCommand creates a new IssuedBooksCommand
func NewIssuedBooksCommand(store ports.LibraryStore, term string) *IssuedBooksCommand {
	return &IssuedBooksCommand{store: store, Term: term}
}

// Execute runs the issued books command
func (c *IssuedBooksCommand) Execute(ctx context.Context) ([]IssuedBook, error) {
	lib := c.store.Snapshot()
	books := domain.IssuedBooks(lib, c.Term)

	out := make([]IssuedBook, 0, len(books))
	for _, b := range books {
		ib := IssuedBook{Book: b}
		if b.IssuedTo != nil {
			if m, ok := lib.MemberByID(*b.IssuedTo); ok {
				ib.Borrower = &m
			}
		}
		out = append(out, ib)
	}
	return out, nil
}

// ListGroupsCommand lists the category and class names
type ListGroupsCommand struct {
	store ports.LibraryStore
}

// NewListGroupsCommand creates a new ListGroupsCommand
func NewListGroupsCommand(store ports.LibraryStore) *ListGroupsCommand {
	return &ListGroupsCommand{store: store}
}

// Execute returns categories and classes
func (c *ListGroupsCommand) Execute(ctx context.Context) (categories, classes []string, err error) {
	lib := c.store.Snapshot()
	return lib.Categories, lib.Classes, nil
}
