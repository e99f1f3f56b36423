package commands

import (
	"context"
	"fmt"
	"time"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// Clock returns the current time; commands default to UTC wall time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// LendingResult contains the result of a lending operation
type LendingResult struct {
	Book    domain.Book
	Changed bool // false when the book was missing or in the wrong state
	Message string
}

// IssueBookCommand lends a book to a member
type IssueBookCommand struct {
	store    ports.LibraryStore
	BookID   string
	MemberID string
	Now      Clock
}

// NewIssueBookCommand creates a new IssueBookCommand
func NewIssueBookCommand(store ports.LibraryStore, bookID, memberID string) *IssueBookCommand {
	return &IssueBookCommand{
		store:    store,
		BookID:   bookID,
		MemberID: memberID,
		Now:      utcNow,
	}
}

// Validate checks that both ids are present
func (c *IssueBookCommand) Validate() error {
	if err := application.ValidateRequired("bookID", c.BookID); err != nil {
		return err
	}
	return application.ValidateRequired("memberID", c.MemberID)
}

// Execute runs the issue command. Issuing a missing or already issued
// book changes nothing and is not an error. The member id is not checked
// against the member list.
func (c *IssueBookCommand) Execute(ctx context.Context) (*LendingResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var change domain.Change
	borrower := c.MemberID
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		// The member id is recorded as given; the name is only for the message
		if m, ok := lib.MemberByID(c.MemberID); ok {
			borrower = m.Name
		}
		change = domain.IssueBook(lib, c.BookID, c.MemberID, c.Now())
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue book: %w", err)
	}

	return lendingResult(change, c.BookID, func(b domain.Book) string {
		return fmt.Sprintf("Issued %s to %s, due %s", b.BookName, borrower, *b.ReturnDate)
	}), nil
}

// ReturnBookCommand takes an issued book back
type ReturnBookCommand struct {
	store  ports.LibraryStore
	BookID string
	Now    Clock
}

// NewReturnBookCommand creates a new ReturnBookCommand
func NewReturnBookCommand(store ports.LibraryStore, bookID string) *ReturnBookCommand {
	return &ReturnBookCommand{store: store, BookID: bookID, Now: utcNow}
}

// Validate checks that the book id is present
func (c *ReturnBookCommand) Validate() error {
	return application.ValidateRequired("bookID", c.BookID)
}

// Execute runs the return command
func (c *ReturnBookCommand) Execute(ctx context.Context) (*LendingResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var change domain.Change
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		change = domain.ReturnBook(lib, c.BookID, c.Now())
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to return book: %w", err)
	}

	return lendingResult(change, c.BookID, func(b domain.Book) string {
		return fmt.Sprintf("Returned %s", b.BookName)
	}), nil
}

// ReissueBookCommand extends the loan of an issued book
type ReissueBookCommand struct {
	store  ports.LibraryStore
	BookID string
	Now    Clock
}

// NewReissueBookCommand creates a new ReissueBookCommand
func NewReissueBookCommand(store ports.LibraryStore, bookID string) *ReissueBookCommand {
	return &ReissueBookCommand{store: store, BookID: bookID, Now: utcNow}
}

// Validate checks that the book id is present
func (c *ReissueBookCommand) Validate() error {
	return application.ValidateRequired("bookID", c.BookID)
}

// Execute runs the reissue command
func (c *ReissueBookCommand) Execute(ctx context.Context) (*LendingResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var change domain.Change
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		change = domain.ReissueBook(lib, c.BookID, c.Now())
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reissue book: %w", err)
	}

	return lendingResult(change, c.BookID, func(b domain.Book) string {
		return fmt.Sprintf("Reissued %s, now due %s", b.BookName, *b.ReturnDate)
	}), nil
}

func lendingResult(change domain.Change, bookID string, describe func(domain.Book) string) *LendingResult {
	if len(change.PutBooks) == 0 {
		return &LendingResult{
			Book:    domain.Book{ID: bookID},
			Message: fmt.Sprintf("No change: book %s is missing or not in the required state", bookID),
		}
	}
	book := change.PutBooks[0]
	return &LendingResult{Book: book, Changed: true, Message: describe(book)}
}
