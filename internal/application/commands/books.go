package commands

import (
	"context"
	"fmt"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// BookResult contains the result of a catalogue change
type BookResult struct {
	Book    domain.Book
	Message string
}

// AddBookCommand adds a book to the catalogue
type AddBookCommand struct {
	store ports.LibraryStore
	Book  domain.Book
	Now   Clock
}

// NewAddBookCommand creates a new AddBookCommand
func NewAddBookCommand(store ports.LibraryStore, book domain.Book) *AddBookCommand {
	return &AddBookCommand{store: store, Book: book, Now: utcNow}
}

// Validate checks the required fields
func (c *AddBookCommand) Validate() error {
	return application.ValidateRequired("bookName", c.Book.BookName)
}

// Execute runs the add book command
func (c *AddBookCommand) Execute(ctx context.Context) (*BookResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var added domain.Book
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		var change domain.Change
		added, change = domain.AddBook(lib, c.Book, c.Now())
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add book: %w", err)
	}

	return &BookResult{
		Book:    added,
		Message: fmt.Sprintf("Added %s (%s)", added.BookName, added.ID),
	}, nil
}

// UpdateBookCommand edits the catalogue fields of a book
type UpdateBookCommand struct {
	store ports.LibraryStore
	Book  domain.Book
}

// NewUpdateBookCommand creates a new UpdateBookCommand
func NewUpdateBookCommand(store ports.LibraryStore, book domain.Book) *UpdateBookCommand {
	return &UpdateBookCommand{store: store, Book: book}
}

// Validate checks the required fields
func (c *UpdateBookCommand) Validate() error {
	if err := application.ValidateRequired("bookID", c.Book.ID); err != nil {
		return err
	}
	return application.ValidateRequired("bookName", c.Book.BookName)
}

// Execute runs the update book command
func (c *UpdateBookCommand) Execute(ctx context.Context) (*BookResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var updated domain.Book
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		change := domain.UpdateBook(lib, c.Book)
		if len(change.PutBooks) == 0 {
			return change, &application.NotFoundError{Kind: "book", ID: c.Book.ID}
		}
		updated = change.PutBooks[0]
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return &BookResult{Book: updated, Message: fmt.Sprintf("Updated %s", updated.BookName)}, nil
}

// DeleteBookCommand removes a book from the catalogue
type DeleteBookCommand struct {
	store  ports.LibraryStore
	BookID string
}

// NewDeleteBookCommand creates a new DeleteBookCommand
func NewDeleteBookCommand(store ports.LibraryStore, bookID string) *DeleteBookCommand {
	return &DeleteBookCommand{store: store, BookID: bookID}
}

// Validate checks that the book id is present
func (c *DeleteBookCommand) Validate() error {
	return application.ValidateRequired("bookID", c.BookID)
}

// Execute runs the delete book command. Issued books cannot be deleted.
func (c *DeleteBookCommand) Execute(ctx context.Context) (*BookResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var removed domain.Book
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		b, ok := lib.BookByID(c.BookID)
		if !ok {
			return domain.Change{}, &application.NotFoundError{Kind: "book", ID: c.BookID}
		}
		if b.IsIssued() {
			return domain.Change{}, fmt.Errorf("%w: %s is issued, return it first", application.ErrInvalidOperation, b.BookName)
		}
		removed = b
		return domain.DeleteBook(lib, c.BookID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}

	return &BookResult{Book: removed, Message: fmt.Sprintf("Deleted %s", removed.BookName)}, nil
}

// ListBooksCommand lists the catalogue
type ListBooksCommand struct {
	store  ports.LibraryStore
	Filter domain.BookFilter
}

// NewListBooksCommand creates a new ListBooksCommand
func NewListBooksCommand(store ports.LibraryStore, filter domain.BookFilter) *ListBooksCommand {
	return &ListBooksCommand{store: store, Filter: filter}
}

// Execute runs the list books command
func (c *ListBooksCommand) Execute(ctx context.Context) ([]domain.Book, error) {
	return domain.FilterBooks(c.store.Snapshot().Books, c.Filter), nil
}
