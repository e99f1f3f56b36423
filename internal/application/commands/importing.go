package commands

import (
	"context"
	"fmt"
	"strings"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// ImportResult contains the counts of a bulk import
type ImportResult struct {
	Imported   int
	Invalid    int // Rows missing required fields
	Duplicates int // Rows matching an existing entry
	Message    string
}

// ImportBooksCommand adds spreadsheet rows as books of one category
type ImportBooksCommand struct {
	store    ports.LibraryStore
	Category string
	Rows     []domain.Book
	Now      Clock
}

// NewImportBooksCommand creates a new ImportBooksCommand
func NewImportBooksCommand(store ports.LibraryStore, category string, rows []domain.Book) *ImportBooksCommand {
	return &ImportBooksCommand{store: store, Category: strings.TrimSpace(category), Rows: rows, Now: utcNow}
}

// Validate checks that a category is given
func (c *ImportBooksCommand) Validate() error {
	return application.ValidateRequired("category", c.Category)
}

// Execute runs the import as one mutation
func (c *ImportBooksCommand) Execute(ctx context.Context) (*ImportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rows, invalid := application.ValidBookRows(c.Rows)
	result := &ImportResult{Invalid: invalid}
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		added, dupes, change := domain.ImportBooks(lib, c.Category, rows, c.Now())
		result.Imported, result.Duplicates = len(added), dupes
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import books: %w", err)
	}

	result.Message = importMessage("books", c.Category, result)
	return result, nil
}

// ImportMembersCommand adds spreadsheet rows as members of one class
type ImportMembersCommand struct {
	store ports.LibraryStore
	Class string
	Rows  []domain.Member
	Now   Clock
}

// NewImportMembersCommand creates a new ImportMembersCommand
func NewImportMembersCommand(store ports.LibraryStore, class string, rows []domain.Member) *ImportMembersCommand {
	return &ImportMembersCommand{store: store, Class: strings.TrimSpace(class), Rows: rows, Now: utcNow}
}

// Validate checks that a class is given
func (c *ImportMembersCommand) Validate() error {
	return application.ValidateRequired("class", c.Class)
}

// Execute runs the import as one mutation
func (c *ImportMembersCommand) Execute(ctx context.Context) (*ImportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rows, invalid := application.ValidMemberRows(c.Rows)
	result := &ImportResult{Invalid: invalid}
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		added, dupes, change := domain.ImportMembers(lib, c.Class, rows, c.Now())
		result.Imported, result.Duplicates = len(added), dupes
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import members: %w", err)
	}

	result.Message = importMessage("members", c.Class, result)
	return result, nil
}

func importMessage(kind, into string, r *ImportResult) string {
	return fmt.Sprintf("Imported %d %s into %s (%d invalid, %d duplicates skipped)",
		r.Imported, kind, into, r.Invalid, r.Duplicates)
}
