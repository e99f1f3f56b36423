package commands

import (
	"context"
	"fmt"
	"strings"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// GroupResult contains the result of a category or class change
type GroupResult struct {
	Name    string
	Changed bool
	Removed int // Books or members removed by a cascading delete
	Message string
}

// AddCategoryCommand registers a book category
type AddCategoryCommand struct {
	store ports.LibraryStore
	Name  string
}

// NewAddCategoryCommand creates a new AddCategoryCommand
func NewAddCategoryCommand(store ports.LibraryStore, name string) *AddCategoryCommand {
	return &AddCategoryCommand{store: store, Name: strings.TrimSpace(name)}
}

// Validate checks that the name is present
func (c *AddCategoryCommand) Validate() error {
	return application.ValidateRequired("category", c.Name)
}

// Execute runs the add category command
func (c *AddCategoryCommand) Execute(ctx context.Context) (*GroupResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	change, err := mutate(ctx, c.store, func(lib *domain.Library) domain.Change {
		return domain.AddCategory(lib, c.Name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add category: %w", err)
	}
	return groupResult(c.Name, change, "Added category", "category"), nil
}

// DeleteCategoryCommand removes a category and every book in it
type DeleteCategoryCommand struct {
	store ports.LibraryStore
	Name  string
	Now   Clock
}

// NewDeleteCategoryCommand creates a new DeleteCategoryCommand
func NewDeleteCategoryCommand(store ports.LibraryStore, name string) *DeleteCategoryCommand {
	return &DeleteCategoryCommand{store: store, Name: strings.TrimSpace(name), Now: utcNow}
}

// Validate checks that the name is present
func (c *DeleteCategoryCommand) Validate() error {
	return application.ValidateRequired("category", c.Name)
}

// Execute runs the delete category command
func (c *DeleteCategoryCommand) Execute(ctx context.Context) (*GroupResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	change, err := mutate(ctx, c.store, func(lib *domain.Library) domain.Change {
		return domain.DeleteCategory(lib, c.Name, c.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete category: %w", err)
	}
	return groupResult(c.Name, change, "Deleted category", "category"), nil
}

// AddClassCommand registers a member class
type AddClassCommand struct {
	store ports.LibraryStore
	Name  string
}

// NewAddClassCommand creates a new AddClassCommand
func NewAddClassCommand(store ports.LibraryStore, name string) *AddClassCommand {
	return &AddClassCommand{store: store, Name: strings.TrimSpace(name)}
}

// Validate checks that the name is present
func (c *AddClassCommand) Validate() error {
	return application.ValidateRequired("class", c.Name)
}

// Execute runs the add class command
func (c *AddClassCommand) Execute(ctx context.Context) (*GroupResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	change, err := mutate(ctx, c.store, func(lib *domain.Library) domain.Change {
		return domain.AddClass(lib, c.Name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add class: %w", err)
	}
	return groupResult(c.Name, change, "Added class", "class"), nil
}

// UpdateClassCommand renames a class and moves its members
type UpdateClassCommand struct {
	store   ports.LibraryStore
	OldName string
	NewName string
}

// NewUpdateClassCommand creates a new UpdateClassCommand
func NewUpdateClassCommand(store ports.LibraryStore, oldName, newName string) *UpdateClassCommand {
	return &UpdateClassCommand{
		store:   store,
		OldName: strings.TrimSpace(oldName),
		NewName: strings.TrimSpace(newName),
	}
}

// Validate checks that both names are present
func (c *UpdateClassCommand) Validate() error {
	if err := application.ValidateRequired("oldName", c.OldName); err != nil {
		return err
	}
	return application.ValidateRequired("newName", c.NewName)
}

// Execute runs the rename class command
func (c *UpdateClassCommand) Execute(ctx context.Context) (*GroupResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	change, err := mutate(ctx, c.store, func(lib *domain.Library) domain.Change {
		return domain.UpdateClass(lib, c.OldName, c.NewName)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rename class: %w", err)
	}

	result := &GroupResult{Name: c.NewName, Changed: !change.IsEmpty()}
	if result.Changed {
		result.Message = fmt.Sprintf("Renamed class %s -> %s (%d members moved)", c.OldName, c.NewName, len(change.PutMembers))
	} else {
		result.Message = fmt.Sprintf("No change: class %s not found", c.OldName)
	}
	return result, nil
}

// DeleteClassCommand removes a class and every member enrolled in it
type DeleteClassCommand struct {
	store ports.LibraryStore
	Name  string
}

// NewDeleteClassCommand creates a new DeleteClassCommand
func NewDeleteClassCommand(store ports.LibraryStore, name string) *DeleteClassCommand {
	return &DeleteClassCommand{store: store, Name: strings.TrimSpace(name)}
}

// Validate checks that the name is present
func (c *DeleteClassCommand) Validate() error {
	return application.ValidateRequired("class", c.Name)
}

// Execute runs the delete class command
func (c *DeleteClassCommand) Execute(ctx context.Context) (*GroupResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	change, err := mutate(ctx, c.store, func(lib *domain.Library) domain.Change {
		return domain.DeleteClass(lib, c.Name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete class: %w", err)
	}
	return groupResult(c.Name, change, "Deleted class", "class"), nil
}

// mutate runs an infallible domain operation through the store and
// returns the change it produced
func mutate(ctx context.Context, store ports.LibraryStore, op func(lib *domain.Library) domain.Change) (domain.Change, error) {
	var change domain.Change
	err := store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		change = op(lib)
		return change, nil
	})
	return change, err
}

func groupResult(name string, change domain.Change, verb, kind string) *GroupResult {
	result := &GroupResult{
		Name:    name,
		Changed: !change.IsEmpty(),
		Removed: len(change.DeletedBooks) + len(change.DeletedMembers),
	}
	switch {
	case !result.Changed:
		result.Message = fmt.Sprintf("No change to %s %s", kind, name)
	case result.Removed > 0:
		result.Message = fmt.Sprintf("%s %s (%d removed with it)", verb, name, result.Removed)
	default:
		result.Message = fmt.Sprintf("%s %s", verb, name)
	}
	return result
}
