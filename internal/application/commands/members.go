package commands

import (
	"context"
	"fmt"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

// MemberResult contains the result of a membership change
type MemberResult struct {
	Member  domain.Member
	Message string
}

// AddMemberCommand registers a member who joins today
type AddMemberCommand struct {
	store  ports.LibraryStore
	Member domain.Member
	Now    Clock
}

// NewAddMemberCommand creates a new AddMemberCommand
func NewAddMemberCommand(store ports.LibraryStore, member domain.Member) *AddMemberCommand {
	return &AddMemberCommand{store: store, Member: member, Now: utcNow}
}

// Validate checks the required fields
func (c *AddMemberCommand) Validate() error {
	if err := application.ValidateRequired("name", c.Member.Name); err != nil {
		return err
	}
	return application.ValidateRequired("registerNumber", c.Member.RegisterNumber)
}

// Execute runs the add member command
func (c *AddMemberCommand) Execute(ctx context.Context) (*MemberResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var added domain.Member
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		var change domain.Change
		added, change = domain.AddMember(lib, c.Member, c.Now())
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return &MemberResult{
		Member:  added,
		Message: fmt.Sprintf("Added member %s (%s)", added.Name, added.RegisterNumber),
	}, nil
}

// UpdateMemberCommand replaces a member's details
type UpdateMemberCommand struct {
	store  ports.LibraryStore
	Member domain.Member
}

// NewUpdateMemberCommand creates a new UpdateMemberCommand
func NewUpdateMemberCommand(store ports.LibraryStore, member domain.Member) *UpdateMemberCommand {
	return &UpdateMemberCommand{store: store, Member: member}
}

// Validate checks the required fields
func (c *UpdateMemberCommand) Validate() error {
	if err := application.ValidateRequired("memberID", c.Member.ID); err != nil {
		return err
	}
	if err := application.ValidateRequired("name", c.Member.Name); err != nil {
		return err
	}
	return application.ValidateRequired("registerNumber", c.Member.RegisterNumber)
}

// Execute runs the update member command
func (c *UpdateMemberCommand) Execute(ctx context.Context) (*MemberResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var updated domain.Member
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		change := domain.UpdateMember(lib, c.Member)
		if len(change.PutMembers) == 0 {
			return change, &application.NotFoundError{Kind: "member", ID: c.Member.ID}
		}
		updated = change.PutMembers[0]
		return change, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return &MemberResult{Member: updated, Message: fmt.Sprintf("Updated member %s", updated.Name)}, nil
}

// DeleteMemberCommand removes a member
type DeleteMemberCommand struct {
	store    ports.LibraryStore
	MemberID string
}

// NewDeleteMemberCommand creates a new DeleteMemberCommand
func NewDeleteMemberCommand(store ports.LibraryStore, memberID string) *DeleteMemberCommand {
	return &DeleteMemberCommand{store: store, MemberID: memberID}
}

// Validate checks that the member id is present
func (c *DeleteMemberCommand) Validate() error {
	return application.ValidateRequired("memberID", c.MemberID)
}

// Execute runs the delete member command
func (c *DeleteMemberCommand) Execute(ctx context.Context) (*MemberResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var removed domain.Member
	err := c.store.Mutate(ctx, func(lib *domain.Library) (domain.Change, error) {
		m, ok := lib.MemberByID(c.MemberID)
		if !ok {
			return domain.Change{}, &application.NotFoundError{Kind: "member", ID: c.MemberID}
		}
		removed = m
		return domain.DeleteMember(lib, c.MemberID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete member: %w", err)
	}

	return &MemberResult{Member: removed, Message: fmt.Sprintf("Deleted member %s", removed.Name)}, nil
}

// HistoryLine is a history entry joined with its book
type HistoryLine struct {
	domain.IssueHistoryEntry
	BookName string
}

// MemberHistoryResult contains a member and their lending history
type MemberHistoryResult struct {
	Member  domain.Member
	Entries []HistoryLine
}

// MemberHistoryCommand lists a member's lending history
type MemberHistoryCommand struct {
	store    ports.LibraryStore
	MemberID string
}

// NewMemberHistoryCommand creates a new MemberHistoryCommand
func NewMemberHistoryCommand(store ports.LibraryStore, memberID string) *MemberHistoryCommand {
	return &MemberHistoryCommand{store: store, MemberID: memberID}
}

// Validate checks that the member id is present
func (c *MemberHistoryCommand) Validate() error {
	return application.ValidateRequired("memberID", c.MemberID)
}

// Execute runs the member history command
func (c *MemberHistoryCommand) Execute(ctx context.Context) (*MemberHistoryResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	lib := c.store.Snapshot()
	member, ok := lib.MemberByID(c.MemberID)
	if !ok {
		return nil, &application.NotFoundError{Kind: "member", ID: c.MemberID}
	}

	result := &MemberHistoryResult{Member: member}
	for _, e := range domain.MemberHistory(lib, c.MemberID) {
		line := HistoryLine{IssueHistoryEntry: e, BookName: "(deleted book)"}
		if b, ok := lib.BookByID(e.BookID); ok {
			line.BookName = b.BookName
		}
		result.Entries = append(result.Entries, line)
	}
	return result, nil
}

// ListMembersCommand lists members, optionally only those of one class
type ListMembersCommand struct {
	store ports.LibraryStore
	Class string
}

// NewListMembersCommand creates a new ListMembersCommand
func NewListMembersCommand(store ports.LibraryStore, class string) *ListMembersCommand {
	return &ListMembersCommand{store: store, Class: class}
}

// Execute runs the list members command
func (c *ListMembersCommand) Execute(ctx context.Context) ([]domain.Member, error) {
	lib := c.store.Snapshot()
	if c.Class == "" {
		return lib.Members, nil
	}
	return domain.MembersInClass(lib, c.Class), nil
}
