package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shelfsync/internal/application"
	"shelfsync/internal/domain"
)

func TestBookCommands(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	add := NewAddBookCommand(store, domain.Book{BookNo: "A3", BookName: "Ulysses", Category: "Fiction"})
	add.Now = fixedClock
	added, err := add.Execute(ctx)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.HasPrefix(added.Book.ID, "id_") || !added.Book.Available {
		t.Errorf("unexpected added book %+v", added.Book)
	}

	update := NewUpdateBookCommand(store, domain.Book{ID: added.Book.ID, BookNo: "A3", BookName: "Ulysses (annotated)", Category: "Fiction"})
	if _, err := update.Execute(ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	books, _ := NewListBooksCommand(store, domain.BookFilter{Category: "Fiction"}).Execute(ctx)
	var names []string
	for _, b := range books {
		names = append(names, b.BookNo)
	}
	if strings.Join(names, ",") != "A2,A3,A10" {
		t.Errorf("expected natural order A2,A3,A10, got %v", names)
	}

	if _, err := NewDeleteBookCommand(store, added.Book.ID).Execute(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(store.Snapshot().Books) != 3 {
		t.Errorf("expected 3 books after delete, got %d", len(store.Snapshot().Books))
	}
}

func TestBookCommands_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func(store *memStore) error
		wantErr error
	}{
		{
			name: "add without name",
			run: func(store *memStore) error {
				_, err := NewAddBookCommand(store, domain.Book{BookNo: "X"}).Execute(ctx)
				return err
			},
		},
		{
			name: "update unknown book",
			run: func(store *memStore) error {
				_, err := NewUpdateBookCommand(store, domain.Book{ID: "nope", BookName: "X"}).Execute(ctx)
				return err
			},
			wantErr: application.ErrNotFound,
		},
		{
			name: "delete issued book",
			run: func(store *memStore) error {
				issue := NewIssueBookCommand(store, "b1", "m1")
				if _, err := issue.Execute(ctx); err != nil {
					return err
				}
				_, err := NewDeleteBookCommand(store, "b1").Execute(ctx)
				return err
			},
			wantErr: application.ErrInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(newTestStore())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			var valErr *application.ValidationError
			if tt.wantErr == nil && !errors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestMemberCommands(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	add := NewAddMemberCommand(store, domain.Member{Name: "Cara", RegisterNumber: "R-3", Class: "7A"})
	add.Now = fixedClock
	added, err := add.Execute(ctx)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added.Member.JoinDate != "2024-02-20" {
		t.Errorf("expected join date today, got %s", added.Member.JoinDate)
	}

	updated, err := NewUpdateMemberCommand(store, domain.Member{ID: added.Member.ID, Name: "Cara B", RegisterNumber: "R-3", Class: "7B"}).Execute(ctx)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Member.JoinDate != "2024-02-20" {
		t.Errorf("expected join date to be kept, got %q", updated.Member.JoinDate)
	}

	members, _ := NewListMembersCommand(store, "7B").Execute(ctx)
	if len(members) != 2 {
		t.Errorf("expected 2 members in 7B, got %d", len(members))
	}

	if _, err := NewDeleteMemberCommand(store, added.Member.ID).Execute(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := NewDeleteMemberCommand(store, added.Member.ID).Execute(ctx); !errors.Is(err, application.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemberHistoryCommand(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	for _, id := range []string{"b1", "b3"} {
		issue := NewIssueBookCommand(store, id, "m1")
		issue.Now = fixedClock
		if _, err := issue.Execute(ctx); err != nil {
			t.Fatalf("issue %s failed: %v", id, err)
		}
	}
	if _, err := NewDeleteBookCommand(store, "b2").Execute(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	res, err := NewMemberHistoryCommand(store, "m1").Execute(ctx)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(res.Entries) != 2 || res.Entries[0].BookName != "Dune" || res.Entries[1].BookName != "Cosmos" {
		t.Errorf("unexpected history %+v", res.Entries)
	}

	issued, _ := NewIssuedBooksCommand(store, "asha").Execute(ctx)
	if len(issued) != 2 || issued[0].Borrower == nil || issued[0].Borrower.ID != "m1" {
		t.Errorf("expected both books issued to Asha, got %+v", issued)
	}

	summary, _ := NewSummaryCommand(store).Execute(ctx)
	if summary.IssuedBooks != 2 || summary.TotalBooks != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
}
