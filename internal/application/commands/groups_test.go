package commands

import (
	"context"
	"testing"
)

func TestGroupCommands(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		run         func(store *memStore) (*GroupResult, error)
		wantChanged bool
		wantRemoved int
		check       func(t *testing.T, store *memStore)
	}{
		{
			name: "add category",
			run: func(s *memStore) (*GroupResult, error) {
				return NewAddCategoryCommand(s, " History ").Execute(ctx)
			},
			wantChanged: true,
			check: func(t *testing.T, s *memStore) {
				if got := s.Snapshot().Categories; len(got) != 3 || got[2] != "History" {
					t.Errorf("unexpected categories %v", got)
				}
			},
		},
		{
			name: "add duplicate category",
			run: func(s *memStore) (*GroupResult, error) {
				return NewAddCategoryCommand(s, "Fiction").Execute(ctx)
			},
			wantChanged: false,
		},
		{
			name: "delete category cascades",
			run: func(s *memStore) (*GroupResult, error) {
				return NewDeleteCategoryCommand(s, "Fiction").Execute(ctx)
			},
			wantChanged: true,
			wantRemoved: 2,
		},
		{
			name: "rename class",
			run: func(s *memStore) (*GroupResult, error) {
				return NewUpdateClassCommand(s, "7A", "8A").Execute(ctx)
			},
			wantChanged: true,
			check: func(t *testing.T, s *memStore) {
				m, _ := s.Snapshot().MemberByID("m1")
				if m.Class != "8A" {
					t.Errorf("expected member moved to 8A, got %s", m.Class)
				}
			},
		},
		{
			name: "rename unknown class",
			run: func(s *memStore) (*GroupResult, error) {
				return NewUpdateClassCommand(s, "9Z", "8A").Execute(ctx)
			},
			wantChanged: false,
		},
		{
			name: "delete class cascades",
			run: func(s *memStore) (*GroupResult, error) {
				return NewDeleteClassCommand(s, "7B").Execute(ctx)
			},
			wantChanged: true,
			wantRemoved: 1,
		},
		{
			name: "add class",
			run: func(s *memStore) (*GroupResult, error) {
				return NewAddClassCommand(s, "9C").Execute(ctx)
			},
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore()
			res, err := tt.run(store)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v (%s)", res.Changed, tt.wantChanged, res.Message)
			}
			if res.Removed != tt.wantRemoved {
				t.Errorf("Removed = %d, want %d", res.Removed, tt.wantRemoved)
			}
			if tt.check != nil {
				tt.check(t, store)
			}
		})
	}
}

func TestAddCategoryCommand_RequiresName(t *testing.T) {
	if _, err := NewAddCategoryCommand(newTestStore(), "  ").Execute(context.Background()); err == nil {
		t.Error("expected validation error")
	}
}
