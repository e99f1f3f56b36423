package commands

import (
	"context"
	"time"

	"shelfsync/internal/domain"
	"shelfsync/internal/ports"
)

var testNow = time.Date(2024, 2, 20, 8, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// memStore is a LibraryStore without persistence
type memStore struct {
	lib       domain.Library
	mutations int
}

var _ ports.LibraryStore = (*memStore)(nil)

func (s *memStore) Snapshot() domain.Library {
	return s.lib.Clone()
}

func (s *memStore) Mutate(ctx context.Context, fn ports.MutateFunc) error {
	next := s.lib.Clone()
	change, err := fn(&next)
	if err != nil {
		return err
	}
	if change.IsEmpty() {
		return nil
	}
	s.lib = next
	s.mutations++
	return nil
}

func newTestStore() *memStore {
	return &memStore{lib: domain.Library{
		Books: []domain.Book{
			{ID: "b1", BookNo: "A10", BookName: "Dune", Author: "Herbert", Category: "Fiction", Available: true},
			{ID: "b2", BookNo: "A2", BookName: "Emma", Author: "Austen", Category: "Fiction", Available: true},
			{ID: "b3", BookNo: "S1", BookName: "Cosmos", Author: "Sagan", Category: "Science", Available: true},
		},
		Members: []domain.Member{
			{ID: "m1", Name: "Asha", RegisterNumber: "R-1", Class: "7A", JoinDate: "2024-01-01"},
			{ID: "m2", Name: "Ben", RegisterNumber: "R-2", Class: "7B", JoinDate: "2024-01-02"},
		},
		Categories: []string{"Fiction", "Science"},
		Classes:    []string{"7A", "7B"},
	}}
}
