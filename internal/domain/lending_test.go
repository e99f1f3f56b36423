package domain

import (
	"math/rand"
	"testing"
	"time"
)

var testToday = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestLibrary() Library {
	return Library{
		Books: []Book{
			{ID: "b1", BookNo: "A1", BookName: "Dune", Category: "Fiction", Available: true},
			{ID: "b2", BookNo: "A2", BookName: "Emma", Category: "Fiction", Available: true},
			{ID: "b3", BookNo: "S1", BookName: "Cosmos", Category: "Science", Available: true},
		},
		Members: []Member{
			{ID: "m1", Name: "X", RegisterNumber: "R-1", Class: "7A"},
		},
		Categories: []string{"Fiction", "Science"},
		Classes:    []string{"7A"},
	}
}

func assertLendingInvariant(t *testing.T, lib Library) {
	t.Helper()
	if id, ok := CheckLending(lib); !ok {
		t.Fatalf("lending invariant violated by book %s", id)
	}
}

func TestIssueBook(t *testing.T) {
	lib := newTestLibrary()

	change := IssueBook(&lib, "b1", "m1", testToday)

	book, _ := lib.BookByID("b1")
	if book.Available {
		t.Error("expected book to be unavailable")
	}
	if book.IssuedTo == nil || *book.IssuedTo != "m1" {
		t.Errorf("expected issuedTo m1, got %v", book.IssuedTo)
	}
	if *book.IssuedDate != "2025-03-10" {
		t.Errorf("expected issued date 2025-03-10, got %s", *book.IssuedDate)
	}
	if *book.ReturnDate != "2025-03-24" {
		t.Errorf("expected return date 2025-03-24, got %s", *book.ReturnDate)
	}

	if len(lib.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(lib.History))
	}
	entry := lib.History[0]
	if entry.Status != StatusInHand || entry.BookID != "b1" || entry.MemberID != "m1" {
		t.Errorf("unexpected history entry: %+v", entry)
	}
	if entry.ReturnDate != "2025-03-24" || entry.ReturnedOn != nil {
		t.Errorf("unexpected history dates: %+v", entry)
	}

	if len(change.PutBooks) != 1 || !change.History {
		t.Errorf("expected change to touch one book and history, got %+v", change)
	}
	assertLendingInvariant(t, lib)
}

func TestIssueBook_CalendarDaysAcrossMonth(t *testing.T) {
	lib := newTestLibrary()
	IssueBook(&lib, "b1", "m1", time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))

	book, _ := lib.BookByID("b1")
	if *book.ReturnDate != "2024-03-05" {
		t.Errorf("expected due date 2024-03-05, got %s", *book.ReturnDate)
	}
}

func TestIssueBook_NoChangeCases(t *testing.T) {
	tests := []struct {
		name   string
		bookID string
		setup  func(*Library)
	}{
		{name: "unknown book", bookID: "missing"},
		{
			name:   "already issued",
			bookID: "b1",
			setup: func(lib *Library) {
				IssueBook(lib, "b1", "m1", testToday)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := newTestLibrary()
			if tt.setup != nil {
				tt.setup(&lib)
			}
			historyBefore := len(lib.History)

			change := IssueBook(&lib, tt.bookID, "m1", testToday)

			if !change.IsEmpty() {
				t.Errorf("expected empty change, got %+v", change)
			}
			if len(lib.History) != historyBefore {
				t.Errorf("expected history to stay at %d entries, got %d", historyBefore, len(lib.History))
			}
			assertLendingInvariant(t, lib)
		})
	}
}

func TestIssueThenReturn(t *testing.T) {
	lib := newTestLibrary()
	IssueBook(&lib, "b1", "m1", testToday)

	change := ReturnBook(&lib, "b1", testToday.AddDate(0, 0, 3))

	book, _ := lib.BookByID("b1")
	if !book.Available || book.IssuedTo != nil || book.IssuedDate != nil || book.ReturnDate != nil {
		t.Errorf("expected book fully available, got %+v", book)
	}
	if len(lib.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(lib.History))
	}
	entry := lib.History[0]
	if entry.Status != StatusReturned {
		t.Errorf("expected status returned, got %s", entry.Status)
	}
	if entry.ReturnedOn == nil || *entry.ReturnedOn != "2025-03-13" {
		t.Errorf("expected returnedOn 2025-03-13, got %v", entry.ReturnedOn)
	}
	if !change.History || len(change.PutBooks) != 1 {
		t.Errorf("unexpected change: %+v", change)
	}
	assertLendingInvariant(t, lib)
}

func TestReturnBook_AvailableBookIsNoop(t *testing.T) {
	lib := newTestLibrary()
	if change := ReturnBook(&lib, "b1", testToday); !change.IsEmpty() {
		t.Errorf("expected empty change, got %+v", change)
	}
}

func TestReissueBook_UsesTodayNotPreviousDueDate(t *testing.T) {
	lib := newTestLibrary()
	IssueBook(&lib, "b1", "m1", testToday)
	// a second, already returned loan of another book must be left alone
	IssueBook(&lib, "b2", "m1", testToday)
	ReturnBook(&lib, "b2", testToday)

	later := testToday.AddDate(0, 0, 20)
	change := ReissueBook(&lib, "b1", later)

	book, _ := lib.BookByID("b1")
	if *book.ReturnDate != "2025-04-13" {
		t.Errorf("expected due date 2025-04-13, got %s", *book.ReturnDate)
	}
	if *book.IssuedDate != "2025-03-10" {
		t.Errorf("expected issued date unchanged, got %s", *book.IssuedDate)
	}

	first := lib.History[0]
	if first.ReturnDate != "2025-04-13" || first.Status != StatusInHand || first.IssuedDate != "2025-03-10" {
		t.Errorf("unexpected in-hand entry after reissue: %+v", first)
	}
	second := lib.History[1]
	if second.ReturnDate != "2025-03-24" || second.Status != StatusReturned {
		t.Errorf("returned entry should be untouched: %+v", second)
	}
	if !change.History {
		t.Error("expected history to be touched")
	}
	assertLendingInvariant(t, lib)
}

func TestIssueReissueReturn_RestoresBook(t *testing.T) {
	lib := Library{
		Books:   []Book{{ID: "b1", BookNo: "A1", Available: true}},
		Members: []Member{{ID: "m1", Name: "X"}},
	}
	initial := lib.Clone().Books[0]

	IssueBook(&lib, "b1", "m1", testToday)
	ReissueBook(&lib, "b1", testToday.AddDate(0, 0, 5))
	ReturnBook(&lib, "b1", testToday.AddDate(0, 0, 9))

	got := lib.Books[0]
	if got.ID != initial.ID || got.BookNo != initial.BookNo || got.Available != initial.Available ||
		got.IssuedTo != nil || got.IssuedDate != nil || got.ReturnDate != nil {
		t.Errorf("expected book restored to %+v, got %+v", initial, got)
	}
	if len(lib.History) != 1 || lib.History[0].Status != StatusReturned {
		t.Errorf("expected one returned entry, got %+v", lib.History)
	}
}

func TestAtMostOneInHandPerBook(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	lib := newTestLibrary()
	day := testToday

	for step := 0; step < 500; step++ {
		bookID := lib.Books[rng.Intn(len(lib.Books))].ID
		switch rng.Intn(3) {
		case 0:
			IssueBook(&lib, bookID, "m1", day)
		case 1:
			ReturnBook(&lib, bookID, day)
		case 2:
			ReissueBook(&lib, bookID, day)
		}
		day = day.AddDate(0, 0, 1)
		assertLendingInvariant(t, lib)
	}
}
