package domain

import "testing"

func TestImportBooks_SkipsDuplicates(t *testing.T) {
	lib := newTestLibrary()

	rows := []Book{
		{BookNo: "A3", BookName: "New One"},
		{BookNo: "a1", BookName: "Dune again"}, // same shelf code as b1
		{BookNo: "A3", BookName: "Repeated row"},
		{BookName: "No Code", Author: "Anon"},
		{BookName: "no code ", Author: "anon"},
	}

	added, duplicates, change := ImportBooks(&lib, "Fiction", rows, testToday)

	if len(added) != 2 {
		t.Fatalf("expected 2 books imported, got %d", len(added))
	}
	if duplicates != 3 {
		t.Errorf("expected 3 duplicates, got %d", duplicates)
	}
	for _, b := range added {
		if b.Category != "Fiction" || !b.Available || b.ID == "" {
			t.Errorf("unexpected imported book %+v", b)
		}
	}
	if added[0].ID == added[1].ID {
		t.Error("expected distinct ids")
	}
	if len(lib.Books) != 5 || len(change.PutBooks) != 2 {
		t.Errorf("expected 5 books and 2 puts, got %d and %d", len(lib.Books), len(change.PutBooks))
	}
}

func TestImportBooks_SameCodeOtherCategory(t *testing.T) {
	lib := newTestLibrary()

	added, duplicates, _ := ImportBooks(&lib, "Science", []Book{{BookNo: "A1", BookName: "Other shelf"}}, testToday)

	if len(added) != 1 || duplicates != 0 {
		t.Errorf("expected import into another category to succeed, got %d added %d duplicates", len(added), duplicates)
	}
}

func TestImportMembers(t *testing.T) {
	lib := newTestLibrary()

	rows := []Member{
		{Name: "A", RegisterNumber: "R-2"},
		{Name: "B", RegisterNumber: " r-1"},
	}
	added, duplicates, change := ImportMembers(&lib, "9C", rows, testToday)

	if len(added) != 1 || duplicates != 1 {
		t.Fatalf("expected 1 added and 1 duplicate, got %d and %d", len(added), duplicates)
	}
	if added[0].Class != "9C" || added[0].JoinDate != "2025-03-10" {
		t.Errorf("unexpected member %+v", added[0])
	}
	if len(change.PutMembers) != 1 {
		t.Errorf("unexpected change %+v", change)
	}
}

func TestImportBooks_NothingNew(t *testing.T) {
	lib := newTestLibrary()

	added, duplicates, change := ImportBooks(&lib, "Fiction", []Book{{BookNo: "A1", BookName: "Dune"}}, testToday)

	if added != nil || duplicates != 1 || !change.IsEmpty() {
		t.Errorf("expected nothing imported, got %v %d %+v", added, duplicates, change)
	}
}
