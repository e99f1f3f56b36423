package domain

import (
	"strings"
	"time"
)

// ImportBooks appends already validated rows as new books filed under
// category. Rows whose business key matches an existing book, or an
// earlier row of the same import, are skipped and counted.
func ImportBooks(lib *Library, category string, rows []Book, now time.Time) ([]Book, int, Change) {
	seen := make(map[string]bool, len(lib.Books))
	for _, b := range lib.Books {
		seen[bookKey(b)] = true
	}

	var added []Book
	duplicates := 0
	for _, row := range rows {
		row.Category = category
		key := bookKey(row)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		row.ID = NewID(now)
		row.Available = true
		row.IssuedTo, row.IssuedDate, row.ReturnDate = nil, nil, nil
		added = append(added, row)
	}

	if len(added) == 0 {
		return nil, duplicates, Change{}
	}
	lib.Books = append(lib.Books, added...)
	return added, duplicates, Change{PutBooks: added}
}

// ImportMembers appends already validated rows as new members of class.
// Register numbers are the business key.
func ImportMembers(lib *Library, class string, rows []Member, now time.Time) ([]Member, int, Change) {
	seen := make(map[string]bool, len(lib.Members))
	for _, m := range lib.Members {
		seen[normalizeKey(m.RegisterNumber)] = true
	}

	var added []Member
	duplicates := 0
	for _, row := range rows {
		key := normalizeKey(row.RegisterNumber)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true

		row.ID = NewID(now)
		row.Class = class
		row.JoinDate = FormatDate(now)
		added = append(added, row)
	}

	if len(added) == 0 {
		return nil, duplicates, Change{}
	}
	lib.Members = append(lib.Members, added...)
	return added, duplicates, Change{PutMembers: added}
}

// bookKey identifies a book by its shelf code within a category, falling
// back to title and author for books without a code.
func bookKey(b Book) string {
	category := normalizeKey(b.Category)
	if no := normalizeKey(b.BookNo); no != "" {
		return category + "\x00no\x00" + no
	}
	return category + "\x00title\x00" + normalizeKey(b.BookName) + "\x00" + normalizeKey(b.Author)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
