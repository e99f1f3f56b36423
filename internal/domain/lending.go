package domain

import "time"

// IssueBook lends a book to a member for LoanPeriodDays and opens an
// in-hand history entry. Unknown or already issued books are left
// untouched and an empty change is returned.
func IssueBook(lib *Library, bookID, memberID string, today time.Time) Change {
	i := lib.bookIndex(bookID)
	if i < 0 || lib.Books[i].IsIssued() || lib.inHandIndex(bookID) >= 0 {
		return Change{}
	}

	issued := FormatDate(today)
	due := DueDate(today)

	book := &lib.Books[i]
	book.Available = false
	book.IssuedTo = ptr(memberID)
	book.IssuedDate = ptr(issued)
	book.ReturnDate = ptr(due)

	lib.History = append(lib.History, IssueHistoryEntry{
		ID:         NewID(today),
		BookID:     bookID,
		MemberID:   memberID,
		IssuedDate: issued,
		ReturnDate: due,
		Status:     StatusInHand,
	})

	return Change{PutBooks: []Book{*book}, History: true}
}

// ReturnBook makes an issued book available again and closes its
// in-hand history entry.
func ReturnBook(lib *Library, bookID string, today time.Time) Change {
	i := lib.bookIndex(bookID)
	if i < 0 || !lib.Books[i].IsIssued() {
		return Change{}
	}

	book := &lib.Books[i]
	book.Available = true
	book.IssuedTo = nil
	book.IssuedDate = nil
	book.ReturnDate = nil
	change := Change{PutBooks: []Book{*book}}

	if h := lib.inHandIndex(bookID); h >= 0 {
		entry := &lib.History[h]
		entry.Status = StatusReturned
		entry.ReturnedOn = ptr(FormatDate(today))
		change.History = true
	}
	return change
}

// ReissueBook pushes the due date to LoanPeriodDays from today, not from
// the previous due date. Status and issue date are unchanged.
func ReissueBook(lib *Library, bookID string, today time.Time) Change {
	i := lib.bookIndex(bookID)
	if i < 0 || !lib.Books[i].IsIssued() {
		return Change{}
	}

	due := DueDate(today)
	book := &lib.Books[i]
	book.ReturnDate = ptr(due)
	change := Change{PutBooks: []Book{*book}}

	if h := lib.inHandIndex(bookID); h >= 0 {
		lib.History[h].ReturnDate = due
		change.History = true
	}
	return change
}

// CheckLending reports the first book violating the availability
// invariant, or the first book with more than one in-hand entry.
func CheckLending(lib Library) (string, bool) {
	inHand := make(map[string]int)
	for _, e := range lib.History {
		if e.Status == StatusInHand {
			inHand[e.BookID]++
		}
	}
	for _, b := range lib.Books {
		lent := b.IssuedTo != nil
		if b.Available == lent || lent != (b.IssuedDate != nil) || lent != (b.ReturnDate != nil) {
			return b.ID, false
		}
		if inHand[b.ID] > 1 {
			return b.ID, false
		}
	}
	return "", true
}
