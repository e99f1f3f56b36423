package domain

import (
	"slices"

	"github.com/bytedance/sonic"
)

// Book represents a catalogued book and its current lending state
type Book struct {
	ID        string `json:"id"`
	BookNo    string `json:"bookNo"` // Display code, not guaranteed unique
	BookName  string `json:"bookName"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Category  string `json:"category"` // Category name
	Available bool   `json:"available"`

	// All three are nil while the book is available
	IssuedTo   *string `json:"issuedTo"`
	IssuedDate *string `json:"issuedDate"`
	ReturnDate *string `json:"returnDate"`
}

// UnmarshalJSON accepts the legacy "title" field as an alias of bookName
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var raw struct {
		plain
		Title string `json:"title"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Book(raw.plain)
	if b.BookName == "" {
		b.BookName = raw.Title
	}
	return nil
}

// IsIssued reports whether the book is currently lent out
func (b Book) IsIssued() bool {
	return !b.Available
}

// Member represents a registered library member
type Member struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber"`
	Class          string `json:"class"` // Class name
	JoinDate       string `json:"joinDate"`
}

// Status is the lifecycle state of an issue history entry
type Status string

const (
	StatusInHand   Status = "in-hand"
	StatusReturned Status = "returned"
)

// IssueHistoryEntry records one loan of a book to a member
type IssueHistoryEntry struct {
	ID         string  `json:"id"`
	BookID     string  `json:"bookId"`
	MemberID   string  `json:"memberId"`
	IssuedDate string  `json:"issuedDate"`
	ReturnDate string  `json:"returnDate"` // Due date
	Status     Status  `json:"status"`
	ReturnedOn *string `json:"returnedOn"`
}

// Library is the complete cached state shared by every consumer
type Library struct {
	Books      []Book
	Members    []Member
	Categories []string
	Classes    []string
	History    []IssueHistoryEntry
}

// Clone returns a deep copy so callers can mutate it freely
func (l Library) Clone() Library {
	books := slices.Clone(l.Books)
	for i := range books {
		books[i].IssuedTo = clonePtr(books[i].IssuedTo)
		books[i].IssuedDate = clonePtr(books[i].IssuedDate)
		books[i].ReturnDate = clonePtr(books[i].ReturnDate)
	}
	history := slices.Clone(l.History)
	for i := range history {
		history[i].ReturnedOn = clonePtr(history[i].ReturnedOn)
	}
	return Library{
		Books:      books,
		Members:    slices.Clone(l.Members),
		Categories: slices.Clone(l.Categories),
		Classes:    slices.Clone(l.Classes),
		History:    history,
	}
}

// BookByID returns the book with the given id
func (l Library) BookByID(id string) (Book, bool) {
	i := l.bookIndex(id)
	if i < 0 {
		return Book{}, false
	}
	return l.Books[i], true
}

// MemberByID returns the member with the given id
func (l Library) MemberByID(id string) (Member, bool) {
	i := slices.IndexFunc(l.Members, func(m Member) bool { return m.ID == id })
	if i < 0 {
		return Member{}, false
	}
	return l.Members[i], true
}

func (l Library) bookIndex(id string) int {
	return slices.IndexFunc(l.Books, func(b Book) bool { return b.ID == id })
}

func (l Library) inHandIndex(bookID string) int {
	return slices.IndexFunc(l.History, func(e IssueHistoryEntry) bool {
		return e.BookID == bookID && e.Status == StatusInHand
	})
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func ptr(s string) *string {
	return &s
}
