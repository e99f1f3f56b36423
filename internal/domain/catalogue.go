package domain

import (
	"slices"
	"time"
)

// AddBook appends a new available book with a fresh id
func AddBook(lib *Library, book Book, now time.Time) (Book, Change) {
	book.ID = NewID(now)
	book.Available = true
	book.IssuedTo = nil
	book.IssuedDate = nil
	book.ReturnDate = nil
	lib.Books = append(lib.Books, book)
	return book, Change{PutBooks: []Book{book}}
}

// UpdateBook replaces the catalogue fields of an existing book. Lending
// state is owned by the lending rules and is never overwritten here.
func UpdateBook(lib *Library, book Book) Change {
	i := lib.bookIndex(book.ID)
	if i < 0 {
		return Change{}
	}
	current := &lib.Books[i]
	current.BookNo = book.BookNo
	current.BookName = book.BookName
	current.Author = book.Author
	current.Publisher = book.Publisher
	current.Category = book.Category
	return Change{PutBooks: []Book{*current}}
}

// DeleteBook removes a book by id
func DeleteBook(lib *Library, bookID string) Change {
	i := lib.bookIndex(bookID)
	if i < 0 {
		return Change{}
	}
	lib.Books = slices.Delete(lib.Books, i, i+1)
	return Change{DeletedBooks: []string{bookID}}
}

// AddMember appends a new member who joins today
func AddMember(lib *Library, member Member, now time.Time) (Member, Change) {
	member.ID = NewID(now)
	member.JoinDate = FormatDate(now)
	lib.Members = append(lib.Members, member)
	return member, Change{PutMembers: []Member{member}}
}

// UpdateMember replaces an existing member, keeping its join date when the
// update leaves it blank
func UpdateMember(lib *Library, member Member) Change {
	i := slices.IndexFunc(lib.Members, func(m Member) bool { return m.ID == member.ID })
	if i < 0 {
		return Change{}
	}
	if member.JoinDate == "" {
		member.JoinDate = lib.Members[i].JoinDate
	}
	lib.Members[i] = member
	return Change{PutMembers: []Member{member}}
}

// DeleteMember removes a member by id
func DeleteMember(lib *Library, memberID string) Change {
	i := slices.IndexFunc(lib.Members, func(m Member) bool { return m.ID == memberID })
	if i < 0 {
		return Change{}
	}
	lib.Members = slices.Delete(lib.Members, i, i+1)
	return Change{DeletedMembers: []string{memberID}}
}

// AddCategory registers a category name. Existing names are ignored.
func AddCategory(lib *Library, name string) Change {
	if slices.Contains(lib.Categories, name) {
		return Change{}
	}
	lib.Categories = append(lib.Categories, name)
	return Change{Categories: true}
}

// DeleteCategory removes a category and every book filed under it. Books
// out on loan go too; their in-hand entries are closed as returned today
// so no borrower is left holding a deleted book.
func DeleteCategory(lib *Library, name string, today time.Time) Change {
	var change Change
	if i := slices.Index(lib.Categories, name); i >= 0 {
		lib.Categories = slices.Delete(lib.Categories, i, i+1)
		change.Categories = true
	}

	kept := lib.Books[:0:0]
	for _, b := range lib.Books {
		if b.Category != name {
			kept = append(kept, b)
			continue
		}
		change.DeletedBooks = append(change.DeletedBooks, b.ID)
		if h := lib.inHandIndex(b.ID); h >= 0 {
			lib.History[h].Status = StatusReturned
			lib.History[h].ReturnedOn = ptr(FormatDate(today))
			change.History = true
		}
	}
	lib.Books = kept
	return change
}

// AddClass registers a class name. Existing names are ignored.
func AddClass(lib *Library, name string) Change {
	if slices.Contains(lib.Classes, name) {
		return Change{}
	}
	lib.Classes = append(lib.Classes, name)
	return Change{Classes: true}
}

// UpdateClass renames a class and moves every member of it to the new name
func UpdateClass(lib *Library, oldName, newName string) Change {
	if oldName == newName {
		return Change{}
	}
	var change Change
	if i := slices.Index(lib.Classes, oldName); i >= 0 {
		if slices.Contains(lib.Classes, newName) {
			lib.Classes = slices.Delete(lib.Classes, i, i+1)
		} else {
			lib.Classes[i] = newName
		}
		change.Classes = true
	}
	for i := range lib.Members {
		if lib.Members[i].Class == oldName {
			lib.Members[i].Class = newName
			change.PutMembers = append(change.PutMembers, lib.Members[i])
		}
	}
	return change
}

// DeleteClass removes a class and every member enrolled in it
func DeleteClass(lib *Library, name string) Change {
	var change Change
	if i := slices.Index(lib.Classes, name); i >= 0 {
		lib.Classes = slices.Delete(lib.Classes, i, i+1)
		change.Classes = true
	}

	kept := lib.Members[:0:0]
	for _, m := range lib.Members {
		if m.Class == name {
			change.DeletedMembers = append(change.DeletedMembers, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	lib.Members = kept
	return change
}
