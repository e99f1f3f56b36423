package domain

import "slices"

// Collection names one cached collection of the library
type Collection string

const (
	CollectionBooks      Collection = "books"
	CollectionMembers    Collection = "members"
	CollectionCategories Collection = "categories"
	CollectionClasses    Collection = "classes"
	CollectionHistory    Collection = "history"
)

// Collections lists every collection in persistence order
var Collections = []Collection{
	CollectionBooks,
	CollectionMembers,
	CollectionCategories,
	CollectionHistory,
	CollectionClasses,
}

// Change describes what a domain operation did to a Library.
// Entity collections are described per document so that they can be
// written remotely one document at a time; grouping collections
// (categories, classes, history) are written as whole documents.
type Change struct {
	PutBooks       []Book
	DeletedBooks   []string
	PutMembers     []Member
	DeletedMembers []string

	Categories bool
	Classes    bool
	History    bool
}

// IsEmpty reports whether the change touches nothing
func (c Change) IsEmpty() bool {
	return len(c.Touched()) == 0
}

// Touched returns the collections the change modified
func (c Change) Touched() []Collection {
	var out []Collection
	if len(c.PutBooks) > 0 || len(c.DeletedBooks) > 0 {
		out = append(out, CollectionBooks)
	}
	if len(c.PutMembers) > 0 || len(c.DeletedMembers) > 0 {
		out = append(out, CollectionMembers)
	}
	if c.Categories {
		out = append(out, CollectionCategories)
	}
	if c.History {
		out = append(out, CollectionHistory)
	}
	if c.Classes {
		out = append(out, CollectionClasses)
	}
	return out
}

// Merge combines two changes into one
func (c Change) Merge(other Change) Change {
	return Change{
		PutBooks:       slices.Concat(c.PutBooks, other.PutBooks),
		DeletedBooks:   slices.Concat(c.DeletedBooks, other.DeletedBooks),
		PutMembers:     slices.Concat(c.PutMembers, other.PutMembers),
		DeletedMembers: slices.Concat(c.DeletedMembers, other.DeletedMembers),
		Categories:     c.Categories || other.Categories,
		Classes:        c.Classes || other.Classes,
		History:        c.History || other.History,
	}
}
