package ports

import (
	"context"
	"encoding/json"
)

// DocRef addresses one document of the remote store
type DocRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Document is a remote document with its JSON body
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// OpKind is the kind of a batched write
type OpKind string

const (
	OpSet    OpKind = "set"    // Overwrite the whole document
	OpMerge  OpKind = "merge"  // Shallow-merge top-level fields into the document
	OpDelete OpKind = "delete" // Remove the document
)

// Op is one write of an atomic batch
type Op struct {
	Kind OpKind          `json:"kind"`
	Ref  DocRef          `json:"ref"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CollectionHandler receives the full contents of a collection
type CollectionHandler func(docs []Document)

// DocumentHandler receives a document; exists is false when it is missing
type DocumentHandler func(doc Document, exists bool)

// Subscription is a live change stream. Cancel stops delivery and is safe
// to call more than once.
type Subscription interface {
	Cancel()
	// Done is closed when the stream ends on its own, for example when
	// the connection carrying it drops. It is not closed by Cancel. A nil
	// channel means the stream cannot end on its own.
	Done() <-chan struct{}
}

// RemoteStore is a document database with live subscriptions
type RemoteStore interface {
	// Upsert merges data into the document, creating it when missing
	Upsert(ctx context.Context, ref DocRef, data json.RawMessage) error
	Delete(ctx context.Context, ref DocRef) error
	// Commit applies every op or none of them
	Commit(ctx context.Context, ops []Op) error
	List(ctx context.Context, collection string) ([]Document, error)

	// Subscriptions deliver the current state immediately, then after
	// every change
	SubscribeCollection(ctx context.Context, collection string, fn CollectionHandler) (Subscription, error)
	SubscribeDocument(ctx context.Context, ref DocRef, fn DocumentHandler) (Subscription, error)
}
