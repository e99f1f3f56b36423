package ports

import "encoding/json"

// DocRecord is one persisted document of a document store
type DocRecord struct {
	Ref  DocRef
	Data json.RawMessage
}

// DocumentBackend makes a document store durable
type DocumentBackend interface {
	LoadDocuments() ([]DocRecord, error)
	// SaveDocuments writes puts and removes deletes in one transaction
	SaveDocuments(puts []DocRecord, deletes []DocRef) error
}
