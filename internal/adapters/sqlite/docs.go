package sqlite

import (
	"encoding/json"
	"fmt"

	"shelfsync/internal/ports"
)

// Ensure Store implements DocumentBackend
var _ ports.DocumentBackend = (*Store)(nil)

// LoadDocuments returns every persisted document ordered by collection and id
func (s *Store) LoadDocuments() ([]ports.DocRecord, error) {
	rows, err := s.db.Query(`SELECT collection, id, data FROM docs ORDER BY collection, id`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var out []ports.DocRecord
	for rows.Next() {
		var rec ports.DocRecord
		var data string
		if err := rows.Scan(&rec.Ref.Collection, &rec.Ref.ID, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec.Data = json.RawMessage(data)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveDocuments applies puts and deletes in one transaction
func (s *Store) SaveDocuments(puts []ports.DocRecord, deletes []ports.DocRef) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin document write: %w", err)
	}

	for _, rec := range puts {
		_, err := tx.Exec(`INSERT OR REPLACE INTO docs (collection, id, data) VALUES (?, ?, ?)`,
			rec.Ref.Collection, rec.Ref.ID, string(rec.Data))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("write %s/%s: %w", rec.Ref.Collection, rec.Ref.ID, err)
		}
	}
	for _, ref := range deletes {
		if _, err := tx.Exec(`DELETE FROM docs WHERE collection = ? AND id = ?`, ref.Collection, ref.ID); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete %s/%s: %w", ref.Collection, ref.ID, err)
		}
	}
	return tx.Commit()
}
