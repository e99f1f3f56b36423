package sqlite

import (
	"database/sql"
	"fmt"
	"sort"

	"shelfsync/internal/ports"
)

// Ensure Store implements LocalBatchWriter
var _ ports.LocalBatchWriter = (*Store)(nil)

// storeTx wraps one write transaction on the kv table
type storeTx struct {
	tx *sql.Tx
}

// put inserts or replaces a value
func (t *storeTx) put(key string, value []byte) error {
	_, err := t.tx.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, string(value))
	return err
}

// WriteAll replaces several keys in a single transaction
func (s *Store) WriteAll(values map[string][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	st := &storeTx{tx: tx}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := st.put(k, values[k]); err != nil {
			tx.Rollback()
			return fmt.Errorf("write %s: %w", k, err)
		}
	}
	return tx.Commit()
}
