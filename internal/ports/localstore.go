package ports

// LocalStore is a durable key/value store for the cached collections.
// Values survive process restarts.
type LocalStore interface {
	// Read returns the stored value, or nil when the key is absent
	Read(key string) ([]byte, error)
	// Write replaces the value of key in one step
	Write(key string, value []byte) error

	// Dirty flag: local writes not yet pushed to the remote store
	NeedsSync() (bool, error)
	SetNeedsSync(dirty bool) error

	Close() error
}

// LocalBatchWriter is implemented by stores that can replace several keys
// atomically
type LocalBatchWriter interface {
	WriteAll(values map[string][]byte) error
}
