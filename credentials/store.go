package credentials

// Store defines the interface for login-status record persistence.
// Implementations must be safe for concurrent use and durable across
// process restarts within the same data folder.
type Store interface {
	// Save writes the record synchronously, replacing any previous form
	Save(record Record) error

	// Load reads the current record. The second return value is false when
	// nothing is stored. A legacy bare-string value is upgraded in place to
	// the structured form on first read.
	Load() (Record, bool, error)

	// Clear deletes the record. Idempotent; never errors when nothing is
	// stored.
	Clear() error
}
