package repository

// KVStore is durable string key-value storage with process-wide lifetime.
// Reads are synchronous from the caller's perspective; writes are
// last-write-wins and there are no transactions. Set returns
// entity.ErrStorageFull when a backend quota is exceeded.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Keys returns all stored keys.
	Keys() ([]string, error)

	// Close releases backend resources.
	Close() error
}
