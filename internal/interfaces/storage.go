package interfaces

import "github.com/timshannon/badgerhold/v4"

// StorageManager owns the database connection and the storages built on it
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	// DB returns the underlying badgerhold store, shared with the queue
	DB() *badgerhold.Store
	Close() error
}
