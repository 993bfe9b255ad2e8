// Package storage declares how scan runs and background jobs are persisted.
// The PostgreSQL backend lives in pkg/storage/postgres; gomock doubles live in
// pkg/storage/mock.
package storage

import "context"

// AllStorage is everything available both inside and outside a transaction.
type AllStorage interface {
	RunStorage
	JobStorage
}

// TxStorage is a handle bound to an open transaction. It must not be used after
// Commit or Rollback.
type TxStorage interface {
	AllStorage

	Commit() error
	Rollback() error
}

// Storage is the long lived handle owned by a binary.
type Storage interface {
	AllStorage

	// Ping reports whether the backend answers queries.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error

	Begin(ctx context.Context) (TxStorage, error)
	// WithTx runs cb in a transaction that is committed only when cb returns nil.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
