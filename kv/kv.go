package kv

import "context"

// Cursor iterates over key-value pairs of a single table in byte-lexicographic
// key order. It is read-only, also within a read-write transaction; mutations
// go through RwTx.Put and RwTx.Delete.
type Cursor interface {
	// Seek positions the cursor at the first key >= seek and returns it, or
	// (nil, nil, nil) if no such key exists.
	Seek(seek []byte) (k, v []byte, err error)
	// Next advances the cursor and returns the next pair, or (nil, nil, nil)
	// at the end of the table.
	Next() (k, v []byte, err error)
	// Close releases resources held by the cursor. Safe to call multiple
	// times.
	Close()
}

// Tx is a read-only view of the store, valid for its lifetime. All tables
// observed through one Tx see a single consistent snapshot.
type Tx interface {
	// GetOne returns the value for key in table, or nil if absent.
	GetOne(table string, key []byte) ([]byte, error)
	// Cursor opens an iterator over table.
	Cursor(table string) (Cursor, error)
	// Rollback marks the transaction as discarded. The enclosing View or
	// Update call ends the transaction; the boltkv backend implements this
	// as a no-op. A read-only Tx is always rolled back, never committed.
	Rollback()
}

// RwTx is a read-write transaction. Exactly one RwTx may be open at a time
// per RwDB; the backend serializes writers.
type RwTx interface {
	Tx

	// Put inserts or overwrites key->value in table.
	Put(table string, key, value []byte) error
	// Delete removes key from table. Deleting an absent key is not an
	// error.
	Delete(table string, key []byte) error
	// Commit is a hook for backends that commit explicitly. Mutations become
	// visible atomically when the enclosing RwDB.Update call commits, after
	// f returns nil; the boltkv backend implements Commit as a no-op.
	Commit() error
}

// RoDB is a handle to the store for read-only access. Cheaply shareable
// across goroutines: every call opens and closes its own transaction.
type RoDB interface {
	// View runs f against a fresh read-only Tx, always rolling it back
	// afterward regardless of f's outcome.
	View(ctx context.Context, f func(tx Tx) error) error
	// Close releases the underlying backend. Idempotent.
	Close() error
}

// RwDB is a handle to the store with write access. Not safe for concurrent
// Update calls from multiple goroutines unless the backend itself
// serializes them (bbolt does); callers needing cooperative single-writer
// semantics across multiple entry points should still guard Update with
// their own mutex, since RwDB makes no promise about fairness or ordering
// beyond "one at a time."
type RwDB interface {
	RoDB

	// Update runs f against a fresh RwTx. f's mutations are committed if f
	// returns nil, and discarded (with the error returned to the caller) if
	// f returns a non-nil error or Commit itself fails.
	Update(ctx context.Context, f func(tx RwTx) error) error
}
