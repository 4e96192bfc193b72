// Package boltkv is the sole backend implementation of the kv package,
// built on go.etcd.io/bbolt. bbolt buckets are the named trees the store
// needs; bbolt's single-writer, multi-bucket transactions give whole-tag
// replacement its atomicity for free.
package boltkv

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/catalystgov/snapshotcore/kv"
)

// DB wraps a bbolt database, implementing kv.RwDB.
type DB struct {
	bolt     *bolt.DB
	tempPath string
}

// Open opens (creating if absent) a bbolt file at path and ensures every
// table in kv.Tables exists. The parent directory is created if missing.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "boltkv: create data dir")
		}
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "boltkv: open")
	}
	db := &DB{bolt: bdb}
	if err := db.ensureTables(); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return db, nil
}

// OpenTemp opens an ephemeral store backed by a tempfile-based bbolt
// database, removed on Close. Used for tests and for configurations with
// no configured data directory.
func OpenTemp() (*DB, error) {
	f, err := os.CreateTemp("", "snapshotcore-*.bolt")
	if err != nil {
		return nil, errors.Wrap(err, "boltkv: create tempfile")
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path)

	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	db.tempPath = path
	return db, nil
}

func (d *DB) ensureTables() error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		for _, t := range kv.Tables {
			if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
				return errors.Wrapf(err, "boltkv: create table %q", t)
			}
		}
		return nil
	})
}

// View implements kv.RoDB.
func (d *DB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bolt.View(func(btx *bolt.Tx) error {
		return f(&roTx{btx: btx})
	})
}

// Update implements kv.RwDB.
func (d *DB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bolt.Update(func(btx *bolt.Tx) error {
		return f(&rwTx{roTx: roTx{btx: btx}})
	})
}

// Close implements kv.RoDB. Removes the backing file if this DB was opened
// with OpenTemp.
func (d *DB) Close() error {
	err := d.bolt.Close()
	if d.tempPath != "" {
		_ = os.Remove(d.tempPath)
	}
	return err
}
