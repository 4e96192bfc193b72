package boltkv

import (
	bolt "go.etcd.io/bbolt"

	"github.com/catalystgov/snapshotcore/kv"
)

// roTx adapts a *bolt.Tx (read-only or read-write) to kv.Tx.
type roTx struct {
	btx *bolt.Tx
}

func (t *roTx) GetOne(table string, key []byte) ([]byte, error) {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return nil, nil
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	// bbolt only guarantees the byte slice is valid for the lifetime of the
	// transaction; callers decode it before the transaction ends, but copy
	// defensively since decoded results (e.g. VoterInfo slices) commonly
	// outlive the callback.
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *roTx) Cursor(table string) (kv.Cursor, error) {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return &emptyCursor{}, nil
	}
	return &boltCursor{c: b.Cursor()}, nil
}

func (t *roTx) Rollback() {
	// bbolt manages the actual rollback/commit around the Update/View
	// callback based on the error it returns; this method exists only to
	// satisfy kv.Tx's shape for callers that expect symmetry with RwTx.
}

// rwTx adapts a *bolt.Tx opened for writing to kv.RwTx.
type rwTx struct {
	roTx
}

func (t *rwTx) Put(table string, key, value []byte) error {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		var err error
		b, err = t.btx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
	}
	return b.Put(key, value)
}

func (t *rwTx) Delete(table string, key []byte) error {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

func (t *rwTx) Commit() error {
	// Commit is a no-op here: the enclosing bolt.DB.Update call commits
	// automatically when the callback returns nil. Exposed so callers that
	// compose kv.RwTx generically (e.g. against a future non-bbolt backend)
	// have something to call.
	return nil
}

type boltCursor struct {
	c *bolt.Cursor
}

func (c *boltCursor) Seek(seek []byte) ([]byte, []byte, error) {
	k, v := c.c.Seek(seek)
	return copyKV(k, v)
}

func (c *boltCursor) Next() ([]byte, []byte, error) {
	k, v := c.c.Next()
	return copyKV(k, v)
}

func (c *boltCursor) Close() {}

func copyKV(k, v []byte) ([]byte, []byte, error) {
	if k == nil {
		return nil, nil, nil
	}
	kc := make([]byte, len(k))
	copy(kc, k)
	var vc []byte
	if v != nil {
		vc = make([]byte, len(v))
		copy(vc, v)
	}
	return kc, vc, nil
}

// emptyCursor is returned when the requested table does not yet exist.
type emptyCursor struct{}

func (emptyCursor) Seek([]byte) ([]byte, []byte, error) { return nil, nil, nil }
func (emptyCursor) Next() ([]byte, []byte, error)       { return nil, nil, nil }
func (emptyCursor) Close()                              {}
