package core

import (
	"context"

	"github.com/pkg/errors"

	"github.com/catalystgov/snapshotcore/kv"
)

// lookupTagID returns the TagId bound to name in the tags table, and
// whether a binding exists. tx may be a read-only Tx or an RwTx.
func lookupTagID(tx kv.Tx, name string) (id uint32, found bool, err error) {
	v, err := tx.GetOne(kv.Tags, []byte(name))
	if err != nil {
		return 0, false, errors.Wrap(ErrBackend, err.Error())
	}
	if v == nil {
		return 0, false, nil
	}
	id, err = decodeTagID(v)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// nextTagID reads the current value of seqs["TID"], the next id to assign.
// Absent is treated as zero (seedRegistry seeds it on first open, but this
// keeps the function total).
func nextTagID(tx kv.Tx) (uint32, error) {
	v, err := tx.GetOne(kv.Seqs, []byte(kv.TagIDSeqKey))
	if err != nil {
		return 0, errors.Wrap(ErrBackend, err.Error())
	}
	if v == nil {
		return 0, nil
	}
	return decodeTagID(v)
}

// allocateTagID binds name to the current value of seqs["TID"] and advances
// the counter by one, within the caller's write transaction. It does not
// check whether name is already bound — callers must do that first.
func allocateTagID(tx kv.RwTx, name string) (uint32, error) {
	id, err := nextTagID(tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Put(kv.Tags, []byte(name), encodeTagID(id)); err != nil {
		return 0, errors.Wrap(ErrBackend, err.Error())
	}
	if err := tx.Put(kv.Seqs, []byte(kv.TagIDSeqKey), encodeTagID(id+1)); err != nil {
		return 0, errors.Wrap(ErrBackend, err.Error())
	}
	return id, nil
}

// seedRegistry ensures seqs["TID"] exists, seeded to zero on first open.
// Called once when a store is opened.
func seedRegistry(db kv.RwDB) error {
	return db.Update(context.Background(), func(tx kv.RwTx) error {
		v, err := tx.GetOne(kv.Seqs, []byte(kv.TagIDSeqKey))
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
		if v != nil {
			return nil
		}
		return tx.Put(kv.Seqs, []byte(kv.TagIDSeqKey), encodeTagID(0))
	})
}
