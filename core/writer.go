package core

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/internal/safemath"
	"github.com/catalystgov/snapshotcore/kv"
)

// CommitObserver receives the outcome and latency of each writer commit.
// internal/metrics.Metrics satisfies this; tests may supply their own.
type CommitObserver interface {
	ObserveCommit(outcome string, took time.Duration)
}

// UpdateHandle is the writer half of the snapshot core: the one logical
// writer every update entry point — the file watcher, an HTTP PUT, or any
// other caller — must go through. Update serializes itself with an internal
// mutex, so a *UpdateHandle can safely be shared and called concurrently
// from any number of goroutines without the caller arranging its own
// locking.
type UpdateHandle struct {
	db       kv.RwDB
	log      *zap.Logger
	observer CommitObserver

	mu sync.Mutex
}

// newUpdateHandle constructs an UpdateHandle over db.
func newUpdateHandle(db kv.RwDB, log *zap.Logger) *UpdateHandle {
	return &UpdateHandle{db: db, log: log}
}

// WithObserver attaches a CommitObserver, returning h for chaining. Passing
// nil detaches any previously attached observer.
func (h *UpdateHandle) WithObserver(o CommitObserver) *UpdateHandle {
	h.observer = o
	return h
}

// Update replaces every entry under tag with the contents of snapshot,
// atomically: readers never observe a state where only some of tag's old
// entries are gone, or only some of the new ones are present. Concurrent
// calls from different entry points are serialized against each other by
// h's own mutex.
func (h *UpdateHandle) Update(ctx context.Context, tag string, snapshot SnapshotInfoInput) error {
	batch, err := buildEntryBatch(tag, snapshot)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	bo = backoff.WithContext(bo, ctx)

	commit := func() error {
		err := h.db.Update(ctx, func(tx kv.RwTx) error {
			return applyUpdate(tx, tag, batch)
		})
		if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrMalformedKey) || errors.Is(err, ErrMalformedEntry) {
			// Not a transient backend fault: retrying a bad input forever
			// would just waste the backoff budget on an error that can
			// never resolve itself.
			return backoff.Permanent(err)
		}
		return err
	}

	start := time.Now()
	err = backoff.Retry(commit, bo)
	took := time.Since(start)
	if err != nil {
		h.log.Error("snapshot update failed", zap.String("tag", tag), zap.Error(err))
		if h.observer != nil {
			h.observer.ObserveCommit("error", took)
		}
		if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrMalformedKey) || errors.Is(err, ErrMalformedEntry) {
			return err
		}
		return errors.Wrap(ErrBackend, err.Error())
	}
	if h.observer != nil {
		h.observer.ObserveCommit("ok", took)
	}
	h.log.Info("snapshot updated",
		zap.String("tag", tag),
		zap.Int("entries", len(batch.puts)),
		zap.Duration("took", took),
	)
	return nil
}

// entryBatch is the pending set of mutations for one Update call: the
// removal of every prior entry under the tag (discovered at commit time,
// against the transaction's own view) plus the insertions derived from the
// new snapshot. Inserts always win over removes on equal keys.
type entryBatch struct {
	puts map[string][]byte
}

// buildEntryBatch derives the insert side of the batch from snapshot,
// validating every record. The remove side is discovered later, inside the
// write transaction, since it depends on the tag's TagId which may not be
// assigned yet.
func buildEntryBatch(tag string, snapshot SnapshotInfoInput) (*entryBatch, error) {
	if tag == "" {
		return nil, errors.Wrap(ErrMalformedInput, "tag must not be empty")
	}
	puts := make(map[string][]byte, len(snapshot))
	for _, rec := range snapshot {
		votingKey, err := decodeVotingKey(rec.HIR.VotingKey)
		if err != nil {
			return nil, err
		}
		values := make([]uint64, len(rec.Contributions))
		for i, c := range rec.Contributions {
			values[i] = c.Value
		}
		delegationsPower, ok := safemath.SumUint64(values)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedInput, "tag %q: delegation contributions for voting key %s overflow a u64 sum", tag, rec.HIR.VotingKey)
		}
		delegationsCount := uint64(len(rec.Contributions))
		value := encodeEntry(rec.HIR.VotingPower, delegationsPower, delegationsCount)

		// The map key here is only the voting_key+group suffix; the TagId
		// prefix is prepended once the tag is resolved inside the
		// transaction (see applyUpdate), since New tags don't have an id
		// yet at this point.
		suffixKey := string(votingKey) + rec.HIR.VotingGroup
		puts[suffixKey] = value
	}
	return &entryBatch{puts: puts}, nil
}

// applyUpdate resolves tag to a TagId (allocating one if new), removes
// every existing entry under that TagId, and inserts the batch's entries,
// all within tx.
func applyUpdate(tx kv.RwTx, tag string, batch *entryBatch) error {
	tagID, found, err := lookupTagID(tx, tag)
	if err != nil {
		return err
	}
	if !found {
		tagID, err = allocateTagID(tx, tag)
		if err != nil {
			return err
		}
	}

	tagPrefix := buildTagPrefix(tagID)
	cur, err := tx.Cursor(kv.Entries)
	if err != nil {
		return errors.Wrap(ErrBackend, err.Error())
	}
	defer cur.Close()

	var toRemove [][]byte
	k, _, err := cur.Seek(tagPrefix)
	if err != nil {
		return errors.Wrap(ErrBackend, err.Error())
	}
	for k != nil && hasPrefix(k, tagPrefix) {
		removed := make([]byte, len(k))
		copy(removed, k)
		toRemove = append(toRemove, removed)
		k, _, err = cur.Next()
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
	}
	for _, k := range toRemove {
		if err := tx.Delete(kv.Entries, k); err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
	}

	for suffixKey, value := range batch.puts {
		votingKey := []byte(suffixKey[:VotingKeyLen])
		group := suffixKey[VotingKeyLen:]
		key, err := buildEntryKey(tagID, votingKey, group)
		if err != nil {
			return err
		}
		if err := tx.Put(kv.Entries, key, value); err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
	}
	return nil
}
