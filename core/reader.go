package core

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/kv"
)

// ReaderObserver receives a notification for every SharedContext lookup.
// internal/metrics.Metrics satisfies this.
type ReaderObserver interface {
	ObserveLookup()
}

// SharedContext is the reader half of the snapshot core: cheaply cloneable,
// safe for concurrent use from any number of goroutines. It holds only a
// handle to the underlying store and never mutates it.
type SharedContext struct {
	db       kv.RoDB
	log      *zap.Logger
	observer ReaderObserver
}

// newSharedContext constructs a SharedContext over db. Unexported: callers
// get one from New.
func newSharedContext(db kv.RoDB, log *zap.Logger) SharedContext {
	return SharedContext{db: db, log: log}
}

// WithObserver returns a copy of c reporting lookups to o.
func (c SharedContext) WithObserver(o ReaderObserver) SharedContext {
	c.observer = o
	return c
}

// GetVotersInfo looks up every (voting_group, entry) recorded for votingKey
// under tag. It returns (nil, false, nil) if tag is unknown, and
// (possibly-empty slice, true, nil) otherwise. Groups are returned in
// byte-lexicographic order.
func (c SharedContext) GetVotersInfo(ctx context.Context, tag string, votingKey []byte) ([]VoterInfo, bool, error) {
	if c.observer != nil {
		c.observer.ObserveLookup()
	}
	var (
		result []VoterInfo
		known  bool
	)
	err := c.db.View(ctx, func(tx kv.Tx) error {
		tagID, found, err := lookupTagID(tx, tag)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		known = true

		prefix, err := buildVoterPrefix(tagID, votingKey)
		if err != nil {
			return err
		}

		cur, err := tx.Cursor(kv.Entries)
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
		defer cur.Close()

		k, v, err := cur.Seek(prefix)
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
		for k != nil && hasPrefix(k, prefix) {
			group, err := parseGroupFromKey(k, len(prefix))
			if err != nil {
				return err
			}
			votingPower, delegationsPower, delegationsCount, err := decodeEntry(v)
			if err != nil {
				return err
			}
			result = append(result, VoterInfo{
				VotingGroup:      group,
				VotingPower:      votingPower,
				DelegationsPower: delegationsPower,
				DelegationsCount: delegationsCount,
			})
			k, v, err = cur.Next()
			if err != nil {
				return errors.Wrap(ErrBackend, err.Error())
			}
			if k != nil && exceedsPrefix(k, prefix) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !known {
		return nil, false, nil
	}
	// bbolt cursors already iterate buckets in byte order, so result is
	// already sorted by group; the explicit sort below only guards against
	// a future backend that does not make that guarantee.
	sort.SliceStable(result, func(i, j int) bool { return result[i].VotingGroup < result[j].VotingGroup })
	return result, true, nil
}

// GetTags enumerates every registered tag name, in the store's natural
// (byte-lexicographic) order.
func (c SharedContext) GetTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.db.View(ctx, func(tx kv.Tx) error {
		cur, err := tx.Cursor(kv.Tags)
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
		defer cur.Close()

		k, _, err := cur.Seek([]byte{})
		if err != nil {
			return errors.Wrap(ErrBackend, err.Error())
		}
		for k != nil {
			tags = append(tags, string(k))
			k, _, err = cur.Next()
			if err != nil {
				return errors.Wrap(ErrBackend, err.Error())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
