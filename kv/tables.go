// Package kv is a small ordered key-value abstraction over named tables,
// modeled on the table/transaction split used throughout this codebase's
// storage layer: callers never touch the backend directly, only Tx/RwTx and
// table name constants.
package kv

// Table names for the three trees the snapshot core persists. Schema is
// intentionally flat: three tables, no dupsort, no secondary indices.
const (
	// Tags maps a tag name to its 4-byte big-endian TagId.
	Tags = "tags"

	// Entries maps tag_id(4) ‖ voting_key(32) ‖ voting_group(var) to a
	// 24-byte VoterEntry (see core/codec.go).
	Entries = "entries"

	// Seqs holds the single well-known key TagIDSeqKey mapping to the next
	// TagId to assign.
	Seqs = "seqs"
)

// TagIDSeqKey is the single key used within the Seqs table.
const TagIDSeqKey = "TID"

// Tables lists every table the store must ensure exists on open.
var Tables = []string{Tags, Entries, Seqs}
