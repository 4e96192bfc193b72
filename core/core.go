// Package core implements the snapshot core: a single-writer/many-reader
// split over a prefix-encoded key space in an embedded ordered KV store
// (see package kv), with whole-tag atomic replacement. It exposes
// SharedContext (reader) and UpdateHandle (writer); collaborators mount
// those under their own HTTP root via the httpapi package's filter groups.
package core

import (
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/kv"
)

// New builds the reader/writer pair over db, seeding the tag-id counter on
// first open. db must be both an RwDB (for the writer) and usable as an
// RoDB (for the reader) — any kv.RwDB satisfies both.
func New(db kv.RwDB, log *zap.Logger) (SharedContext, *UpdateHandle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := seedRegistry(db); err != nil {
		return SharedContext{}, nil, err
	}
	reader := newSharedContext(db, log)
	writer := newUpdateHandle(db, log)
	return reader, writer, nil
}
