package core

import "github.com/pkg/errors"

// Sentinel error kinds. UpdateHandle.Update uses errors.Is on the Malformed
// kinds to tell bad input apart from backend faults; the HTTP handlers pick
// status codes from lookup results and voting-key parsing, not from these.
// Internal code wraps them with github.com/pkg/errors to keep a stack trace
// on the Backend path, the one kind worth diagnosing after the fact.
var (
	// ErrNotFound indicates a lookup against an unknown tag.
	ErrNotFound = errors.New("snapshotcore: tag not found")

	// ErrUnprocessable indicates a malformed voting-key hex string on a
	// lookup request.
	ErrUnprocessable = errors.New("snapshotcore: malformed voting key")

	// ErrMalformedInput indicates a writer input record failed a
	// structural check (e.g. a non-32-byte voting key).
	ErrMalformedInput = errors.New("snapshotcore: malformed input")

	// ErrMalformedKey indicates a stored key failed to decode; a sign of
	// data corruption.
	ErrMalformedKey = errors.New("snapshotcore: malformed key")

	// ErrMalformedEntry indicates a stored value failed to decode; a sign
	// of data corruption.
	ErrMalformedEntry = errors.New("snapshotcore: malformed entry")

	// ErrBackend indicates the KV store or its transaction machinery
	// reported a fault.
	ErrBackend = errors.New("snapshotcore: backend error")
)
