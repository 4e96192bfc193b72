package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// entryValueSize is the fixed encoded size of a VoterEntry value: three
// big-endian uint64 fields.
const entryValueSize = 24

// tagIDSize is the fixed encoded size of a TagId.
const tagIDSize = 4

// encodeEntry encodes (votingPower, delegationsPower, delegationsCount) as
// three consecutive big-endian uint64s. Encoding never fails.
func encodeEntry(votingPower, delegationsPower, delegationsCount uint64) []byte {
	buf := make([]byte, entryValueSize)
	binary.BigEndian.PutUint64(buf[0:8], votingPower)
	binary.BigEndian.PutUint64(buf[8:16], delegationsPower)
	binary.BigEndian.PutUint64(buf[16:24], delegationsCount)
	return buf
}

// decodeEntry decodes a value produced by encodeEntry. It fails with
// ErrMalformedEntry if v is not exactly entryValueSize bytes.
func decodeEntry(v []byte) (votingPower, delegationsPower, delegationsCount uint64, err error) {
	if len(v) != entryValueSize {
		return 0, 0, 0, errors.Wrapf(ErrMalformedEntry, "entry value has %d bytes, want %d", len(v), entryValueSize)
	}
	votingPower = binary.BigEndian.Uint64(v[0:8])
	delegationsPower = binary.BigEndian.Uint64(v[8:16])
	delegationsCount = binary.BigEndian.Uint64(v[16:24])
	return votingPower, delegationsPower, delegationsCount, nil
}

// encodeTagID encodes a TagId as 4 big-endian bytes.
func encodeTagID(id uint32) []byte {
	buf := make([]byte, tagIDSize)
	binary.BigEndian.PutUint32(buf, id)
	return buf
}

// decodeTagID decodes a 4-byte big-endian TagId. Fails with ErrMalformedKey
// if b is not exactly tagIDSize bytes.
func decodeTagID(b []byte) (uint32, error) {
	if len(b) != tagIDSize {
		return 0, errors.Wrapf(ErrMalformedKey, "tag id has %d bytes, want %d", len(b), tagIDSize)
	}
	return binary.BigEndian.Uint32(b), nil
}
