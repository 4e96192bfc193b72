package core

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// VotingKeyLen is the fixed length of a voting key in bytes.
const VotingKeyLen = 32

// voterPrefixLen is the length of the tag_id ‖ voting_key prefix shared by
// every entry belonging to one voter under one tag.
const voterPrefixLen = tagIDSize + VotingKeyLen

// buildTagPrefix returns the 4-byte key prefix selecting every entry under
// tagID, regardless of voter or group.
func buildTagPrefix(tagID uint32) []byte {
	return encodeTagID(tagID)
}

// buildVoterPrefix returns the 36-byte key prefix selecting every entry for
// votingKey under tagID, regardless of group.
func buildVoterPrefix(tagID uint32, votingKey []byte) ([]byte, error) {
	if len(votingKey) != VotingKeyLen {
		return nil, errors.Wrapf(ErrMalformedInput, "voting key has %d bytes, want %d", len(votingKey), VotingKeyLen)
	}
	prefix := make([]byte, 0, voterPrefixLen)
	prefix = append(prefix, encodeTagID(tagID)...)
	prefix = append(prefix, votingKey...)
	return prefix, nil
}

// buildEntryKey assembles the full key tag_id(4) ‖ voting_key(32) ‖ group.
func buildEntryKey(tagID uint32, votingKey []byte, group string) ([]byte, error) {
	prefix, err := buildVoterPrefix(tagID, votingKey)
	if err != nil {
		return nil, err
	}
	key := make([]byte, 0, len(prefix)+len(group))
	key = append(key, prefix...)
	key = append(key, group...)
	return key, nil
}

// parseGroupFromKey returns the UTF-8 voting_group trailing a key whose
// fixed-width prefix has length prefixLen. Fails with ErrMalformedKey if the
// trailing bytes are not valid UTF-8 or the key is shorter than prefixLen.
func parseGroupFromKey(key []byte, prefixLen int) (string, error) {
	if len(key) < prefixLen {
		return "", errors.Wrapf(ErrMalformedKey, "key has %d bytes, shorter than prefix %d", len(key), prefixLen)
	}
	group := key[prefixLen:]
	if !utf8.Valid(group) {
		return "", errors.Wrap(ErrMalformedKey, "voting group is not valid UTF-8")
	}
	return string(group), nil
}

// hasPrefix reports whether key starts with prefix.
func hasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}

// exceedsPrefix reports whether key sorts strictly after every key sharing
// prefix, i.e. whether a prefix-scan should stop at key.
func exceedsPrefix(key, prefix []byte) bool {
	n := len(prefix)
	if len(key) < n {
		return bytes.Compare(key, prefix[:len(key)]) > 0
	}
	return bytes.Compare(key[:n], prefix) > 0
}
