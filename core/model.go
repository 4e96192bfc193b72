package core

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// VoterHIR is the high-level input record for one (voting_key, voting_group)
// pair: a voter identity plus the voting power assigned to it.
type VoterHIR struct {
	VotingKey   string `json:"voting_key"`
	VotingGroup string `json:"voting_group"`
	VotingPower uint64 `json:"voting_power"`
}

// KeyContribution is a single delegation record. Only Value and the length
// of the containing slice feed the store; RewardAddress and
// StakePublicKey are passthrough fields kept for JSON round-tripping by
// collaborators.
type KeyContribution struct {
	RewardAddress  string `json:"reward_address"`
	Value          uint64 `json:"value"`
	StakePublicKey string `json:"stake_public_key"`
}

// SnapshotInfo is one record of a SnapshotInfoInput: a voter's HIR plus the
// contributions that back its delegation totals.
type SnapshotInfo struct {
	HIR           VoterHIR          `json:"hir"`
	Contributions []KeyContribution `json:"contributions"`
}

// SnapshotInfoInput is the full input document accepted by UpdateHandle.Update:
// an ordered list of per-voter-group records.
type SnapshotInfoInput []SnapshotInfo

// VoterInfo is one element of a get_voters_info result: a decoded entry
// plus the voting group it was stored under.
type VoterInfo struct {
	VotingGroup      string `json:"voting_group"`
	VotingPower      uint64 `json:"voting_power"`
	DelegationsPower uint64 `json:"delegations_power"`
	DelegationsCount uint64 `json:"delegations_count"`
}

// decodeVotingKey parses voting_key as lowercase (or mixed-case) hex into a
// fixed 32-byte slice. Returns ErrMalformedInput if it is not well-formed
// hex of the correct decoded length.
func decodeVotingKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedInput, "voting key is not valid hex: %v", err)
	}
	if len(b) != VotingKeyLen {
		return nil, errors.Wrapf(ErrMalformedInput, "voting key decodes to %d bytes, want %d", len(b), VotingKeyLen)
	}
	return b, nil
}
