package core_test

import (
	"context"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/catalystgov/snapshotcore/core"
	"github.com/catalystgov/snapshotcore/kv/boltkv"
)

func genVotingKey(t *rapid.T, label string) []byte {
	n := rapid.IntRange(0, 255).Draw(t, label)
	k := make([]byte, core.VotingKeyLen)
	k[core.VotingKeyLen-1] = byte(n)
	return k
}

func genSnapshot(t *rapid.T) core.SnapshotInfoInput {
	n := rapid.IntRange(0, 12).Draw(t, "n")
	out := make(core.SnapshotInfoInput, n)
	for i := 0; i < n; i++ {
		k := genVotingKey(t, "key")
		group := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "group")
		power := rapid.Uint64Range(0, 1_000_000).Draw(t, "power")
		out[i] = core.SnapshotInfo{
			HIR: core.VoterHIR{
				VotingKey:   hexOf(k),
				VotingGroup: group,
				VotingPower: power,
			},
		}
	}
	return out
}

// Property: an Update call always fully replaces a tag's prior contents —
// every voter present after the call came from the latest snapshot, none
// from an earlier one.
func TestPropertyWholeTagReplacement(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		db, err := boltkv.OpenTemp()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		reader, writer, err := core.New(db, zap.NewNop())
		require.NoError(t, err)

		first := genSnapshot(t)
		require.NoError(t, writer.Update(ctx, "t", first))
		second := genSnapshot(t)
		require.NoError(t, writer.Update(ctx, "t", second))

		expected := map[string]bool{}
		for _, rec := range second {
			k, _ := hex.DecodeString(rec.HIR.VotingKey)
			expected[string(k)+"/"+rec.HIR.VotingGroup] = true
		}

		seen := map[string]bool{}
		for b := 0; b < 256; b++ {
			infos, found, err := reader.GetVotersInfo(ctx, "t", key(byte(b)))
			require.NoError(t, err)
			require.True(t, found)
			for _, vi := range infos {
				seen[string(key(byte(b)))+"/"+vi.VotingGroup] = true
			}
		}
		require.Equal(t, expected, seen)
	})
}

// Property: two different tags never observe each other's entries.
func TestPropertyTagIsolation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		db, err := boltkv.OpenTemp()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		reader, writer, err := core.New(db, zap.NewNop())
		require.NoError(t, err)

		snapA := genSnapshot(t)
		snapB := genSnapshot(t)
		require.NoError(t, writer.Update(ctx, "A", snapA))
		require.NoError(t, writer.Update(ctx, "B", snapB))

		expectedA := map[string]bool{}
		for _, rec := range snapA {
			k, _ := hex.DecodeString(rec.HIR.VotingKey)
			expectedA[string(k)+"/"+rec.HIR.VotingGroup] = true
		}

		seenA := map[string]bool{}
		for b := 0; b < 256; b++ {
			infosA, found, err := reader.GetVotersInfo(ctx, "A", key(byte(b)))
			require.NoError(t, err)
			require.True(t, found)
			for _, vi := range infosA {
				seenA[string(key(byte(b)))+"/"+vi.VotingGroup] = true
			}
		}
		require.Equal(t, expectedA, seenA)
	})
}

// Property: results for a given (tag, voting_key) are always returned
// sorted by voting group.
func TestPropertyResultsAreGroupSorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		db, err := boltkv.OpenTemp()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		reader, writer, err := core.New(db, zap.NewNop())
		require.NoError(t, err)

		snap := genSnapshot(t)
		require.NoError(t, writer.Update(ctx, "t", snap))

		for b := 0; b < 256; b++ {
			infos, _, err := reader.GetVotersInfo(ctx, "t", key(byte(b)))
			require.NoError(t, err)
			require.True(t, sort.SliceIsSorted(infos, func(i, j int) bool {
				return infos[i].VotingGroup < infos[j].VotingGroup
			}))
		}
	})
}

// Property: an empty snapshot always erases every prior entry for that tag,
// while the tag itself remains enumerable.
func TestPropertyEmptySnapshotErases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		db, err := boltkv.OpenTemp()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		reader, writer, err := core.New(db, zap.NewNop())
		require.NoError(t, err)

		snap := genSnapshot(t)
		require.NoError(t, writer.Update(ctx, "t", snap))
		require.NoError(t, writer.Update(ctx, "t", core.SnapshotInfoInput{}))

		for b := 0; b < 256; b++ {
			infos, found, err := reader.GetVotersInfo(ctx, "t", key(byte(b)))
			require.NoError(t, err)
			require.True(t, found)
			require.Empty(t, infos)
		}

		tags, err := reader.GetTags(ctx)
		require.NoError(t, err)
		require.Contains(t, tags, "t")
	})
}

