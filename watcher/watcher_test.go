package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/core"
	"github.com/catalystgov/snapshotcore/watcher"
)

// recordingUpdater stands in for *core.UpdateHandle: it records every call
// it receives instead of touching a real store.
type recordingUpdater struct {
	mu    sync.Mutex
	calls []core.SnapshotInfoInput
}

func (u *recordingUpdater) Update(_ context.Context, _ string, snapshot core.SnapshotInfoInput) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, snapshot)
	return nil
}

func (u *recordingUpdater) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func writeSnapshotFile(t *testing.T, dir, tag, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, tag+"-snapshot.json"), []byte(body), 0o644))
}

func TestInitialScanLoadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "tag1", `[{"hir":{"voting_key":"00","voting_group":"g","voting_power":1}}]`)

	u := &recordingUpdater{}
	w := watcher.New(dir, u, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.Equal(t, 1, u.count())
}

// S5 — a file rename into place is observed like a direct write.
func TestRenameIntoPlaceTriggersReload(t *testing.T) {
	dir := t.TempDir()

	u := &recordingUpdater{}
	w := watcher.New(dir, u, zap.NewNop())
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.Equal(t, 0, u.count())

	tmp := filepath.Join(dir, ".tag1-snapshot.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"hir":{"voting_key":"00","voting_group":"g","voting_power":1}}]`), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "tag1-snapshot.json")))

	require.Eventually(t, func() bool { return u.count() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestDebounceCollapsesBurst(t *testing.T) {
	dir := t.TempDir()

	u := &recordingUpdater{}
	w := watcher.New(dir, u, zap.NewNop())
	w.SetDebounce(200 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	// Non-empty content: a reload with zero records clears the tag's
	// debounce entry, so an empty body would not be debounced.
	for i := 0; i < 5; i++ {
		writeSnapshotFile(t, dir, "tag1", `[{"hir":{"voting_key":"00","voting_group":"g","voting_power":1}}]`)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	require.LessOrEqual(t, u.count(), 1)
}

func TestMissingFileTreatedAsEmptyOnRemove(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "tag1", `[{"hir":{"voting_key":"00","voting_group":"g","voting_power":1}}]`)

	u := &recordingUpdater{}
	w := watcher.New(dir, u, zap.NewNop())
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.Equal(t, 1, u.count())

	require.NoError(t, os.Remove(filepath.Join(dir, "tag1-snapshot.json")))

	require.Eventually(t, func() bool { return u.count() >= 2 }, time.Second, 5*time.Millisecond)

	u.mu.Lock()
	last := u.calls[len(u.calls)-1]
	u.mu.Unlock()
	require.Empty(t, last)
}

func TestInvalidJSONDoesNotCallUpdater(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "tag1", `not json`)

	u := &recordingUpdater{}
	w := watcher.New(dir, u, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.Equal(t, 0, u.count())
}
