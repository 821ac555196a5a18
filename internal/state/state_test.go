package state_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/acedatacloud/dashsnap/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStateFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sync-state.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestManager_Load_MissingFile(t *testing.T) {
	mgr := state.NewManager(state.ManagerOptions{
		Path:          filepath.Join(t.TempDir(), "sync-state.json"),
		BootstrapDays: 3,
	})

	cur, err := mgr.Load()
	require.NoError(t, err)

	want := time.Now().UTC().Add(-3 * 24 * time.Hour)
	assert.WithinDuration(t, want, cur.LastPRSync, 5*time.Second)
	assert.WithinDuration(t, want, cur.LastCommitSync, 5*time.Second)
	assert.True(t, cur.Bootstrapped)
}

func TestManager_Load_DefaultBootstrapWindow(t *testing.T) {
	mgr := state.NewManager(state.ManagerOptions{
		Path: filepath.Join(t.TempDir(), "sync-state.json"),
	})

	cur, err := mgr.Load()
	require.NoError(t, err)

	want := time.Now().UTC().Add(-14 * 24 * time.Hour)
	assert.WithinDuration(t, want, cur.LastPRSync, 5*time.Second)
}

func TestManager_Load_SplitCursors(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{
		"last_sync": "2024-03-06T09:00:00Z",
		"last_pr_sync": "2024-03-05T10:00:00Z",
		"last_commit_sync": "2024-03-06T09:00:00Z"
	}`)
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	cur, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), cur.LastPRSync)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), cur.LastCommitSync)
	assert.False(t, cur.Bootstrapped)
}

func TestManager_Load_LegacySingleCursor(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{"last_sync": "2024-02-20T08:30:00Z"}`)
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	cur, err := mgr.Load()
	require.NoError(t, err)

	want := time.Date(2024, 2, 20, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, want, cur.LastPRSync)
	assert.Equal(t, want, cur.LastCommitSync)
	assert.False(t, cur.Bootstrapped)
}

func TestManager_Load_LegacyFillsMissingCursor(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{
		"last_sync": "2024-02-20T08:30:00Z",
		"last_commit_sync": "2024-03-01T00:00:00Z"
	}`)
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	cur, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 20, 8, 30, 0, 0, time.UTC), cur.LastPRSync)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cur.LastCommitSync)
}

func TestManager_Load_OffsetTimestamp(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{"last_sync": "2024-02-20T08:30:00+00:00"}`)
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	cur, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 20, 8, 30, 0, 0, time.UTC), cur.LastPRSync)
}

func TestManager_Load_MalformedTimestampFallsBack(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{
		"last_pr_sync": "not-a-date",
		"last_commit_sync": "2024-03-01T00:00:00Z"
	}`)
	mgr := state.NewManager(state.ManagerOptions{Path: path, BootstrapDays: 7})

	cur, err := mgr.Load()
	require.NoError(t, err)

	want := time.Now().UTC().Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, want, cur.LastPRSync, 5*time.Second)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cur.LastCommitSync)
	assert.False(t, cur.Bootstrapped)
}

func TestManager_Load_CorruptJSON(t *testing.T) {
	path := writeStateFile(t, t.TempDir(), `{not json`)
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	_, err := mgr.Load()
	assert.ErrorIs(t, err, state.ErrStateCorrupted)
}

func TestManager_Save_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	pr := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	commit := time.Date(2024, 3, 6, 9, 15, 0, 0, time.UTC)
	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     pr,
		LastCommitSync: commit,
		AddedURLs:      []string{"https://github.com/acme/widgets/pull/1"},
		OpenAIEnabled:  true,
		OpenAIModel:    "gpt-4o-mini",
		OpenAIBaseURL:  "https://api.openai.com",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-03-06T09:15:00Z", doc["last_sync"])
	assert.Equal(t, "2024-03-05T10:00:00Z", doc["last_pr_sync"])
	assert.Equal(t, "2024-03-06T09:15:00Z", doc["last_commit_sync"])
	assert.Equal(t, []any{"https://github.com/acme/widgets/pull/1"}, doc["last_added_urls"])

	openai, ok := doc["openai"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, openai["enabled"])
	assert.Equal(t, "gpt-4o-mini", openai["model"])
	assert.Equal(t, "https://api.openai.com", openai["base_url"])

	cur, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, pr, cur.LastPRSync)
	assert.Equal(t, commit, cur.LastCommitSync)
	assert.False(t, cur.Bootstrapped)
}

func TestManager_Save_LastSyncIsNewerCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}))

	var doc map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-03-09T00:00:00Z", doc["last_sync"])
}

func TestManager_Save_OpenAIDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}))

	var doc map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))

	openai, ok := doc["openai"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, openai["enabled"])
	assert.Nil(t, openai["model"])
	assert.Nil(t, openai["base_url"])
}

func TestManager_Save_CapsRememberedURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	urls := make([]string, 60)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://github.com/acme/widgets/pull/%d", i+1)
	}
	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		AddedURLs:      urls,
	}))

	st, err := mgr.Inspect()
	require.NoError(t, err)
	require.Len(t, st.LastAddedURLs, 50)
	assert.Equal(t, urls[0], st.LastAddedURLs[0])
	assert.Equal(t, urls[49], st.LastAddedURLs[49])
}

func TestManager_Save_EmptyURLListIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_added_urls": []`)
}

func TestManager_Save_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sync-state.json", entries[0].Name())
}

func TestManager_Inspect_MissingFile(t *testing.T) {
	mgr := state.NewManager(state.ManagerOptions{
		Path: filepath.Join(t.TempDir(), "sync-state.json"),
	})

	_, err := mgr.Inspect()
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestManager_Inspect_AfterSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync-state.json")
	mgr := state.NewManager(state.ManagerOptions{Path: path})

	before := time.Now().UTC()
	require.NoError(t, mgr.Save(state.RunRecord{
		LastPRSync:     time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		LastCommitSync: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC),
		AddedURLs:      []string{"https://github.com/acme/widgets/pull/7"},
	}))

	st, err := mgr.Inspect()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), st.LastSync)
	assert.WithinDuration(t, before, st.LastRunAt, 5*time.Second)
	assert.False(t, st.OpenAI.Enabled)
}
