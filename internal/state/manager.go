package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

const defaultBootstrapDays = 14

// Manager persists the incremental cursors of the changelog sync between
// runs. A missing state file is not an error: both cursors fall back to the
// start of the bootstrap window.
type Manager struct {
	path          string
	bootstrapDays int
	logger        *utils.Logger
}

// ManagerOptions configures a state Manager.
type ManagerOptions struct {
	// Path is the location of the state file.
	Path string

	// BootstrapDays sets how far back the cursors reach when no previous
	// state exists. Defaults to 14.
	BootstrapDays int

	Logger *utils.Logger
}

// NewManager creates a state manager for the given file.
func NewManager(opts ManagerOptions) *Manager {
	days := opts.BootstrapDays
	if days <= 0 {
		days = defaultBootstrapDays
	}
	return &Manager{
		path:          utils.ExpandPath(opts.Path),
		bootstrapDays: days,
		logger:        opts.Logger,
	}
}

// Path returns the resolved state file location.
func (m *Manager) Path() string {
	return m.path
}

// Load resolves the per-kind sync cursors from the state file. Files written
// before the cursors were split carry only last_sync; that value then seeds
// both cursors. Unparseable timestamps degrade to the bootstrap fallback.
func (m *Manager) Load() (Cursors, error) {
	fallback := time.Now().UTC().Add(-time.Duration(m.bootstrapDays) * 24 * time.Hour)

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		if m.logger != nil {
			m.logger.Debug().
				Str("path", m.path).
				Int("bootstrap_days", m.bootstrapDays).
				Msg("No sync state found, bootstrapping")
		}
		return Cursors{LastPRSync: fallback, LastCommitSync: fallback, Bootstrapped: true}, nil
	}
	if err != nil {
		return Cursors{}, fmt.Errorf("read state %s: %w", m.path, err)
	}

	var doc syncStateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Cursors{}, fmt.Errorf("%w: %s: %v", ErrStateCorrupted, m.path, err)
	}

	legacy := parseStateTime(doc.LastSync)
	pr := parseStateTime(doc.LastPRSync)
	if pr.IsZero() {
		pr = legacy
	}
	commit := parseStateTime(doc.LastCommitSync)
	if commit.IsZero() {
		commit = legacy
	}

	cur := Cursors{LastPRSync: pr, LastCommitSync: commit, Bootstrapped: pr.IsZero() && commit.IsZero()}
	if cur.LastPRSync.IsZero() {
		cur.LastPRSync = fallback
	}
	if cur.LastCommitSync.IsZero() {
		cur.LastCommitSync = fallback
	}

	if m.logger != nil {
		m.logger.Debug().
			Str("path", m.path).
			Time("last_pr_sync", cur.LastPRSync).
			Time("last_commit_sync", cur.LastCommitSync).
			Bool("bootstrapped", cur.Bootstrapped).
			Msg("Sync state loaded")
	}
	return cur, nil
}

// Inspect reads the raw state document, for diagnostics. Returns
// ErrStateNotFound when no state file exists yet.
func (m *Manager) Inspect() (*SyncState, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, m.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", m.path, err)
	}
	var st SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupted, m.path, err)
	}
	return &st, nil
}

// Save writes the state file for a finished run. last_sync is kept as the
// newer of the two cursors and the remembered URL list is capped.
func (m *Manager) Save(rec RunRecord) error {
	pr := rec.LastPRSync.UTC().Truncate(time.Second)
	commit := rec.LastCommitSync.UTC().Truncate(time.Second)

	urls := rec.AddedURLs
	if len(urls) > domain.MaxRememberedURLCount {
		urls = urls[:domain.MaxRememberedURLCount]
	}
	if urls == nil {
		urls = []string{}
	}

	st := SyncState{
		LastSync:       maxTime(pr, commit),
		LastPRSync:     pr,
		LastCommitSync: commit,
		LastRunAt:      time.Now().UTC().Truncate(time.Second),
		LastAddedURLs:  urls,
		OpenAI:         OpenAIInfo{Enabled: rec.OpenAIEnabled},
	}
	if rec.OpenAIEnabled {
		model := rec.OpenAIModel
		baseURL := rec.OpenAIBaseURL
		st.OpenAI.Model = &model
		st.OpenAI.BaseURL = &baseURL
	}

	if err := utils.WriteJSONAtomic(m.path, &st); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	if m.logger != nil {
		m.logger.Debug().
			Str("path", m.path).
			Time("last_pr_sync", pr).
			Time("last_commit_sync", commit).
			Int("added_urls", len(urls)).
			Msg("Sync state saved")
	}
	return nil
}

// parseStateTime parses an RFC 3339 timestamp, returning the zero time for
// empty or malformed values.
func parseStateTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
