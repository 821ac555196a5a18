package state

import "time"

// SyncState is the persisted form of a completed sync run. Timestamps are
// written as RFC 3339 UTC strings so the file stays readable and compatible
// with earlier deployments of the sync job.
type SyncState struct {
	// LastSync is the newer of the two per-kind cursors. Kept for
	// deployments that predate the split cursors.
	LastSync       time.Time  `json:"last_sync"`
	LastPRSync     time.Time  `json:"last_pr_sync"`
	LastCommitSync time.Time  `json:"last_commit_sync"`
	LastRunAt      time.Time  `json:"last_run_at"`
	LastAddedURLs  []string   `json:"last_added_urls"`
	OpenAI         OpenAIInfo `json:"openai"`
}

// OpenAIInfo records whether enrichment ran and against which endpoint.
// Model and BaseURL are null when enrichment was disabled.
type OpenAIInfo struct {
	Enabled bool    `json:"enabled"`
	Model   *string `json:"model"`
	BaseURL *string `json:"base_url"`
}

// Cursors are the incremental sync positions resolved from the state file.
type Cursors struct {
	LastPRSync     time.Time
	LastCommitSync time.Time

	// Bootstrapped is true when no usable cursor existed and both values
	// were derived from the bootstrap window.
	Bootstrapped bool
}

// RunRecord describes a finished run for persisting.
type RunRecord struct {
	LastPRSync     time.Time
	LastCommitSync time.Time
	AddedURLs      []string
	OpenAIEnabled  bool
	OpenAIModel    string
	OpenAIBaseURL  string
}

// syncStateDoc is the tolerant read-side view of the state file. Timestamps
// are kept as raw strings so a single unparseable value degrades to the
// bootstrap fallback instead of failing the whole load.
type syncStateDoc struct {
	LastSync       string `json:"last_sync"`
	LastPRSync     string `json:"last_pr_sync"`
	LastCommitSync string `json:"last_commit_sync"`
	LastRunAt      string `json:"last_run_at"`
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
