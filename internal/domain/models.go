package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Daily updates store
// =============================================================================

// Index and day-file schema references kept stable for dashboard consumers.
const (
	IndexSchemaRef = "./index.schema.json"
	DaySchemaRef   = "./day.schema.json"

	DefaultIndexTitle     = "Daily Updates"
	DefaultInitialOpen    = 3
	DefaultPageSizeDays   = 20
	MaxRememberedURLCount = 50
)

var dayKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDayKey reports whether s is a YYYY-MM-DD day key.
func IsDayKey(s string) bool {
	return dayKeyRe.MatchString(strings.TrimSpace(s))
}

// DayKey returns the UTC calendar day an event belongs to.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// UpdateItem is a single changelog entry shown on the dashboard.
// URL is the identity of an item: it is unique across the whole store.
type UpdateItem struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary,omitempty"`
}

// DayBucket is the on-disk document holding one day of items, newest first.
type DayBucket struct {
	Schema string       `json:"$schema,omitempty"`
	Date   string       `json:"date"`
	Items  []UpdateItem `json:"items"`
}

// Normalize validates the bucket shape and drops items without a title or
// URL. Day names the source file for error messages.
func (b *DayBucket) Normalize(day string) error {
	if b.Items == nil {
		return NewValidationError(day+".json", `must include an array field "items"`)
	}
	kept := b.Items[:0]
	for _, it := range b.Items {
		if strings.TrimSpace(it.URL) == "" || strings.TrimSpace(it.Title) == "" {
			continue
		}
		kept = append(kept, it)
	}
	b.Items = kept
	return nil
}

// UpdatesIndex is the on-disk index document listing all known days.
type UpdatesIndex struct {
	Schema          string   `json:"$schema,omitempty"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	InitialOpenDays int      `json:"initial_open_days"`
	PageSizeDays    int      `json:"page_size_days"`
	Days            []string `json:"days"`
}

// NewUpdatesIndex returns an empty index with default presentation fields.
func NewUpdatesIndex() *UpdatesIndex {
	return &UpdatesIndex{
		Schema:          IndexSchemaRef,
		Title:           DefaultIndexTitle,
		Subtitle:        "",
		InitialOpenDays: DefaultInitialOpen,
		PageSizeDays:    DefaultPageSizeDays,
		Days:            []string{},
	}
}

// Normalize validates required fields and canonicalizes the day list:
// non-day entries are dropped, duplicates removed, order is newest first.
func (ix *UpdatesIndex) Normalize() error {
	if strings.TrimSpace(ix.Title) == "" {
		return NewValidationError("title", "must be a non-empty string")
	}
	ix.Days = SortedDayKeys(ix.Days)
	if ix.InitialOpenDays <= 0 {
		ix.InitialOpenDays = DefaultInitialOpen
	}
	if ix.PageSizeDays <= 0 {
		ix.PageSizeDays = DefaultPageSizeDays
	}
	if ix.Schema == "" {
		ix.Schema = IndexSchemaRef
	}
	return nil
}

// SortedDayKeys filters values down to valid unique day keys sorted
// descending.
func SortedDayKeys(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || !IsDayKey(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// =============================================================================
// Sync candidates
// =============================================================================

// CandidateKind distinguishes the two upstream item streams.
type CandidateKind string

const (
	// KindPullRequest is a merged pull request
	KindPullRequest CandidateKind = "pr"
	// KindCommit is a pushed commit
	KindCommit CandidateKind = "commit"
)

// Candidate is one changelog-worthy upstream event before filtering,
// enrichment and merging.
type Candidate struct {
	Kind       CandidateKind
	Repo       string
	Number     int    // pull request number, zero for commits
	SHA        string // commit hash, empty for pull requests
	Title      string // PR title or commit subject line
	Body       string // PR body, empty for commits
	URL        string
	Author     string // login, may be empty
	OccurredAt time.Time
}

// Ref returns a short human reference like "inference#42" or
// "inference@0ab12cd" for log lines.
func (c *Candidate) Ref() string {
	if c.Kind == KindCommit {
		return c.Repo + "@" + ShortSHA(c.SHA)
	}
	return c.Repo + "#" + strconv.Itoa(c.Number)
}

// Day returns the UTC day key the candidate files under.
func (c *Candidate) Day() string {
	return DayKey(c.OccurredAt)
}

// ShortSHA abbreviates a commit hash to seven characters.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Enrichment is the release-notes metadata produced for a pull request.
type Enrichment struct {
	Title   string
	Summary string
	Tags    []string
}

// ChangedFile summarizes one file of a pull request diff.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// FilesDigest is the bounded diff context handed to the summarizer.
type FilesDigest struct {
	Files        []ChangedFile `json:"files"`
	PatchExcerpt string        `json:"patch_excerpt"`
	FilesCount   int           `json:"files_count"`
}

// =============================================================================
// Snapshots
// =============================================================================

// FeesSnapshot is the creator-fees dashboard document.
type FeesSnapshot struct {
	AsOf             time.Time `json:"as_of"`
	CreatorAddresses []string  `json:"creator_addresses"`
	SolPriceUSD      float64   `json:"sol_price_usd"`
	Last1dSOL        float64   `json:"last_1d_sol"`
	Last7dSOL        float64   `json:"last_7d_sol"`
	Last30dSOL       float64   `json:"last_30d_sol"`
	TotalSOL         float64   `json:"total_sol"`
	Last1dUSD        float64   `json:"last_1d_usd"`
	Last7dUSD        float64   `json:"last_7d_usd"`
	Last30dUSD       float64   `json:"last_30d_usd"`
	TotalUSD         float64   `json:"total_usd"`
	Trades1d         int       `json:"trades_1d"`
	Trades7d         int       `json:"trades_7d"`
	Trades30d        int       `json:"trades_30d"`
}

// OrderEntry is a single masked order row.
type OrderEntry struct {
	ID          string     `json:"id"`
	CreatedAt   *time.Time `json:"created_at"`
	PayWay      string     `json:"pay_way"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
}

// OrdersSnapshot is the recent-orders dashboard document.
type OrdersSnapshot struct {
	AsOf   time.Time    `json:"as_of"`
	Total  int          `json:"total"`
	Orders []OrderEntry `json:"orders"`
}

// RevenueSnapshot is the revenue dashboard document.
type RevenueSnapshot struct {
	AsOf     time.Time `json:"as_of"`
	Currency string    `json:"currency"`
	Today    float64   `json:"today"`
	Last7d   float64   `json:"last_7d"`
	Last30d  float64   `json:"last_30d"`
	Last90d  float64   `json:"last_90d"`
}

// =============================================================================
// LLM Types
// =============================================================================

// MessageRole represents the role in a conversation
type MessageRole string

const (
	// RoleSystem represents a system message
	RoleSystem MessageRole = "system"
	// RoleUser represents a user message
	RoleUser MessageRole = "user"
	// RoleAssistant represents an assistant message
	RoleAssistant MessageRole = "assistant"
)

// LLMMessage represents a message in the conversation
type LLMMessage struct {
	Role    MessageRole
	Content string
}

// LLMRequest represents a completion request
type LLMRequest struct {
	Messages    []LLMMessage
	MaxTokens   int      // 0 = use provider default
	Temperature *float64 // nil = use provider default
	JSONObject  bool     // ask for a json_object response format
}

// LLMResponse represents the LLM response
type LLMResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        LLMUsage
}

// LLMUsage contains token usage statistics
type LLMUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
