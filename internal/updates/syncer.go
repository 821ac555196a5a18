package updates

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/github"
	"github.com/acedatacloud/dashsnap/internal/llm"
	"github.com/acedatacloud/dashsnap/internal/state"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// Enricher produces release-notes metadata for a pull request.
type Enricher interface {
	Summarize(ctx context.Context, req llm.SummarizeRequest) (*domain.Enrichment, error)
}

// Syncer runs one incremental changelog sync: poll merged PRs and commits,
// filter and enrich them, merge into the day-bucket store and advance the
// cursors.
type Syncer struct {
	cfg      config.SyncConfig
	openAI   config.OpenAIConfig
	client   *github.Client
	allow    *github.AllowListSource
	enricher Enricher
	store    *Store
	state    *state.Manager
	dryRun   bool
	logger   *utils.Logger
	out      io.Writer
}

// SyncerOptions wires a Syncer.
type SyncerOptions struct {
	Config config.SyncConfig

	// OpenAI is echoed into the saved state so consumers can see which
	// enrichment endpoint produced the run.
	OpenAI config.OpenAIConfig

	Client *github.Client

	// AllowList is required when Config.AuthorFilter is "org".
	AllowList *github.AllowListSource

	// Enricher is nil when enrichment is disabled.
	Enricher Enricher

	Store *Store
	State *state.Manager

	// DryRun reports what would change without writing anything.
	DryRun bool

	Logger *utils.Logger

	// Out receives the one-line run summary. Defaults to stdout.
	Out io.Writer
}

// NewSyncer creates a Syncer.
func NewSyncer(opts SyncerOptions) *Syncer {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Syncer{
		cfg:      opts.Config,
		openAI:   opts.OpenAI,
		client:   opts.Client,
		allow:    opts.AllowList,
		enricher: opts.Enricher,
		store:    opts.Store,
		state:    opts.State,
		dryRun:   opts.DryRun,
		logger:   opts.Logger,
		out:      out,
	}
}

// Result summarizes a sync run.
type Result struct {
	AddedURLs      []string
	PRsAdded       int
	CommitsAdded   int
	DryRun         bool
	LastPRSync     time.Time
	LastCommitSync time.Time
}

// Run executes the sync. Upstream errors abort before anything is written;
// the store and state are only persisted for a fully processed run.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	if s.logger != nil {
		s.logger.Info().
			Str("org", s.cfg.Org).
			Int("max_items", s.cfg.MaxItems).
			Int("max_new_prs", s.cfg.MaxNewPRs).
			Int("max_new_commits", s.cfg.MaxNewCommits).
			Bool("include_commits", s.cfg.IncludeCommits).
			Str("author_filter", s.cfg.AuthorFilter).
			Bool("dry_run", s.dryRun).
			Msg("Starting changelog sync")
	}

	var allow *github.AllowList
	if s.cfg.AuthorFilter == config.AuthorFilterOrg {
		if s.allow == nil {
			return nil, fmt.Errorf("%w: author filter %q needs an allow list source",
				domain.ErrInvalidConfig, s.cfg.AuthorFilter)
		}
		list, err := s.allow.Resolve(ctx, s.cfg.Org)
		if err != nil {
			return nil, err
		}
		allow = list
	}

	if err := s.store.Open(); err != nil {
		return nil, err
	}
	cursors, err := s.state.Load()
	if err != nil {
		return nil, err
	}

	prSince := sinceDate(cursors.LastPRSync)
	commitSince := sinceDate(cursors.LastCommitSync)
	if s.logger != nil {
		s.logger.Debug().
			Time("last_pr_sync", cursors.LastPRSync).
			Time("last_commit_sync", cursors.LastCommitSync).
			Str("pr_since", prSince).
			Str("commit_since", commitSince).
			Int("existing_urls", s.store.URLCount()).
			Msg("Sync window resolved")
	}

	prs, err := s.client.SearchMergedPRs(ctx, s.cfg.Org, prSince, s.cfg.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("search merged pull requests: %w", err)
	}
	var commits []github.SearchCommitItem
	if s.cfg.IncludeCommits {
		commits, err = s.client.SearchCommits(ctx, s.cfg.Org, commitSince, s.cfg.MaxItems)
		if err != nil {
			return nil, fmt.Errorf("search commits: %w", err)
		}
	}
	if s.logger != nil {
		s.logger.Debug().
			Int("pr_results", len(prs)).
			Int("commit_results", len(commits)).
			Msg("Search complete")
	}

	run := &syncRun{
		syncer:    s,
		allow:     allow,
		cursors:   cursors,
		excluded:  excludedSet(s.cfg.ExcludeRepos),
		maxPR:     cursors.LastPRSync,
		maxCommit: cursors.LastCommitSync,
	}
	if err := run.collectPRs(ctx, prs); err != nil {
		return nil, err
	}
	run.collectCommits(commits)

	added := s.store.Merge(run.adds)

	res := &Result{
		AddedURLs:      added,
		PRsAdded:       run.prsAdded,
		CommitsAdded:   run.commitsAdded,
		DryRun:         s.dryRun,
		LastPRSync:     cursors.LastPRSync,
		LastCommitSync: cursors.LastCommitSync,
	}

	if s.dryRun {
		if len(run.adds) > 0 {
			fmt.Fprintf(s.out, "Would add %d items (prs=%d, commits=%d). last_pr_sync stays %s last_commit_sync stays %s\n",
				len(added), run.prsAdded, run.commitsAdded,
				cursors.LastPRSync.Format(time.RFC3339), cursors.LastCommitSync.Format(time.RFC3339))
		} else {
			fmt.Fprintln(s.out, "No new items found (PRs/commits).")
		}
		return res, nil
	}

	if err := s.store.Persist(); err != nil {
		return nil, err
	}

	rec := state.RunRecord{
		LastPRSync:     cursors.LastPRSync,
		LastCommitSync: cursors.LastCommitSync,
		OpenAIEnabled:  s.enricher != nil,
	}
	if rec.OpenAIEnabled {
		rec.OpenAIModel = s.openAI.Model
		rec.OpenAIBaseURL = s.openAI.BaseURL
	}

	if len(run.adds) == 0 {
		if err := s.state.Save(rec); err != nil {
			return nil, err
		}
		fmt.Fprintln(s.out, "No new items found (PRs/commits).")
		return res, nil
	}

	rec.LastPRSync = run.maxPR
	rec.LastCommitSync = run.maxCommit
	rec.AddedURLs = added
	if err := s.state.Save(rec); err != nil {
		return nil, err
	}

	res.LastPRSync = run.maxPR
	res.LastCommitSync = run.maxCommit
	fmt.Fprintf(s.out, "Added %d items (prs=%d, commits=%d). Updated last_pr_sync=%s last_commit_sync=%s\n",
		len(added), run.prsAdded, run.commitsAdded,
		run.maxPR.Format(time.RFC3339), run.maxCommit.Format(time.RFC3339))
	return res, nil
}

// sinceDate formats the search window start. The search API only has date
// granularity, so back off one extra day.
func sinceDate(cursor time.Time) string {
	return cursor.Add(-24 * time.Hour).UTC().Format("2006-01-02")
}

func excludedSet(repos []string) map[string]struct{} {
	set := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			set[r] = struct{}{}
		}
	}
	return set
}

// syncRun accumulates candidate state across the two collection passes.
type syncRun struct {
	syncer       *Syncer
	allow        *github.AllowList
	cursors      state.Cursors
	excluded     map[string]struct{}
	adds         []Addition
	prsAdded     int
	commitsAdded int
	maxPR        time.Time
	maxCommit    time.Time
}

func (r *syncRun) isExcluded(repo string) bool {
	_, ok := r.excluded[strings.ToLower(repo)]
	return ok
}

func (r *syncRun) collectPRs(ctx context.Context, hits []github.SearchIssueItem) error {
	if len(hits) == 0 {
		return nil
	}

	bar := utils.NewProgressBar(len(hits), "Scanning PRs")
	defer func() { _ = bar.Finish() }()

	for _, hit := range hits {
		done, err := r.considerPR(ctx, hit)
		_ = bar.Add(1)
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	return nil
}

// considerPR vets one search hit, fetching the pull detail only once the
// cheap checks pass. Returns done=true when the per-run cap is reached.
func (r *syncRun) considerPR(ctx context.Context, hit github.SearchIssueItem) (bool, error) {
	s := r.syncer

	url := strings.TrimSpace(hit.HTMLURL)
	if url == "" || s.store.HasURL(url) {
		return false, nil
	}
	owner, repo, number, ok := github.ParsePullURL(url)
	if !ok {
		return false, nil
	}
	if !strings.EqualFold(owner, s.cfg.Org) {
		return false, nil
	}
	ref := fmt.Sprintf("%s#%d", repo, number)
	if r.isExcluded(repo) {
		r.skip("pr", ref, "repo_excluded", "", url)
		return false, nil
	}
	if r.prsAdded >= s.cfg.MaxNewPRs {
		return true, nil
	}

	pr, err := s.client.GetPullRequest(ctx, s.cfg.Org, repo, number)
	if err != nil {
		return false, fmt.Errorf("fetch %s/%s: %w", s.cfg.Org, ref, err)
	}
	if pr.MergedAt == nil {
		return false, nil
	}
	mergedAt := pr.MergedAt.UTC()
	if !mergedAt.After(r.cursors.LastPRSync) {
		return false, nil
	}

	author := pr.AuthorLogin()
	if r.allow != nil {
		if author == "" {
			r.skip("pr", ref, "no_author_login", "", url)
			return false, nil
		}
		if !r.allow.Contains(author) {
			r.skip("pr", ref, "author_not_allowed", author, url)
			return false, nil
		}
	}

	title := strings.TrimSpace(pr.Title)
	if title == "" {
		return false, nil
	}

	cand := &domain.Candidate{
		Kind:       domain.KindPullRequest,
		Repo:       repo,
		Number:     number,
		Title:      title,
		Body:       strings.TrimSpace(pr.Body),
		URL:        url,
		Author:     author,
		OccurredAt: mergedAt,
	}
	enr, err := r.enrich(ctx, cand)
	if err != nil {
		return false, err
	}

	r.adds = append(r.adds, Addition{At: mergedAt, Item: buildItem(cand, enr)})
	r.prsAdded++
	if mergedAt.After(r.maxPR) {
		r.maxPR = mergedAt
	}
	if s.logger != nil {
		s.logger.Debug().
			Str("ref", cand.Ref()).
			Str("author", author).
			Time("merged_at", mergedAt).
			Str("url", url).
			Msg("Adding pull request")
	}
	return false, nil
}

// enrich asks the summarizer for release notes. The files digest comes from
// the GitHub API and stays fatal on failure like the other upstream calls;
// a failed completion just leaves the item as built.
func (r *syncRun) enrich(ctx context.Context, cand *domain.Candidate) (*domain.Enrichment, error) {
	s := r.syncer
	if s.enricher == nil {
		return nil, nil
	}

	digest, err := s.client.FilesDigest(ctx, s.cfg.Org, cand.Repo, cand.Number)
	if err != nil {
		return nil, fmt.Errorf("files digest for %s/%s: %w", s.cfg.Org, cand.Ref(), err)
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("ref", cand.Ref()).
			Int("files", digest.FilesCount).
			Msg("Summarizing pull request")
	}
	enr, err := s.enricher.Summarize(ctx, llm.SummarizeRequest{
		Org:    s.cfg.Org,
		Repo:   cand.Repo,
		Number: cand.Number,
		Title:  cand.Title,
		Body:   cand.Body,
		Digest: digest,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn().
				Err(err).
				Str("ref", cand.Ref()).
				Msg("Summarization failed, keeping plain item")
		}
		return nil, nil
	}
	return enr, nil
}

func (r *syncRun) collectCommits(hits []github.SearchCommitItem) {
	s := r.syncer
	for _, hit := range hits {
		if r.commitsAdded >= s.cfg.MaxNewCommits {
			break
		}

		url := strings.TrimSpace(hit.HTMLURL)
		if url == "" || s.store.HasURL(url) {
			continue
		}
		if hit.Repository == nil {
			continue
		}
		owner, repo, found := strings.Cut(strings.TrimSpace(hit.Repository.FullName), "/")
		if !found {
			continue
		}
		if !strings.EqualFold(owner, s.cfg.Org) {
			continue
		}
		sha := strings.TrimSpace(hit.SHA)
		ref := repo + "@" + domain.ShortSHA(sha)
		if r.isExcluded(repo) {
			r.skip("commit", ref, "repo_excluded", "", url)
			continue
		}
		if sha == "" {
			continue
		}

		date := hit.Commit.Committer.Date
		if date == nil {
			continue
		}
		committedAt := date.UTC()
		if !committedAt.After(r.cursors.LastCommitSync) {
			continue
		}
		if hit.IsMergeCommit() {
			r.skip("commit", ref, "merge_commit", "", url)
			continue
		}

		author := hit.AuthorLogin()
		if r.allow != nil {
			if author == "" {
				r.skip("commit", ref, "no_author_login", "", url)
				continue
			}
			if !r.allow.Contains(author) {
				r.skip("commit", ref, "author_not_allowed", author, url)
				continue
			}
		}

		subject := hit.Subject()
		if subject == "" {
			continue
		}

		cand := &domain.Candidate{
			Kind:       domain.KindCommit,
			Repo:       repo,
			SHA:        sha,
			Title:      subject,
			URL:        url,
			Author:     author,
			OccurredAt: committedAt,
		}
		r.adds = append(r.adds, Addition{At: committedAt, Item: buildItem(cand, nil)})
		r.commitsAdded++
		if committedAt.After(r.maxCommit) {
			r.maxCommit = committedAt
		}
		if s.logger != nil {
			s.logger.Debug().
				Str("ref", cand.Ref()).
				Str("author", author).
				Time("committed_at", committedAt).
				Str("url", url).
				Msg("Adding commit")
		}
	}
}

func (r *syncRun) skip(kind, ref, reason, author, url string) {
	if r.syncer.logger == nil {
		return
	}
	ev := r.syncer.logger.Debug().
		Str("kind", kind).
		Str("ref", ref).
		Str("reason", reason)
	if author != "" {
		ev = ev.Str("author", author)
	}
	ev.Str("url", url).Msg("Skipping candidate")
}

// buildItem renders a candidate into its changelog entry. Enrichment
// overrides the title and attaches a summary and extra tags.
func buildItem(c *domain.Candidate, enr *domain.Enrichment) domain.UpdateItem {
	kindTag := "pr"
	if c.Kind == domain.KindCommit {
		kindTag = "commit"
	}
	item := domain.UpdateItem{
		Title: fmt.Sprintf("%s: %s", c.Ref(), c.Title),
		URL:   c.URL,
		Tags:  []string{"github", kindTag, c.Repo},
	}
	if enr == nil {
		return item
	}
	if enr.Title != "" {
		item.Title = enr.Title
	}
	if enr.Summary != "" {
		item.Summary = enr.Summary
	}
	if len(enr.Tags) > 0 {
		item.Tags = mergeTags(item.Tags, enr.Tags)
	}
	return item
}

// mergeTags appends extras keeping first-occurrence order without
// duplicates.
func mergeTags(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, t := range base {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range extra {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
