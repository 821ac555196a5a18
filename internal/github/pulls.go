package github

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/domain"
)

// Digest limits. The digest feeds a small-context summarization call, so
// the diff is truncated at three levels: file count, per-file patch, and
// overall excerpt.
const (
	maxDigestFiles     = 60
	maxPatchCharsFile  = 900
	maxPatchCharsTotal = 12000

	truncationMark = "\n…(truncated)…"
)

// PullRequest is the detail payload for a pull request
type PullRequest struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	HTMLURL  string     `json:"html_url"`
	MergedAt *time.Time `json:"merged_at"`
	User     *Actor     `json:"user"`
}

// PullFile is one changed file of a pull request
type PullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch"`
}

// AuthorLogin returns the PR author's login, or empty when unknown
func (pr *PullRequest) AuthorLogin() string {
	if pr.User == nil {
		return ""
	}
	return pr.User.Login
}

// GetPullRequest fetches the detail record for one pull request
func (c *Client) GetPullRequest(ctx context.Context, org, repo string, number int) (*PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.apiRoot, org, repo, number)

	var pr PullRequest
	if err := c.getJSON(ctx, url, acceptJSON, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListPullFiles returns up to maxDigestFiles changed files of a pull request
func (c *Client) ListPullFiles(ctx context.Context, org, repo string, number int) ([]PullFile, error) {
	files := make([]PullFile, 0, c.pageSize)
	page := 1

	for len(files) < maxDigestFiles {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiRoot, org, repo, number, c.pageSize, page)

		var payload []PullFile
		if err := c.getJSON(ctx, url, acceptJSON, &payload); err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			break
		}

		for _, f := range payload {
			files = append(files, f)
			if len(files) >= maxDigestFiles {
				break
			}
		}
		if len(payload) < c.pageSize {
			break
		}
		page++
	}

	return files, nil
}

// FilesDigest fetches the changed files of a pull request and condenses
// them into the bounded digest handed to the summarizer.
func (c *Client) FilesDigest(ctx context.Context, org, repo string, number int) (*domain.FilesDigest, error) {
	files, err := c.ListPullFiles(ctx, org, repo, number)
	if err != nil {
		return nil, err
	}
	return BuildFilesDigest(files), nil
}

// BuildFilesDigest condenses changed files into per-file summaries and a
// truncated patch excerpt.
func BuildFilesDigest(files []PullFile) *domain.FilesDigest {
	simplified := make([]domain.ChangedFile, 0, len(files))
	var patchParts []string

	for _, f := range files {
		simplified = append(simplified, domain.ChangedFile{
			Filename:  f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Changes:   f.Changes,
		})

		snippet := strings.TrimSpace(f.Patch)
		if snippet == "" {
			continue
		}
		if len(snippet) > maxPatchCharsFile {
			snippet = snippet[:maxPatchCharsFile] + truncationMark
		}
		patchParts = append(patchParts,
			fmt.Sprintf("--- %s (%s, +%d/-%d)\n%s", f.Filename, f.Status, f.Additions, f.Deletions, snippet))
	}

	patchText := strings.Join(patchParts, "\n\n")
	if len(patchText) > maxPatchCharsTotal {
		patchText = patchText[:maxPatchCharsTotal] + truncationMark
	}

	return &domain.FilesDigest{
		Files:        simplified,
		PatchExcerpt: patchText,
		FilesCount:   len(simplified),
	}
}

var pullURLRe = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/pull/(\d+)(?:/.*)?$`)

// ParsePullURL extracts owner, repo, and number from a pull request page
// URL. Returns ok=false for anything that is not a pull URL.
func ParsePullURL(htmlURL string) (owner, repo string, number int, ok bool) {
	m := pullURLRe.FindStringSubmatch(strings.TrimSpace(htmlURL))
	if m == nil {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}
	return m[1], m[2], n, true
}
