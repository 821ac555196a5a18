package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SearchIssueItem is a merged-PR hit from the issue search API. The sync
// only needs the canonical page URL; everything else comes from the pull
// detail fetch.
type SearchIssueItem struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
}

type issueSearchResponse struct {
	TotalCount        int               `json:"total_count"`
	IncompleteResults bool              `json:"incomplete_results"`
	Items             []SearchIssueItem `json:"items"`
}

// Actor is a GitHub account reference
type Actor struct {
	Login string `json:"login"`
}

// RepoRef identifies the repository a search hit belongs to
type RepoRef struct {
	FullName string `json:"full_name"`
}

// CommitRef is a parent commit reference
type CommitRef struct {
	SHA string `json:"sha"`
}

// CommitDetail holds the nested commit object of a search hit
type CommitDetail struct {
	Message   string `json:"message"`
	Committer struct {
		Name  string     `json:"name"`
		Email string     `json:"email"`
		Date  *time.Time `json:"date"`
	} `json:"committer"`
}

// SearchCommitItem is a commit hit from the commit search API
type SearchCommitItem struct {
	SHA        string       `json:"sha"`
	HTMLURL    string       `json:"html_url"`
	Commit     CommitDetail `json:"commit"`
	Author     *Actor       `json:"author"`
	Committer  *Actor       `json:"committer"`
	Repository *RepoRef     `json:"repository"`
	Parents    []CommitRef  `json:"parents"`
}

type commitSearchResponse struct {
	TotalCount        int                `json:"total_count"`
	IncompleteResults bool               `json:"incomplete_results"`
	Items             []SearchCommitItem `json:"items"`
}

// SearchMergedPRs returns merged pull requests in the organization whose
// merge date is on or after sinceDate (YYYY-MM-DD), newest activity first,
// up to maxItems.
func (c *Client) SearchMergedPRs(ctx context.Context, org, sinceDate string, maxItems int) ([]SearchIssueItem, error) {
	query := fmt.Sprintf("org:%s is:pr is:merged merged:>=%s", org, sinceDate)

	items := make([]SearchIssueItem, 0, c.pageSize)
	page := 1

	for len(items) < maxItems {
		params := url.Values{}
		params.Set("q", query)
		params.Set("sort", "updated")
		params.Set("order", "desc")
		params.Set("per_page", fmt.Sprintf("%d", c.pageSize))
		params.Set("page", fmt.Sprintf("%d", page))

		searchURL := fmt.Sprintf("%s/search/issues?%s", c.apiRoot, params.Encode())

		var payload issueSearchResponse
		if err := c.getJSON(ctx, searchURL, acceptJSON, &payload); err != nil {
			return nil, err
		}
		if len(payload.Items) == 0 {
			break
		}

		items = append(items, payload.Items...)
		if len(payload.Items) < c.pageSize {
			break
		}
		page++
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// SearchCommits returns commits in the organization whose committer date is
// on or after sinceDate (YYYY-MM-DD), newest first, up to maxItems.
func (c *Client) SearchCommits(ctx context.Context, org, sinceDate string, maxItems int) ([]SearchCommitItem, error) {
	query := fmt.Sprintf("org:%s committer-date:>=%s", org, sinceDate)

	items := make([]SearchCommitItem, 0, c.pageSize)
	page := 1

	for len(items) < maxItems {
		params := url.Values{}
		params.Set("q", query)
		params.Set("sort", "committer-date")
		params.Set("order", "desc")
		params.Set("per_page", fmt.Sprintf("%d", c.pageSize))
		params.Set("page", fmt.Sprintf("%d", page))

		searchURL := fmt.Sprintf("%s/search/commits?%s", c.apiRoot, params.Encode())

		var payload commitSearchResponse
		if err := c.getJSON(ctx, searchURL, acceptCloakPreview, &payload); err != nil {
			return nil, err
		}
		if len(payload.Items) == 0 {
			break
		}

		items = append(items, payload.Items...)
		if len(payload.Items) < c.pageSize {
			break
		}
		page++
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// IsMergeCommit reports whether a commit search hit is a merge commit,
// either by parent count or by subject convention.
func (it *SearchCommitItem) IsMergeCommit() bool {
	if len(it.Parents) > 1 {
		return true
	}
	subject := firstLine(it.Commit.Message)
	return strings.HasPrefix(subject, "Merge pull request #") || strings.HasPrefix(subject, "Merge branch ")
}

// Subject returns the first line of the commit message
func (it *SearchCommitItem) Subject() string {
	return firstLine(it.Commit.Message)
}

// AuthorLogin returns the author login, falling back to the committer login
func (it *SearchCommitItem) AuthorLogin() string {
	if it.Author != nil && it.Author.Login != "" {
		return it.Author.Login
	}
	if it.Committer != nil {
		return it.Committer.Login
	}
	return ""
}

// firstLine returns the first line of s with surrounding whitespace removed
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
