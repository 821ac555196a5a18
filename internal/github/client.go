package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// Accept headers for the REST API. Commit search still requires the
// cloak-preview media type.
const (
	acceptJSON         = "application/vnd.github+json"
	acceptCloakPreview = "application/vnd.github.cloak-preview+json"
)

const defaultUserAgent = "AceDataCloud-Dashsnap"

// Client is a GitHub REST API client. Requests are paced with a rate
// limiter to stay inside search API quotas and are attempted exactly
// once; there is no retry layer.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiRoot    string
	token      string
	userAgent  string
	pageSize   int
	logger     *utils.Logger
}

// Options configures a Client
type Options struct {
	APIRoot           string
	Token             string
	UserAgent         string
	Timeout           time.Duration
	PageSize          int
	RequestsPerSecond float64
	Burst             int
	Logger            *utils.Logger
}

// ResolveToken reads the API token from envName, falling back to the
// conventional GITHUB_TOKEN and GH_TOKEN variables.
func ResolveToken(envName string) string {
	for _, name := range []string{envName, "GITHUB_TOKEN", "GH_TOKEN"} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// NewClient creates a GitHub API client. An empty token produces an
// unauthenticated client, which works with reduced quotas.
func NewClient(opts Options) *Client {
	apiRoot := utils.NormalizeBaseURL(opts.APIRoot)
	if apiRoot == "" {
		apiRoot = "https://api.github.com"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	pageSize := opts.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 100
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1.0
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		apiRoot:    apiRoot,
		token:      opts.Token,
		userAgent:  userAgent,
		pageSize:   pageSize,
		logger:     opts.Logger,
	}
}

// Authenticated reports whether the client carries a token
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Ping verifies connectivity and credentials against the rate-limit
// endpoint, which does not consume API quota.
func (c *Client) Ping(ctx context.Context) error {
	var payload struct {
		Resources map[string]json.RawMessage `json:"resources"`
	}
	return c.getJSON(ctx, c.apiRoot+"/rate_limit", acceptJSON, &payload)
}

// getJSON performs a single GET against the API and decodes the response
// into out.
func (c *Client) getJSON(ctx context.Context, url, accept string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.logger != nil {
		c.logger.Debug().Str("url", url).Msg("GitHub API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewAPIError("github", url, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.statusError(url, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", url, err)
	}
	return nil
}

// statusError maps a non-200 response onto a typed error. 401 is
// classified as a credential problem, 429 and quota 403s as rate limits.
func (c *Client) statusError(url string, status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 300 {
		detail = detail[:300]
	}

	var wrapped error = fmt.Errorf("%s", detail)
	switch {
	case status == http.StatusUnauthorized:
		wrapped = fmt.Errorf("%w: %s", domain.ErrMissingCredentials, detail)
	case status == http.StatusTooManyRequests:
		wrapped = fmt.Errorf("%w: %s", domain.ErrRateLimited, detail)
	case status == http.StatusForbidden && strings.Contains(strings.ToLower(detail), "rate limit"):
		wrapped = fmt.Errorf("%w: %s", domain.ErrRateLimited, detail)
	}

	return domain.NewAPIError("github", url, status, wrapped)
}

// getList pages through a collection endpoint that returns a bare JSON
// array, collecting up to maxItems entries.
func (c *Client) getList(ctx context.Context, url string, maxItems int) ([]json.RawMessage, error) {
	items := make([]json.RawMessage, 0, c.pageSize)
	page := 1

	for len(items) < maxItems {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		pageURL := fmt.Sprintf("%s%sper_page=%d&page=%d", url, sep, c.pageSize, page)

		var payload []json.RawMessage
		if err := c.getJSON(ctx, pageURL, acceptJSON, &payload); err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			break
		}

		for _, it := range payload {
			items = append(items, it)
			if len(items) >= maxItems {
				break
			}
		}
		if len(payload) < c.pageSize {
			break
		}
		page++
	}

	return items, nil
}
