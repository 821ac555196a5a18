package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

// Service names used in error messages and log lines.
const (
	servicePumpFun   = "pumpfun"
	serviceCoinGecko = "coingecko"
)

const defaultUserAgent = "Mozilla/5.0 dashsnap/1.0"

// Client fetches creator-fee series from pump.fun and spot prices from
// CoinGecko. Successful responses are cached briefly when a cache is
// configured, so back-to-back manifest jobs do not refetch the same
// series.
type Client struct {
	httpClient *http.Client
	pumpFunURL string
	geckoURL   string
	userAgent  string
	retrier    *Retrier
	cache      domain.Cache
	cacheTTL   time.Duration
	logger     *utils.Logger
}

// Options configures a Client
type Options struct {
	PumpFunBaseURL   string
	CoinGeckoBaseURL string
	UserAgent        string
	Timeout          time.Duration

	// MaxRetries sizes the default backoff; ignored when Retrier is set.
	MaxRetries int
	Retrier    *Retrier

	// Cache is optional; when nil every call hits the upstream.
	Cache    domain.Cache
	CacheTTL time.Duration

	Logger *utils.Logger
}

// NewClient creates a market-data client
func NewClient(opts Options) *Client {
	pumpFun := utils.NormalizeBaseURL(opts.PumpFunBaseURL)
	if pumpFun == "" {
		pumpFun = "https://swap-api.pump.fun"
	}
	gecko := utils.NormalizeBaseURL(opts.CoinGeckoBaseURL)
	if gecko == "" {
		gecko = "https://api.coingecko.com"
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retrier := opts.Retrier
	if retrier == nil {
		maxRetries := opts.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 3
		}
		retrier = NewRetrier(RetrierOptions{MaxRetries: maxRetries})
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		pumpFunURL: pumpFun,
		geckoURL:   gecko,
		userAgent:  userAgent,
		retrier:    retrier,
		cache:      opts.Cache,
		cacheTTL:   cacheTTL,
		logger:     opts.Logger,
	}
}

// fetchJSON returns the response body for url, consulting the cache first
// and retrying transient upstream failures.
func (c *Client) fetchJSON(ctx context.Context, service, url, cacheKey string) ([]byte, error) {
	if c.cache != nil && cacheKey != "" {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			if c.logger != nil {
				c.logger.Debug().Str("service", service).Str("url", url).Msg("Market data served from cache")
			}
			return data, nil
		}
	}

	var body []byte
	err := c.retrier.Retry(ctx, func() error {
		data, err := c.get(ctx, service, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil && c.logger != nil {
			c.logger.Warn().Err(err).Str("service", service).Msg("Failed to cache market data")
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, service, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug().Str("service", service).Str("url", url).Msg("Market data request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewAPIError(service, url, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if len(detail) > 300 {
			detail = detail[:300]
		}
		var wrapped error = fmt.Errorf("%s", detail)
		if resp.StatusCode == http.StatusTooManyRequests {
			wrapped = fmt.Errorf("%w: %s", domain.ErrRateLimited, detail)
		}
		return nil, domain.NewAPIError(service, url, resp.StatusCode, wrapped)
	}
	return body, nil
}
