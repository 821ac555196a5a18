package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	GitHub   GitHubConfig   `mapstructure:"github" yaml:"github"`
	OpenAI   OpenAIConfig   `mapstructure:"openai" yaml:"openai"`
	Fees     FeesConfig     `mapstructure:"fees" yaml:"fees"`
	Market   MarketConfig   `mapstructure:"market" yaml:"market"`
	Orders   OrdersConfig   `mapstructure:"orders" yaml:"orders"`
	Revenue  RevenueConfig  `mapstructure:"revenue" yaml:"revenue"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Lock     LockConfig     `mapstructure:"lock" yaml:"lock"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// SyncConfig contains changelog sync settings
type SyncConfig struct {
	Org               string        `mapstructure:"org" yaml:"org"`
	IndexPath         string        `mapstructure:"index_path" yaml:"index_path"`
	StatePath         string        `mapstructure:"state_path" yaml:"state_path"`
	TokenEnv          string        `mapstructure:"token_env" yaml:"token_env"`
	ExcludeRepos      []string      `mapstructure:"exclude_repos" yaml:"exclude_repos"`
	BootstrapDays     int           `mapstructure:"bootstrap_days" yaml:"bootstrap_days"`
	MaxItems          int           `mapstructure:"max_items" yaml:"max_items"`
	MaxNewPRs         int           `mapstructure:"max_new_prs" yaml:"max_new_prs"`
	MaxNewCommits     int           `mapstructure:"max_new_commits" yaml:"max_new_commits"`
	AuthorFilter      string        `mapstructure:"author_filter" yaml:"author_filter"`
	AllowListFailOpen bool          `mapstructure:"allow_list_fail_open" yaml:"allow_list_fail_open"`
	AllowListTTL      time.Duration `mapstructure:"allow_list_ttl" yaml:"allow_list_ttl"`
	IncludeCommits    bool          `mapstructure:"include_commits" yaml:"include_commits"`
}

// GitHubConfig contains GitHub API client settings
type GitHubConfig struct {
	APIRoot           string        `mapstructure:"api_root" yaml:"api_root"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PageSize          int           `mapstructure:"page_size" yaml:"page_size"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// OpenAIConfig contains LLM enrichment settings
type OpenAIConfig struct {
	APIKeyEnv   string        `mapstructure:"api_key_env" yaml:"api_key_env"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FeesConfig contains creator-fees snapshot settings
type FeesConfig struct {
	Addresses        []string `mapstructure:"addresses" yaml:"addresses"`
	OutputPath       string   `mapstructure:"output_path" yaml:"output_path"`
	FallbackSOLPrice float64  `mapstructure:"fallback_sol_price" yaml:"fallback_sol_price"`
}

// MarketConfig contains market data client settings (pump.fun, CoinGecko)
type MarketConfig struct {
	PumpFunBaseURL   string        `mapstructure:"pumpfun_base_url" yaml:"pumpfun_base_url"`
	CoinGeckoBaseURL string        `mapstructure:"coingecko_base_url" yaml:"coingecko_base_url"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries" yaml:"max_retries"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// OrdersConfig contains recent-orders snapshot settings
type OrdersConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	Limit      int    `mapstructure:"limit" yaml:"limit"`
	Table      string `mapstructure:"table" yaml:"table"`
}

// RevenueConfig contains revenue snapshot settings
type RevenueConfig struct {
	OutputPath string   `mapstructure:"output_path" yaml:"output_path"`
	Currency   string   `mapstructure:"currency" yaml:"currency"`
	UserID     string   `mapstructure:"user_id" yaml:"user_id"`
	PayWays    []string `mapstructure:"pay_ways" yaml:"pay_ways"`
	Table      string   `mapstructure:"table" yaml:"table"`
}

// DatabaseConfig contains Postgres connection settings
type DatabaseConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	User           string        `mapstructure:"user" yaml:"user"`
	Password       string        `mapstructure:"password" yaml:"password"`
	Name           string        `mapstructure:"name" yaml:"name"`
	SSLMode        string        `mapstructure:"sslmode" yaml:"sslmode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// LockConfig contains run-lock settings
type LockConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Author filter modes
const (
	AuthorFilterOrg  = "org"
	AuthorFilterNone = "none"
)

// Validate validates the configuration and clamps out-of-range values
func (c *Config) Validate() error {
	if c.Sync.Org == "" {
		c.Sync.Org = DefaultOrg
	}
	if c.Sync.BootstrapDays < 1 {
		c.Sync.BootstrapDays = DefaultBootstrapDays
	}
	if c.Sync.MaxItems < 1 {
		c.Sync.MaxItems = DefaultMaxItems
	}
	if c.Sync.MaxNewPRs < 0 {
		c.Sync.MaxNewPRs = DefaultMaxNewPRs
	}
	if c.Sync.MaxNewCommits < 0 {
		c.Sync.MaxNewCommits = DefaultMaxNewCommits
	}
	switch c.Sync.AuthorFilter {
	case AuthorFilterOrg, AuthorFilterNone:
	case "":
		c.Sync.AuthorFilter = DefaultAuthorFilter
	default:
		return fmt.Errorf("invalid sync.author_filter %q: must be %q or %q",
			c.Sync.AuthorFilter, AuthorFilterOrg, AuthorFilterNone)
	}
	if c.Sync.AllowListTTL <= 0 {
		c.Sync.AllowListTTL = DefaultAllowListTTL
	}

	if c.GitHub.APIRoot == "" {
		c.GitHub.APIRoot = DefaultGitHubAPIRoot
	}
	if c.GitHub.Timeout < time.Second {
		c.GitHub.Timeout = DefaultGitHubTimeout
	}
	if c.GitHub.PageSize < 1 || c.GitHub.PageSize > 100 {
		c.GitHub.PageSize = DefaultGitHubPageSize
	}
	if c.GitHub.RequestsPerSecond <= 0 {
		c.GitHub.RequestsPerSecond = DefaultGitHubRequestsPerSecond
	}
	if c.GitHub.Burst < 1 {
		c.GitHub.Burst = DefaultGitHubBurst
	}

	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultOpenAIModel
	}
	if c.OpenAI.MaxTokens < 1 {
		c.OpenAI.MaxTokens = DefaultOpenAIMaxTokens
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		c.OpenAI.Temperature = DefaultOpenAITemperature
	}
	if c.OpenAI.Timeout < time.Second {
		c.OpenAI.Timeout = DefaultOpenAITimeout
	}

	if len(c.Fees.Addresses) == 0 {
		c.Fees.Addresses = DefaultCreatorAddresses()
	}
	if c.Fees.FallbackSOLPrice <= 0 {
		c.Fees.FallbackSOLPrice = DefaultFallbackSOLPrice
	}

	if c.Market.PumpFunBaseURL == "" {
		c.Market.PumpFunBaseURL = DefaultPumpFunBaseURL
	}
	if c.Market.CoinGeckoBaseURL == "" {
		c.Market.CoinGeckoBaseURL = DefaultCoinGeckoBaseURL
	}
	if c.Market.UserAgent == "" {
		c.Market.UserAgent = DefaultMarketUserAgent
	}
	if c.Market.Timeout < time.Second {
		c.Market.Timeout = DefaultMarketTimeout
	}
	if c.Market.MaxRetries < 0 {
		c.Market.MaxRetries = DefaultMarketMaxRetries
	}
	if c.Market.CacheTTL < 0 {
		c.Market.CacheTTL = DefaultMarketCacheTTL
	}

	if c.Orders.Limit < 1 {
		c.Orders.Limit = DefaultOrdersLimit
	}
	if c.Orders.Table == "" {
		c.Orders.Table = DefaultOrdersTable
	}
	if err := validateTableName(c.Orders.Table); err != nil {
		return fmt.Errorf("invalid orders.table: %w", err)
	}

	if c.Revenue.Currency == "" {
		c.Revenue.Currency = DefaultRevenueCurrency
	}
	if c.Revenue.Table == "" {
		c.Revenue.Table = DefaultOrdersTable
	}
	if err := validateTableName(c.Revenue.Table); err != nil {
		return fmt.Errorf("invalid revenue.table: %w", err)
	}

	if c.Database.Host == "" {
		c.Database.Host = DefaultDatabaseHost
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		c.Database.Port = DefaultDatabasePort
	}
	if c.Database.User == "" {
		c.Database.User = DefaultDatabaseUser
	}
	if c.Database.Name == "" {
		c.Database.Name = DefaultDatabaseName
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDatabaseSSLMode
	}
	if c.Database.ConnectTimeout < time.Second {
		c.Database.ConnectTimeout = DefaultDatabaseConnectTimeout
	}

	return nil
}

// validateTableName rejects identifiers that cannot be safely interpolated
// into a query. Table names arrive from config, not user input, but they
// still end up in SQL text.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("empty table name")
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return fmt.Errorf("table name %q contains invalid character %q", name, r)
	}
	return nil
}

// ParseAddresses splits a comma-separated creator address list,
// dropping empty entries.
func ParseAddresses(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
