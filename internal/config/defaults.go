package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Sync defaults
	DefaultOrg           = "AceDataCloud"
	DefaultIndexPath     = "config/daily-updates/index.json"
	DefaultStatePath     = "config/pr-sync-state.json"
	DefaultTokenEnv      = "REPO_PAT"
	DefaultBootstrapDays = 14
	DefaultMaxItems      = 200
	DefaultMaxNewPRs     = 30
	DefaultMaxNewCommits = 30
	DefaultAuthorFilter  = AuthorFilterOrg
	DefaultAllowListTTL  = 6 * time.Hour

	// GitHub client defaults
	DefaultGitHubAPIRoot           = "https://api.github.com"
	DefaultGitHubTimeout           = 30 * time.Second
	DefaultGitHubPageSize          = 100
	DefaultGitHubRequestsPerSecond = 1.0
	DefaultGitHubBurst             = 2

	// OpenAI defaults
	DefaultOpenAIKeyEnv      = "ACEDATACLOUD_OPENAI_KEY"
	DefaultOpenAIBaseURL     = "https://api.acedata.cloud"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultOpenAIMaxTokens   = 260
	DefaultOpenAITemperature = 0.2
	DefaultOpenAITimeout     = 60 * time.Second

	// Creator fees defaults
	DefaultFeesOutputPath   = "config/creator_fees.json"
	DefaultFallbackSOLPrice = 200.0

	// Market client defaults
	DefaultPumpFunBaseURL   = "https://swap-api.pump.fun"
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com"
	DefaultMarketUserAgent  = "Mozilla/5.0 dashsnap/1.0"
	DefaultMarketTimeout    = 30 * time.Second
	DefaultMarketMaxRetries = 3
	DefaultMarketCacheTTL   = 5 * time.Minute

	// Orders defaults
	DefaultOrdersOutputPath = "config/recent_orders.json"
	DefaultOrdersLimit      = 20
	DefaultOrdersTable      = "app_order"

	// Revenue defaults
	DefaultRevenueOutputPath = "config/revenue.json"
	DefaultRevenueCurrency   = "USD"

	// Database defaults
	DefaultDatabaseHost           = "localhost"
	DefaultDatabasePort           = 5432
	DefaultDatabaseUser           = "postgres"
	DefaultDatabaseName           = "acedatacloud_platform"
	DefaultDatabaseSSLMode        = "disable"
	DefaultDatabaseConnectTimeout = 10 * time.Second

	// Cache defaults
	DefaultCacheEnabled = true

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultCreatorAddresses returns the project wallets tracked when no
// addresses are configured.
func DefaultCreatorAddresses() []string {
	return []string{
		"6hVavSsYRaNk86UbNZa6V4JfSwqkRGk9HgYZqKNsdU1w",
		"CfP4JnzXicK9b8wcXHZyYKdgUpxRWRMc5bb93eh3PktG",
	}
}

// DefaultExcludedRepos returns repositories never recorded in the changelog.
func DefaultExcludedRepos() []string {
	return []string{"Roadmap"}
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dashsnap"
	}
	return filepath.Join(home, ".dashsnap")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "dashsnap.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Org:            DefaultOrg,
			IndexPath:      DefaultIndexPath,
			StatePath:      DefaultStatePath,
			TokenEnv:       DefaultTokenEnv,
			ExcludeRepos:   DefaultExcludedRepos(),
			BootstrapDays:  DefaultBootstrapDays,
			MaxItems:       DefaultMaxItems,
			MaxNewPRs:      DefaultMaxNewPRs,
			MaxNewCommits:  DefaultMaxNewCommits,
			AuthorFilter:   DefaultAuthorFilter,
			AllowListTTL:   DefaultAllowListTTL,
			IncludeCommits: true,
		},
		GitHub: GitHubConfig{
			APIRoot:           DefaultGitHubAPIRoot,
			Timeout:           DefaultGitHubTimeout,
			PageSize:          DefaultGitHubPageSize,
			RequestsPerSecond: DefaultGitHubRequestsPerSecond,
			Burst:             DefaultGitHubBurst,
		},
		OpenAI: OpenAIConfig{
			APIKeyEnv:   DefaultOpenAIKeyEnv,
			BaseURL:     DefaultOpenAIBaseURL,
			Model:       DefaultOpenAIModel,
			MaxTokens:   DefaultOpenAIMaxTokens,
			Temperature: DefaultOpenAITemperature,
			Timeout:     DefaultOpenAITimeout,
		},
		Fees: FeesConfig{
			Addresses:        DefaultCreatorAddresses(),
			OutputPath:       DefaultFeesOutputPath,
			FallbackSOLPrice: DefaultFallbackSOLPrice,
		},
		Market: MarketConfig{
			PumpFunBaseURL:   DefaultPumpFunBaseURL,
			CoinGeckoBaseURL: DefaultCoinGeckoBaseURL,
			UserAgent:        DefaultMarketUserAgent,
			Timeout:          DefaultMarketTimeout,
			MaxRetries:       DefaultMarketMaxRetries,
			CacheTTL:         DefaultMarketCacheTTL,
		},
		Orders: OrdersConfig{
			OutputPath: DefaultOrdersOutputPath,
			Limit:      DefaultOrdersLimit,
			Table:      DefaultOrdersTable,
		},
		Revenue: RevenueConfig{
			OutputPath: DefaultRevenueOutputPath,
			Currency:   DefaultRevenueCurrency,
			Table:      DefaultOrdersTable,
		},
		Database: DatabaseConfig{
			Host:           DefaultDatabaseHost,
			Port:           DefaultDatabasePort,
			User:           DefaultDatabaseUser,
			Password:       "",
			Name:           DefaultDatabaseName,
			SSLMode:        DefaultDatabaseSSLMode,
			ConnectTimeout: DefaultDatabaseConnectTimeout,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			Directory: CacheDir(),
		},
		Lock: LockConfig{
			Enabled: true,
			Path:    "",
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
