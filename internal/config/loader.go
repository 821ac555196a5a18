package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	// Use global viper instance to get CLI flag bindings
	v := viper.GetViper()

	cfg, err := loadFrom(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithViper loads configuration and returns the viper instance
// This is useful for merging CLI flags later
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()

	cfg, err := loadFrom(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func loadFrom(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("dashsnap")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables (DASHSNAP_*)
	v.SetEnvPrefix("DASHSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy environment names from the script era keep working.
	// DASHSNAP_* names take precedence through AutomaticEnv.
	bindLegacyEnv(v)

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate and apply defaults for invalid values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv maps pre-consolidation environment variable names onto
// config keys. Multiple names per key are consulted in order.
func bindLegacyEnv(v *viper.Viper) {
	legacy := map[string][]string{
		"openai.base_url":   {"OPENAI_BASE_URL"},
		"openai.model":      {"OPENAI_MODEL"},
		"fees.addresses":    {"CREATOR_ADDRESSES", "CREATOR_ADDRESS"},
		"fees.output_path":  {"OUTPUT_PATH"},
		"database.host":     {"PGSQL_HOST"},
		"database.port":     {"PGSQL_PORT"},
		"database.user":     {"PGSQL_USER"},
		"database.password": {"PGSQL_PASSWORD"},
		"database.name":     {"PGSQL_DATABASE", "PGSQL_DATABASE_PLATFORM"},
	}
	for key, names := range legacy {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Sync defaults
	v.SetDefault("sync.org", DefaultOrg)
	v.SetDefault("sync.index_path", DefaultIndexPath)
	v.SetDefault("sync.state_path", DefaultStatePath)
	v.SetDefault("sync.token_env", DefaultTokenEnv)
	v.SetDefault("sync.exclude_repos", DefaultExcludedRepos())
	v.SetDefault("sync.bootstrap_days", DefaultBootstrapDays)
	v.SetDefault("sync.max_items", DefaultMaxItems)
	v.SetDefault("sync.max_new_prs", DefaultMaxNewPRs)
	v.SetDefault("sync.max_new_commits", DefaultMaxNewCommits)
	v.SetDefault("sync.author_filter", DefaultAuthorFilter)
	v.SetDefault("sync.allow_list_fail_open", false)
	v.SetDefault("sync.allow_list_ttl", DefaultAllowListTTL)
	v.SetDefault("sync.include_commits", true)

	// GitHub client defaults
	v.SetDefault("github.api_root", DefaultGitHubAPIRoot)
	v.SetDefault("github.timeout", DefaultGitHubTimeout)
	v.SetDefault("github.page_size", DefaultGitHubPageSize)
	v.SetDefault("github.requests_per_second", DefaultGitHubRequestsPerSecond)
	v.SetDefault("github.burst", DefaultGitHubBurst)

	// OpenAI defaults
	v.SetDefault("openai.api_key_env", DefaultOpenAIKeyEnv)
	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("openai.model", DefaultOpenAIModel)
	v.SetDefault("openai.max_tokens", DefaultOpenAIMaxTokens)
	v.SetDefault("openai.temperature", DefaultOpenAITemperature)
	v.SetDefault("openai.timeout", DefaultOpenAITimeout)

	// Creator fees defaults
	v.SetDefault("fees.addresses", DefaultCreatorAddresses())
	v.SetDefault("fees.output_path", DefaultFeesOutputPath)
	v.SetDefault("fees.fallback_sol_price", DefaultFallbackSOLPrice)

	// Market client defaults
	v.SetDefault("market.pumpfun_base_url", DefaultPumpFunBaseURL)
	v.SetDefault("market.coingecko_base_url", DefaultCoinGeckoBaseURL)
	v.SetDefault("market.user_agent", DefaultMarketUserAgent)
	v.SetDefault("market.timeout", DefaultMarketTimeout)
	v.SetDefault("market.max_retries", DefaultMarketMaxRetries)
	v.SetDefault("market.cache_ttl", DefaultMarketCacheTTL)

	// Orders defaults
	v.SetDefault("orders.output_path", DefaultOrdersOutputPath)
	v.SetDefault("orders.limit", DefaultOrdersLimit)
	v.SetDefault("orders.table", DefaultOrdersTable)

	// Revenue defaults
	v.SetDefault("revenue.output_path", DefaultRevenueOutputPath)
	v.SetDefault("revenue.currency", DefaultRevenueCurrency)
	v.SetDefault("revenue.user_id", "")
	v.SetDefault("revenue.pay_ways", []string{})
	v.SetDefault("revenue.table", DefaultOrdersTable)

	// Database defaults
	v.SetDefault("database.host", DefaultDatabaseHost)
	v.SetDefault("database.port", DefaultDatabasePort)
	v.SetDefault("database.user", DefaultDatabaseUser)
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", DefaultDatabaseName)
	v.SetDefault("database.sslmode", DefaultDatabaseSSLMode)
	v.SetDefault("database.connect_timeout", DefaultDatabaseConnectTimeout)

	// Cache defaults
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.directory", CacheDir())

	// Lock defaults
	v.SetDefault("lock.enabled", true)
	v.SetDefault("lock.path", "")

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	dir := ConfigDir()
	return os.MkdirAll(dir, 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir() error {
	dir := CacheDir()
	return os.MkdirAll(dir, 0755)
}
