package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/config"
)

// ConfigValues holds form values that map to the Config struct.
// Numeric and duration fields are stored as strings for form editing;
// list fields hold comma-separated entries.
type ConfigValues struct {
	Org               string
	AuthorFilter      string
	IncludeCommits    bool
	BootstrapDays     string
	MaxItems          string
	MaxNewPRs         string
	MaxNewCommits     string
	ExcludeRepos      string
	IndexPath         string
	StatePath         string
	TokenEnv          string
	AllowListFailOpen bool
	AllowListTTL      string

	APIRoot           string
	GitHubTimeout     string
	PageSize          string
	RequestsPerSecond string
	Burst             string

	APIKeyEnv     string
	OpenAIBaseURL string
	Model         string
	MaxTokens     string
	Temperature   string
	OpenAITimeout string

	Addresses        string
	FeesOutput       string
	FallbackSOLPrice string

	PumpFunBaseURL   string
	CoinGeckoBaseURL string
	UserAgent        string
	MarketTimeout    string
	MaxRetries       string
	MarketCacheTTL   string

	OrdersLimit  string
	OrdersOutput string
	OrdersTable  string

	RevenueUserID   string
	RevenuePayWays  string
	RevenueCurrency string
	RevenueOutput   string
	RevenueTable    string

	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBConnectTimeout string

	CacheEnabled   bool
	CacheDirectory string
	LockEnabled    bool
	LockPath       string
	LogLevel       string
	LogFormat      string
}

// FromConfig converts a Config to ConfigValues for form editing
func FromConfig(cfg *config.Config) *ConfigValues {
	return &ConfigValues{
		Org:               cfg.Sync.Org,
		AuthorFilter:      cfg.Sync.AuthorFilter,
		IncludeCommits:    cfg.Sync.IncludeCommits,
		BootstrapDays:     strconv.Itoa(cfg.Sync.BootstrapDays),
		MaxItems:          strconv.Itoa(cfg.Sync.MaxItems),
		MaxNewPRs:         strconv.Itoa(cfg.Sync.MaxNewPRs),
		MaxNewCommits:     strconv.Itoa(cfg.Sync.MaxNewCommits),
		ExcludeRepos:      joinList(cfg.Sync.ExcludeRepos),
		IndexPath:         cfg.Sync.IndexPath,
		StatePath:         cfg.Sync.StatePath,
		TokenEnv:          cfg.Sync.TokenEnv,
		AllowListFailOpen: cfg.Sync.AllowListFailOpen,
		AllowListTTL:      formatDuration(cfg.Sync.AllowListTTL),

		APIRoot:           cfg.GitHub.APIRoot,
		GitHubTimeout:     formatDuration(cfg.GitHub.Timeout),
		PageSize:          strconv.Itoa(cfg.GitHub.PageSize),
		RequestsPerSecond: strconv.FormatFloat(cfg.GitHub.RequestsPerSecond, 'f', 2, 64),
		Burst:             strconv.Itoa(cfg.GitHub.Burst),

		APIKeyEnv:     cfg.OpenAI.APIKeyEnv,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.Model,
		MaxTokens:     strconv.Itoa(cfg.OpenAI.MaxTokens),
		Temperature:   strconv.FormatFloat(cfg.OpenAI.Temperature, 'f', 2, 64),
		OpenAITimeout: formatDuration(cfg.OpenAI.Timeout),

		Addresses:        joinList(cfg.Fees.Addresses),
		FeesOutput:       cfg.Fees.OutputPath,
		FallbackSOLPrice: strconv.FormatFloat(cfg.Fees.FallbackSOLPrice, 'f', 2, 64),

		PumpFunBaseURL:   cfg.Market.PumpFunBaseURL,
		CoinGeckoBaseURL: cfg.Market.CoinGeckoBaseURL,
		UserAgent:        cfg.Market.UserAgent,
		MarketTimeout:    formatDuration(cfg.Market.Timeout),
		MaxRetries:       strconv.Itoa(cfg.Market.MaxRetries),
		MarketCacheTTL:   formatDuration(cfg.Market.CacheTTL),

		OrdersLimit:  strconv.Itoa(cfg.Orders.Limit),
		OrdersOutput: cfg.Orders.OutputPath,
		OrdersTable:  cfg.Orders.Table,

		RevenueUserID:   cfg.Revenue.UserID,
		RevenuePayWays:  joinList(cfg.Revenue.PayWays),
		RevenueCurrency: cfg.Revenue.Currency,
		RevenueOutput:   cfg.Revenue.OutputPath,
		RevenueTable:    cfg.Revenue.Table,

		DBHost:           cfg.Database.Host,
		DBPort:           strconv.Itoa(cfg.Database.Port),
		DBUser:           cfg.Database.User,
		DBPassword:       cfg.Database.Password,
		DBName:           cfg.Database.Name,
		DBSSLMode:        cfg.Database.SSLMode,
		DBConnectTimeout: formatDuration(cfg.Database.ConnectTimeout),

		CacheEnabled:   cfg.Cache.Enabled,
		CacheDirectory: cfg.Cache.Directory,
		LockEnabled:    cfg.Lock.Enabled,
		LockPath:       cfg.Lock.Path,
		LogLevel:       cfg.Logging.Level,
		LogFormat:      cfg.Logging.Format,
	}
}

// ToConfig converts ConfigValues back into a Config, normalizing through
// Validate. Blank numeric and duration fields fall back to defaults.
func (v *ConfigValues) ToConfig() (*config.Config, error) {
	bootstrapDays, err := parseIntOrDefault(v.BootstrapDays, config.DefaultBootstrapDays)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.bootstrap_days: %w", err)
	}

	maxItems, err := parseIntOrDefault(v.MaxItems, config.DefaultMaxItems)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.max_items: %w", err)
	}

	maxNewPRs, err := parseIntOrDefault(v.MaxNewPRs, config.DefaultMaxNewPRs)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.max_new_prs: %w", err)
	}

	maxNewCommits, err := parseIntOrDefault(v.MaxNewCommits, config.DefaultMaxNewCommits)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.max_new_commits: %w", err)
	}

	allowListTTL, err := parseDurationOrDefault(v.AllowListTTL, config.DefaultAllowListTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid sync.allow_list_ttl: %w", err)
	}

	githubTimeout, err := parseDurationOrDefault(v.GitHubTimeout, config.DefaultGitHubTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid github.timeout: %w", err)
	}

	pageSize, err := parseIntOrDefault(v.PageSize, config.DefaultGitHubPageSize)
	if err != nil {
		return nil, fmt.Errorf("invalid github.page_size: %w", err)
	}

	requestsPerSecond, err := parseFloatOrDefault(v.RequestsPerSecond, config.DefaultGitHubRequestsPerSecond)
	if err != nil {
		return nil, fmt.Errorf("invalid github.requests_per_second: %w", err)
	}

	burst, err := parseIntOrDefault(v.Burst, config.DefaultGitHubBurst)
	if err != nil {
		return nil, fmt.Errorf("invalid github.burst: %w", err)
	}

	maxTokens, err := parseIntOrDefault(v.MaxTokens, config.DefaultOpenAIMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("invalid openai.max_tokens: %w", err)
	}

	temperature, err := parseFloatOrDefault(v.Temperature, config.DefaultOpenAITemperature)
	if err != nil {
		return nil, fmt.Errorf("invalid openai.temperature: %w", err)
	}

	openAITimeout, err := parseDurationOrDefault(v.OpenAITimeout, config.DefaultOpenAITimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid openai.timeout: %w", err)
	}

	fallbackSOLPrice, err := parseFloatOrDefault(v.FallbackSOLPrice, config.DefaultFallbackSOLPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid fees.fallback_sol_price: %w", err)
	}

	marketTimeout, err := parseDurationOrDefault(v.MarketTimeout, config.DefaultMarketTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid market.timeout: %w", err)
	}

	maxRetries, err := parseIntOrDefault(v.MaxRetries, config.DefaultMarketMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("invalid market.max_retries: %w", err)
	}

	marketCacheTTL, err := parseDurationOrDefault(v.MarketCacheTTL, config.DefaultMarketCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid market.cache_ttl: %w", err)
	}

	ordersLimit, err := parseIntOrDefault(v.OrdersLimit, config.DefaultOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid orders.limit: %w", err)
	}

	dbPort, err := parseIntOrDefault(v.DBPort, config.DefaultDatabasePort)
	if err != nil {
		return nil, fmt.Errorf("invalid database.port: %w", err)
	}

	dbConnectTimeout, err := parseDurationOrDefault(v.DBConnectTimeout, config.DefaultDatabaseConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid database.connect_timeout: %w", err)
	}

	logLevel := strings.TrimSpace(v.LogLevel)
	if err := ValidateLogLevel(logLevel); err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = config.DefaultLogLevel
	}

	logFormat := strings.TrimSpace(v.LogFormat)
	if err := ValidateLogFormat(logFormat); err != nil {
		return nil, err
	}
	if logFormat == "" {
		logFormat = config.DefaultLogFormat
	}

	cfg := &config.Config{
		Sync: config.SyncConfig{
			Org:               strings.TrimSpace(v.Org),
			IndexPath:         strings.TrimSpace(v.IndexPath),
			StatePath:         strings.TrimSpace(v.StatePath),
			TokenEnv:          strings.TrimSpace(v.TokenEnv),
			ExcludeRepos:      splitList(v.ExcludeRepos),
			BootstrapDays:     bootstrapDays,
			MaxItems:          maxItems,
			MaxNewPRs:         maxNewPRs,
			MaxNewCommits:     maxNewCommits,
			AuthorFilter:      v.AuthorFilter,
			AllowListFailOpen: v.AllowListFailOpen,
			AllowListTTL:      allowListTTL,
			IncludeCommits:    v.IncludeCommits,
		},
		GitHub: config.GitHubConfig{
			APIRoot:           strings.TrimSpace(v.APIRoot),
			Timeout:           githubTimeout,
			PageSize:          pageSize,
			RequestsPerSecond: requestsPerSecond,
			Burst:             burst,
		},
		OpenAI: config.OpenAIConfig{
			APIKeyEnv:   strings.TrimSpace(v.APIKeyEnv),
			BaseURL:     strings.TrimSpace(v.OpenAIBaseURL),
			Model:       strings.TrimSpace(v.Model),
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Timeout:     openAITimeout,
		},
		Fees: config.FeesConfig{
			Addresses:        splitList(v.Addresses),
			OutputPath:       strings.TrimSpace(v.FeesOutput),
			FallbackSOLPrice: fallbackSOLPrice,
		},
		Market: config.MarketConfig{
			PumpFunBaseURL:   strings.TrimSpace(v.PumpFunBaseURL),
			CoinGeckoBaseURL: strings.TrimSpace(v.CoinGeckoBaseURL),
			UserAgent:        strings.TrimSpace(v.UserAgent),
			Timeout:          marketTimeout,
			MaxRetries:       maxRetries,
			CacheTTL:         marketCacheTTL,
		},
		Orders: config.OrdersConfig{
			OutputPath: strings.TrimSpace(v.OrdersOutput),
			Limit:      ordersLimit,
			Table:      strings.TrimSpace(v.OrdersTable),
		},
		Revenue: config.RevenueConfig{
			OutputPath: strings.TrimSpace(v.RevenueOutput),
			Currency:   strings.TrimSpace(v.RevenueCurrency),
			UserID:     strings.TrimSpace(v.RevenueUserID),
			PayWays:    splitList(v.RevenuePayWays),
			Table:      strings.TrimSpace(v.RevenueTable),
		},
		Database: config.DatabaseConfig{
			Host:           strings.TrimSpace(v.DBHost),
			Port:           dbPort,
			User:           strings.TrimSpace(v.DBUser),
			Password:       v.DBPassword,
			Name:           strings.TrimSpace(v.DBName),
			SSLMode:        strings.TrimSpace(v.DBSSLMode),
			ConnectTimeout: dbConnectTimeout,
		},
		Cache: config.CacheConfig{
			Enabled:   v.CacheEnabled,
			Directory: strings.TrimSpace(v.CacheDirectory),
		},
		Lock: config.LockConfig{
			Enabled: v.LockEnabled,
			Path:    strings.TrimSpace(v.LockPath),
		},
		Logging: config.LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func parseDurationOrDefault(s string, defaultVal time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(s)
}

func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func parseFloatOrDefault(s string, defaultVal float64) (float64, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(s, 64)
}

func joinList(xs []string) string {
	return strings.Join(xs, ", ")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
