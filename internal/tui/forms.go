package tui

import (
	"github.com/charmbracelet/huh"
)

func CreateSyncForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("org").
				Title("Organization").
				Description("GitHub organization whose merged PRs feed the changelog").
				Value(&values.Org).
				Placeholder("AceDataCloud"),

			huh.NewSelect[string]().
				Key("author_filter").
				Title("Author Filter").
				Description("Which authors are recorded").
				Options(
					huh.NewOption("Org members only", "org"),
					huh.NewOption("Everyone", "none"),
				).
				Value(&values.AuthorFilter),

			huh.NewConfirm().
				Key("include_commits").
				Title("Include Commits").
				Description("Record workflow-relevant direct commits alongside merged PRs").
				Value(&values.IncludeCommits),

			huh.NewInput().
				Key("bootstrap_days").
				Title("Bootstrap Days").
				Description("Days of history fetched on first run (1-90)").
				Value(&values.BootstrapDays).
				Placeholder("14").
				Validate(ValidateIntRange(1, 90)),

			huh.NewInput().
				Key("max_items").
				Title("Max Search Results").
				Description("Search results fetched per run (1-1000)").
				Value(&values.MaxItems).
				Placeholder("200").
				Validate(ValidateIntRange(1, 1000)),

			huh.NewInput().
				Key("max_new_prs").
				Title("Max New PRs").
				Description("New merged PRs ingested per run (0-500)").
				Value(&values.MaxNewPRs).
				Placeholder("30").
				Validate(ValidateIntRange(0, 500)),

			huh.NewInput().
				Key("max_new_commits").
				Title("Max New Commits").
				Description("New commits ingested per run (0-500)").
				Value(&values.MaxNewCommits).
				Placeholder("30").
				Validate(ValidateIntRange(0, 500)),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("index_path").
				Title("Index Path").
				Description("Daily updates index JSON").
				Value(&values.IndexPath).
				Placeholder("config/daily-updates/index.json"),

			huh.NewInput().
				Key("state_path").
				Title("State Path").
				Description("Sync cursor state JSON").
				Value(&values.StatePath).
				Placeholder("config/pr-sync-state.json"),

			huh.NewInput().
				Key("token_env").
				Title("Token Env Var").
				Description("Environment variable holding the GitHub token").
				Value(&values.TokenEnv).
				Placeholder("REPO_PAT").
				Validate(ValidateRequired),

			huh.NewInput().
				Key("exclude_repos").
				Title("Excluded Repos").
				Description("Comma-separated repositories never recorded").
				Value(&values.ExcludeRepos).
				Placeholder("Roadmap"),

			huh.NewConfirm().
				Key("allow_list_fail_open").
				Title("Allow List Fail Open").
				Description("Record authors when the org member lookup fails").
				Value(&values.AllowListFailOpen),

			huh.NewInput().
				Key("allow_list_ttl").
				Title("Allow List TTL").
				Description("How long cached org membership stays fresh").
				Value(&values.AllowListTTL).
				Placeholder("6h").
				Validate(ValidateDuration),
		),
	).WithTheme(GetTheme())
}

func CreateGitHubForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("api_root").
				Title("API Root").
				Description("GitHub API base URL").
				Value(&values.APIRoot).
				Placeholder("https://api.github.com"),

			huh.NewInput().
				Key("timeout").
				Title("Request Timeout").
				Description("HTTP request timeout (e.g., 30s, 1m)").
				Value(&values.GitHubTimeout).
				Placeholder("30s").
				Validate(ValidateDuration),

			huh.NewInput().
				Key("page_size").
				Title("Page Size").
				Description("Results per page (1-100)").
				Value(&values.PageSize).
				Placeholder("100").
				Validate(ValidateIntRange(1, 100)),

			huh.NewInput().
				Key("requests_per_second").
				Title("Requests Per Second").
				Description("Client-side rate limit").
				Value(&values.RequestsPerSecond).
				Placeholder("1.00").
				Validate(ValidateFloatRange(0.1, 50)),

			huh.NewInput().
				Key("burst").
				Title("Burst").
				Description("Rate limiter burst size").
				Value(&values.Burst).
				Placeholder("2").
				Validate(ValidatePositiveInt),
		),
	).WithTheme(GetTheme())
}

func CreateOpenAIForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("api_key_env").
				Title("API Key Env Var").
				Description("Environment variable holding the API key").
				Value(&values.APIKeyEnv).
				Placeholder("ACEDATACLOUD_OPENAI_KEY").
				Validate(ValidateRequired),

			huh.NewInput().
				Key("base_url").
				Title("Base URL").
				Description("OpenAI-compatible endpoint").
				Value(&values.OpenAIBaseURL).
				Placeholder("https://api.acedata.cloud"),

			huh.NewInput().
				Key("model").
				Title("Model").
				Description("Model used for changelog summaries").
				Value(&values.Model).
				Placeholder("gpt-4o-mini"),

			huh.NewInput().
				Key("max_tokens").
				Title("Max Tokens").
				Description("Maximum tokens per summary").
				Value(&values.MaxTokens).
				Placeholder("260").
				Validate(ValidatePositiveInt),

			huh.NewInput().
				Key("temperature").
				Title("Temperature").
				Description("Sampling temperature (0.0-2.0)").
				Value(&values.Temperature).
				Placeholder("0.20").
				Validate(ValidateFloatRange(0, 2)),

			huh.NewInput().
				Key("timeout").
				Title("Request Timeout").
				Description("Timeout for enrichment requests").
				Value(&values.OpenAITimeout).
				Placeholder("1m").
				Validate(ValidateDuration),
		),
	).WithTheme(GetTheme())
}

func CreateFeesForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("addresses").
				Title("Creator Addresses").
				Description("Comma-separated pump.fun creator wallets").
				Value(&values.Addresses),

			huh.NewInput().
				Key("output_path").
				Title("Output Path").
				Description("Snapshot JSON destination").
				Value(&values.FeesOutput).
				Placeholder("config/creator_fees.json"),

			huh.NewInput().
				Key("fallback_sol_price").
				Title("Fallback SOL Price").
				Description("USD price used when CoinGecko is unreachable").
				Value(&values.FallbackSOLPrice).
				Placeholder("200.00").
				Validate(ValidateFloatRange(0.01, 100000)),
		),
	).WithTheme(GetTheme())
}

func CreateMarketForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("pumpfun_base_url").
				Title("pump.fun Base URL").
				Value(&values.PumpFunBaseURL).
				Placeholder("https://swap-api.pump.fun"),

			huh.NewInput().
				Key("coingecko_base_url").
				Title("CoinGecko Base URL").
				Value(&values.CoinGeckoBaseURL).
				Placeholder("https://api.coingecko.com"),

			huh.NewInput().
				Key("user_agent").
				Title("User Agent").
				Description("Sent with market data requests").
				Value(&values.UserAgent),

			huh.NewInput().
				Key("timeout").
				Title("Request Timeout").
				Value(&values.MarketTimeout).
				Placeholder("30s").
				Validate(ValidateDuration),

			huh.NewInput().
				Key("max_retries").
				Title("Max Retries").
				Description("Retries per failed request (0-10)").
				Value(&values.MaxRetries).
				Placeholder("3").
				Validate(ValidateIntRange(0, 10)),

			huh.NewInput().
				Key("cache_ttl").
				Title("Cache TTL").
				Description("How long market responses stay cached").
				Value(&values.MarketCacheTTL).
				Placeholder("5m").
				Validate(ValidateDuration),
		),
	).WithTheme(GetTheme())
}

func CreateOrdersForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("limit").
				Title("Limit").
				Description("Orders included in the snapshot (1-500)").
				Value(&values.OrdersLimit).
				Placeholder("20").
				Validate(ValidateIntRange(1, 500)),

			huh.NewInput().
				Key("output_path").
				Title("Output Path").
				Description("Snapshot JSON destination").
				Value(&values.OrdersOutput).
				Placeholder("config/recent_orders.json"),

			huh.NewInput().
				Key("table").
				Title("Table").
				Description("Orders table name").
				Value(&values.OrdersTable).
				Placeholder("app_order"),
		),
	).WithTheme(GetTheme())
}

func CreateRevenueForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("user_id").
				Title("User ID Filter").
				Description("Restrict the rollup to one user (empty for all)").
				Value(&values.RevenueUserID),

			huh.NewInput().
				Key("pay_ways").
				Title("Pay Ways").
				Description("Comma-separated payment channels (empty for all)").
				Value(&values.RevenuePayWays),

			huh.NewInput().
				Key("currency").
				Title("Currency").
				Value(&values.RevenueCurrency).
				Placeholder("USD"),

			huh.NewInput().
				Key("output_path").
				Title("Output Path").
				Description("Snapshot JSON destination").
				Value(&values.RevenueOutput).
				Placeholder("config/revenue.json"),

			huh.NewInput().
				Key("table").
				Title("Table").
				Description("Orders table name").
				Value(&values.RevenueTable).
				Placeholder("app_order"),
		),
	).WithTheme(GetTheme())
}

func CreateDatabaseForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("host").
				Title("Host").
				Value(&values.DBHost).
				Placeholder("localhost"),

			huh.NewInput().
				Key("port").
				Title("Port").
				Value(&values.DBPort).
				Placeholder("5432").
				Validate(ValidateIntRange(1, 65535)),

			huh.NewInput().
				Key("user").
				Title("User").
				Value(&values.DBUser).
				Placeholder("postgres"),

			huh.NewInput().
				Key("password").
				Title("Password").
				Value(&values.DBPassword).
				EchoMode(huh.EchoModePassword),

			huh.NewInput().
				Key("name").
				Title("Database").
				Value(&values.DBName).
				Placeholder("acedatacloud_platform"),

			huh.NewSelect[string]().
				Key("sslmode").
				Title("SSL Mode").
				Options(
					huh.NewOption("disable", "disable"),
					huh.NewOption("allow", "allow"),
					huh.NewOption("prefer", "prefer"),
					huh.NewOption("require", "require"),
					huh.NewOption("verify-ca", "verify-ca"),
					huh.NewOption("verify-full", "verify-full"),
				).
				Value(&values.DBSSLMode),

			huh.NewInput().
				Key("connect_timeout").
				Title("Connect Timeout").
				Value(&values.DBConnectTimeout).
				Placeholder("10s").
				Validate(ValidateDuration),
		),
	).WithTheme(GetTheme())
}

func CreateRuntimeForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("cache_enabled").
				Title("Enable Cache").
				Description("Cache allow-list and market lookups in Badger").
				Value(&values.CacheEnabled),

			huh.NewInput().
				Key("cache_directory").
				Title("Cache Directory").
				Value(&values.CacheDirectory).
				Placeholder("~/.dashsnap/cache"),

			huh.NewConfirm().
				Key("lock_enabled").
				Title("Enable Run Lock").
				Description("Serialize runs with a lock file").
				Value(&values.LockEnabled),

			huh.NewInput().
				Key("lock_path").
				Title("Lock Path").
				Description("Lock file location (empty derives from the state path)").
				Value(&values.LockPath),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(
					huh.NewOption("Trace", "trace"),
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&values.LogLevel),

			huh.NewSelect[string]().
				Key("log_format").
				Title("Log Format").
				Options(
					huh.NewOption("Pretty (human-readable)", "pretty"),
					huh.NewOption("JSON (structured)", "json"),
				).
				Value(&values.LogFormat),
		),
	).WithTheme(GetTheme())
}

func GetFormForCategory(category string, values *ConfigValues) *huh.Form {
	switch category {
	case "sync":
		return CreateSyncForm(values)
	case "github":
		return CreateGitHubForm(values)
	case "openai":
		return CreateOpenAIForm(values)
	case "fees":
		return CreateFeesForm(values)
	case "market":
		return CreateMarketForm(values)
	case "orders":
		return CreateOrdersForm(values)
	case "revenue":
		return CreateRevenueForm(values)
	case "database":
		return CreateDatabaseForm(values)
	case "runtime":
		return CreateRuntimeForm(values)
	default:
		return nil
	}
}
