package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/acedatacloud/dashsnap/internal/app"
	"github.com/acedatacloud/dashsnap/internal/cache"
	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/github"
	"github.com/acedatacloud/dashsnap/internal/llm"
	"github.com/acedatacloud/dashsnap/internal/manifest"
	"github.com/acedatacloud/dashsnap/internal/market"
	"github.com/acedatacloud/dashsnap/internal/orders"
	"github.com/acedatacloud/dashsnap/internal/state"
	"github.com/acedatacloud/dashsnap/internal/tui"
	"github.com/acedatacloud/dashsnap/internal/updates"
	"github.com/acedatacloud/dashsnap/internal/utils"
	"github.com/acedatacloud/dashsnap/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(domain.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "dashsnap",
	Short: "Refresh the dashboard data files",
	Long: `Dashsnap maintains the JSON files behind the AceDataCloud dashboard:
the merged-PR changelog, pump.fun creator-fee totals, the recent-orders
view, and the revenue rollup.

Each subcommand refreshes one file. The run subcommand executes several
jobs from a manifest in a single invocation, for schedulers that want one
cron entry instead of four.`,
	Version: version.Short(),
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dashsnap/dashsnap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the allow-list and market-data cache")
	rootCmd.PersistentFlags().Bool("no-lock", false, "Skip the advisory run lock")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: pretty or json")

	// Sync flags
	syncCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	syncCmd.Flags().String("org", "", "GitHub organization to sync")
	syncCmd.Flags().String("index", "", "Changelog index path")
	syncCmd.Flags().String("state", "", "Sync-state file path")
	syncCmd.Flags().Int("max-prs", 0, "Max new PRs accepted per run")
	syncCmd.Flags().Int("max-commits", 0, "Max new commits accepted per run")

	// Creator-fees flags
	feesCmd.Flags().StringSlice("address", nil, "Creator wallet address (repeatable)")
	feesCmd.Flags().StringP("output", "o", "", "Snapshot output path")

	// Recent-orders flags
	ordersCmd.Flags().IntP("limit", "l", 0, "Max orders in the snapshot")
	ordersCmd.Flags().StringP("output", "o", "", "Snapshot output path")

	// Revenue flags
	revenueCmd.Flags().String("user-id", "", "Restrict sums to one user")
	revenueCmd.Flags().StringSlice("pay-way", nil, "Restrict sums to payment methods (repeatable)")
	revenueCmd.Flags().String("currency", "", "Currency label for the snapshot")
	revenueCmd.Flags().StringP("output", "o", "", "Snapshot output path")

	// Config editor flags
	configCmd.Flags().Bool("accessible", false, "Render forms for screen readers")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("sync.org", syncCmd.Flags().Lookup("org"))
	_ = viper.BindPFlag("sync.index_path", syncCmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("sync.state_path", syncCmd.Flags().Lookup("state"))
	_ = viper.BindPFlag("sync.max_new_prs", syncCmd.Flags().Lookup("max-prs"))
	_ = viper.BindPFlag("sync.max_new_commits", syncCmd.Flags().Lookup("max-commits"))
	_ = viper.BindPFlag("fees.addresses", feesCmd.Flags().Lookup("address"))
	_ = viper.BindPFlag("fees.output_path", feesCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("orders.limit", ordersCmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("orders.output_path", ordersCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("revenue.user_id", revenueCmd.Flags().Lookup("user-id"))
	_ = viper.BindPFlag("revenue.pay_ways", revenueCmd.Flags().Lookup("pay-way"))
	_ = viper.BindPFlag("revenue.currency", revenueCmd.Flags().Lookup("currency"))
	_ = viper.BindPFlag("revenue.output_path", revenueCmd.Flags().Lookup("output"))

	// Add subcommands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(feesCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(revenueCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	// The scripts sourced .env from the working directory; keep honoring it.
	_ = godotenv.Load()
}

// loadEnv loads configuration and builds the logger shared by a command.
func loadEnv(cmd *cobra.Command) (*config.Config, *utils.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if noLock, _ := cmd.Flags().GetBool("no-lock"); noLock {
		cfg.Lock.Enabled = false
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	return cfg, logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *utils.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if logger != nil {
			logger.Info().Msg("Shutting down gracefully...")
		}
		cancel()
	}()

	return ctx, cancel
}

// lockPath resolves the advisory lock location, defaulting to a dotfile
// next to the sync state.
func lockPath(cfg *config.Config) string {
	if cfg.Lock.Path != "" {
		return utils.ExpandPath(cfg.Lock.Path)
	}
	return filepath.Join(filepath.Dir(utils.ExpandPath(cfg.Sync.StatePath)), ".dashsnap.lock")
}

// acquireLock takes the advisory run lock. Jobs rewrite shared files, so
// a second concurrent run is refused rather than interleaved.
func acquireLock(cfg *config.Config) (func(), error) {
	if !cfg.Lock.Enabled {
		return func() {}, nil
	}

	path := lockPath(cfg)
	if err := utils.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another dashsnap run holds %s", path)
	}

	return func() { _ = fl.Unlock() }, nil
}

// openCache opens the badger cache when enabled. A cache failure is
// logged and the run continues uncached.
func openCache(cfg *config.Config, logger *utils.Logger) (domain.Cache, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}

	c, err := cache.NewBadgerCache(cache.Options{Directory: cfg.Cache.Directory})
	if err != nil {
		if logger != nil {
			logger.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		}
		return nil, func() {}
	}

	return c, func() { _ = c.Close() }
}

// jobEnv carries the dependencies shared by every snapshot job in one
// invocation.
type jobEnv struct {
	cfg    *config.Config
	logger *utils.Logger
	cache  domain.Cache
}

// newJobEnv loads config, takes the run lock, and opens the cache. The
// returned cleanup releases both.
func newJobEnv(cmd *cobra.Command) (*jobEnv, func(), error) {
	cfg, logger, err := loadEnv(cmd)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := acquireLock(cfg)
	if err != nil {
		return nil, nil, err
	}

	cacheImpl, closeCache := openCache(cfg, logger)

	env := &jobEnv{cfg: cfg, logger: logger, cache: cacheImpl}
	cleanup := func() {
		closeCache()
		unlock()
	}
	return env, cleanup, nil
}

func runSyncJob(ctx context.Context, env *jobEnv, dryRun bool) error {
	cfg := env.cfg

	token := github.ResolveToken(cfg.Sync.TokenEnv)
	if token == "" {
		return fmt.Errorf("%w: set %s (or GITHUB_TOKEN)", domain.ErrMissingCredentials, cfg.Sync.TokenEnv)
	}

	client := github.NewClient(github.Options{
		APIRoot:           cfg.GitHub.APIRoot,
		Token:             token,
		Timeout:           cfg.GitHub.Timeout,
		PageSize:          cfg.GitHub.PageSize,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		Logger:            env.logger.WithComponent("github"),
	})

	var allow *github.AllowListSource
	if cfg.Sync.AuthorFilter == config.AuthorFilterOrg {
		allow = github.NewAllowListSource(github.AllowListOptions{
			Client:   client,
			Cache:    env.cache,
			TTL:      cfg.Sync.AllowListTTL,
			FailOpen: cfg.Sync.AllowListFailOpen,
			Logger:   env.logger.WithComponent("allowlist"),
		})
	}

	var enricher updates.Enricher
	provider, err := llm.NewProviderFromConfig(cfg.OpenAI)
	switch {
	case errors.Is(err, domain.ErrLLMNotConfigured):
		env.logger.Info().
			Str("env", cfg.OpenAI.APIKeyEnv).
			Msg("LLM key not set, enrichment disabled")
	case err != nil:
		return fmt.Errorf("configure enrichment: %w", err)
	default:
		enricher = llm.NewNotesSummarizer(provider)
	}

	store := updates.NewStore(updates.StoreOptions{
		IndexPath: cfg.Sync.IndexPath,
		DryRun:    dryRun,
		Logger:    env.logger.WithComponent("store"),
	})
	stateMgr := state.NewManager(state.ManagerOptions{
		Path:          cfg.Sync.StatePath,
		BootstrapDays: cfg.Sync.BootstrapDays,
		Logger:        env.logger.WithComponent("state"),
	})

	syncer := updates.NewSyncer(updates.SyncerOptions{
		Config:    cfg.Sync,
		OpenAI:    cfg.OpenAI,
		Client:    client,
		AllowList: allow,
		Enricher:  enricher,
		Store:     store,
		State:     stateMgr,
		DryRun:    dryRun,
		Logger:    env.logger.WithComponent("sync"),
	})

	_, err = syncer.Run(ctx)
	return err
}

func newMarketClient(env *jobEnv) *market.Client {
	cfg := env.cfg
	return market.NewClient(market.Options{
		PumpFunBaseURL:   cfg.Market.PumpFunBaseURL,
		CoinGeckoBaseURL: cfg.Market.CoinGeckoBaseURL,
		UserAgent:        cfg.Market.UserAgent,
		Timeout:          cfg.Market.Timeout,
		MaxRetries:       cfg.Market.MaxRetries,
		Cache:            env.cache,
		CacheTTL:         cfg.Market.CacheTTL,
		Logger:           env.logger.WithComponent("market"),
	})
}

func runFeesJob(ctx context.Context, env *jobEnv) error {
	snap := market.NewSnapshotter(market.SnapshotterOptions{
		Config: env.cfg.Fees,
		Client: newMarketClient(env),
		Logger: env.logger.WithComponent("fees"),
	})
	_, err := snap.Run(ctx)
	return err
}

func runOrdersJob(ctx context.Context, env *jobEnv) error {
	db, err := orders.Open(ctx, env.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	snap := orders.NewSnapshotter(orders.SnapshotterOptions{
		Config: env.cfg.Orders,
		DB:     db,
		Logger: env.logger.WithComponent("orders"),
	})
	_, err = snap.Run(ctx)
	return err
}

func runRevenueJob(ctx context.Context, env *jobEnv) error {
	db, err := orders.Open(ctx, env.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rep := orders.NewRevenueReporter(orders.RevenueReporterOptions{
		Config: env.cfg.Revenue,
		DB:     db,
		Logger: env.logger.WithComponent("revenue"),
	})
	_, err = rep.Run(ctx)
	return err
}

// registerJobs builds the runnable job set for manifest execution.
func registerJobs(env *jobEnv) []app.Job {
	return []app.Job{
		{
			Name:        "sync",
			Description: "Sync merged PRs and commits into the changelog",
			Run: func(ctx context.Context, entry manifest.Job) error {
				return runSyncJob(ctx, env, entry.DryRun)
			},
		},
		{
			Name:        "creator-fees",
			Description: "Snapshot pump.fun creator fees",
			Run: func(ctx context.Context, entry manifest.Job) error {
				return runFeesJob(ctx, env)
			},
		},
		{
			Name:        "recent-orders",
			Description: "Snapshot recent finished orders",
			Run: func(ctx context.Context, entry manifest.Job) error {
				return runOrdersJob(ctx, env)
			},
		},
		{
			Name:        "revenue",
			Description: "Snapshot revenue windows",
			Run: func(ctx context.Context, entry manifest.Job) error {
				return runRevenueJob(ctx, env)
			},
		},
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync merged PRs and commits into the changelog",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newJobEnv(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := signalContext(env.logger)
		defer cancel()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return runSyncJob(ctx, env, dryRun)
	},
}

var feesCmd = &cobra.Command{
	Use:   "creator-fees",
	Short: "Snapshot pump.fun creator fees",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newJobEnv(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := signalContext(env.logger)
		defer cancel()

		return runFeesJob(ctx, env)
	},
}

var ordersCmd = &cobra.Command{
	Use:   "recent-orders",
	Short: "Snapshot recent finished orders with masked identifiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newJobEnv(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := signalContext(env.logger)
		defer cancel()

		return runOrdersJob(ctx, env)
	},
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Snapshot revenue sums over fixed windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newJobEnv(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := signalContext(env.logger)
		defer cancel()

		return runRevenueJob(ctx, env)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Execute snapshot jobs from a manifest",
	Long: `Run executes the jobs listed in a YAML or JSON manifest sequentially,
sharing one lock, cache, and configuration across all of them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cleanup, err := newJobEnv(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		manifestCfg, err := manifest.NewLoader().Load(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}

		runner := app.NewRunner(app.RunnerOptions{
			Jobs:   registerJobs(env),
			Logger: env.logger.WithComponent("runner"),
		})

		ctx, cancel := signalContext(env.logger)
		defer cancel()

		return runner.RunManifest(ctx, manifestCfg)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to every upstream",
	Long: `Doctor verifies configuration, state-directory permissions, and
connectivity to GitHub, CoinGecko, pump.fun, and Postgres.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(logger)
		defer cancel()

		doctor := app.NewDoctor(app.DoctorOptions{
			Checks: buildChecks(cfg),
			Logger: logger.WithComponent("doctor"),
		})
		return doctor.Run(ctx)
	},
}

// buildChecks assembles the preflight probes for doctor.
func buildChecks(cfg *config.Config) []app.Check {
	newMarket := func() *market.Client {
		return market.NewClient(market.Options{
			PumpFunBaseURL:   cfg.Market.PumpFunBaseURL,
			CoinGeckoBaseURL: cfg.Market.CoinGeckoBaseURL,
			UserAgent:        cfg.Market.UserAgent,
			Timeout:          cfg.Market.Timeout,
		})
	}

	return []app.Check{
		{
			Name: "config",
			Run: func(ctx context.Context) error {
				return cfg.Validate()
			},
		},
		{
			Name: "state-dir",
			Run: func(ctx context.Context) error {
				return checkWritable(filepath.Dir(utils.ExpandPath(cfg.Sync.StatePath)))
			},
		},
		{
			Name: "github",
			Run: func(ctx context.Context) error {
				client := github.NewClient(github.Options{
					APIRoot:           cfg.GitHub.APIRoot,
					Token:             github.ResolveToken(cfg.Sync.TokenEnv),
					Timeout:           cfg.GitHub.Timeout,
					RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
					Burst:             cfg.GitHub.Burst,
				})
				return client.Ping(ctx)
			},
		},
		{
			Name: "coingecko",
			Run: func(ctx context.Context) error {
				_, err := newMarket().SolPriceUSD(ctx)
				return err
			},
		},
		{
			Name: "pumpfun",
			Run: func(ctx context.Context) error {
				if len(cfg.Fees.Addresses) == 0 {
					return fmt.Errorf("%w: no creator addresses configured", domain.ErrInvalidConfig)
				}
				_, err := newMarket().FineFeeBuckets(ctx, cfg.Fees.Addresses[0])
				return err
			},
		},
		{
			Name: "database",
			Run: func(ctx context.Context) error {
				db, err := orders.Open(ctx, cfg.Database)
				if err != nil {
					return err
				}
				return db.Close()
			},
		},
		{
			Name:     "openai",
			Optional: true,
			Run: func(ctx context.Context) error {
				if llm.ResolveAPIKey(cfg.OpenAI.APIKeyEnv) == "" {
					return fmt.Errorf("API key not set (%s)", cfg.OpenAI.APIKeyEnv)
				}
				return nil
			},
		},
	}
}

// checkWritable proves the directory accepts writes with a probe file.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".dashsnap_write_check")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the configuration interactively",
	Long: `Config opens a terminal editor over every dashsnap setting and writes
the result to ~/.dashsnap/dashsnap.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}

		accessible, _ := cmd.Flags().GetBool("accessible")
		return tui.Run(tui.Options{
			Config:     cfg,
			SaveFunc:   config.Save,
			SavePath:   config.ConfigFilePath(),
			Accessible: accessible,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
