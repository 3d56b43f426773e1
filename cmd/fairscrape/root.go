package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pevans/fairscrape/browser"
	"github.com/pevans/fairscrape/config"
	"github.com/pevans/fairscrape/crawl"
	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/logging"
	"github.com/pevans/fairscrape/products"
	"github.com/pevans/fairscrape/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	configPath  string
	profileName string
	requestRate float64
	headful     bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fairscrape",
	Short: "Scrape trade fair exhibitors and shop products into CSV catalogs",
	Long: `fairscrape crawls paginated category listings, queues every detail page
in a database and scrapes the queue until it is drained. Runs can be
interrupted and resumed; finished rows are never scraped twice.

Environment Variables:
  FAIRSCRAPE_DB_DRIVER  Database driver: sqlite3 or postgres (default: sqlite3)
  FAIRSCRAPE_DB_DSN     Database file or connection string (default: fairscrape.db)
  FAIRSCRAPE_PROFILE    Site profile (default: cantonfair)
  FAIRSCRAPE_OUTPUT     CSV output path (default: output.csv)
  FAIRSCRAPE_ENV        Set to "production" for JSON logs
  FAIRSCRAPE_LOG_LEVEL  Log level (default: info)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, profileName)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Log.Env, cfg.Log.Level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config file (default: ~/.fairscrape/config.yaml)")
	flags.StringVar(&profileName, "profile", "", "Site profile to use (overrides config and environment)")
	flags.Float64Var(&requestRate, "rate", 0, "Maximum page loads per second (0 for no limit)")
	flags.BoolVar(&headful, "headful", false, "Show the browser window")
}

// openDB opens the configured database.
func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newBrowser starts the page fetcher named by the profile.
func newBrowser(ctx context.Context) (browser.Browser, error) {
	var limiter *rate.Limiter
	if requestRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestRate), 1)
	}

	switch cfg.Profile.Fetcher {
	case "static":
		return browser.NewStatic(browser.StaticOptions{
			Timeout: cfg.Profile.Timeouts.Detail,
			Limiter: limiter,
		}), nil
	case "chrome", "":
		opts := browser.DefaultChromeOptions()
		opts.Headless = !headful
		opts.Limiter = limiter
		opts.Logger = logger
		opts.NavigateTimeout = max(cfg.Profile.Timeouts.Listing, cfg.Profile.Timeouts.Detail)
		opts.ClickTimeout = cfg.Profile.Timeouts.Page
		return browser.NewChrome(ctx, opts)
	}

	return nil, fmt.Errorf("unknown fetcher %q", cfg.Profile.Fetcher)
}

// withSession runs fn with a crawl session over the configured database and
// browser, releasing both afterwards.
func withSession(ctx context.Context, fn func(*crawl.Session) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := newBrowser(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer b.Close()

	session := crawl.NewSession(
		b,
		cfg.Profile,
		exhibitors.NewExhibitorStore(db),
		products.NewProductStore(db),
		logger,
	)

	start := time.Now()
	err = fn(session)
	logger.Info("run finished",
		zap.String("profile", cfg.Profile.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}

// categoryArgs returns the category URLs given on the command line, or the
// profile's list when none are given.
func categoryArgs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(cfg.Profile.Categories) == 0 {
		return nil, fmt.Errorf("profile %s has no categories; pass category URLs as arguments", cfg.Profile.Name)
	}
	return cfg.Profile.Categories, nil
}
