package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/galleryforge/artcrawl/internal/config"
	"github.com/galleryforge/artcrawl/internal/core"
	"github.com/galleryforge/artcrawl/internal/logging"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// command-line flags
var (
	// global
	configFile string
	verbose    bool
	logLevel   string
	outputDir  string

	// shared crawl flags
	delay     float64
	retries   int
	userAgent string

	// dataset flags
	minPerClass int
	maxPerClass int
	professions string
	listPages   int
	indexPages  int

	// collect flags
	startPage    int
	endPage      int
	headless     bool
	scrollRounds int
)

// appConfig is loaded once in PersistentPreRunE and shared by the
// subcommand handlers.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "artcrawl",
	Short: "Art collection crawler and dataset builder",
	Long: `artcrawl - crawler for public art collections

Builds labeled image datasets from museum collection sites:
  • frame-based legacy sites via a redirect/frame resolver
  • script-rendered modern sites via a headless browser
  • per-class quota enforcement and image deduplication
  • idempotent downloads with a CSV manifest

Examples:
  # full labeled dataset from the legacy catalog
  artcrawl dataset -o dataset --min-per-class 1000 --max-per-class 1200

  # flat image collection from the modern gallery
  artcrawl collect -o collection --start-page 1 --end-page 50

Version: ` + Version,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logConfig := logging.Config{
			Level:      cfg.Logging.Level,
			LogDir:     cfg.Logging.LogDir,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose && logLevel == "" {
			logConfig.Level = "debug"
		}
		if err := logging.Init(logConfig); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		applyFlagOverrides(cmd, cfg)
		appConfig = cfg
		return nil
	},
}

// applyFlagOverrides lets explicitly set flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("delay") {
		cfg.Crawl.Delay = delay
	}
	if set("retries") {
		cfg.Crawl.Retries = retries
	}
	if set("user-agent") {
		cfg.Crawl.UserAgent = userAgent
	}
	if set("min-per-class") {
		cfg.Crawl.MinPerClass = minPerClass
	}
	if set("max-per-class") {
		cfg.Crawl.MaxPerClass = maxPerClass
	}
	if set("professions") {
		cfg.Crawl.Professions = professions
	}
	if set("list-pages") {
		cfg.Crawl.ArtistListPages = listPages
	}
	if set("index-pages") {
		cfg.Crawl.IndexPagesPerArtist = indexPages
	}
	if set("start-page") {
		cfg.Crawl.StartPage = startPage
	}
	if set("end-page") {
		cfg.Crawl.EndPage = endPage
	}
	if set("headless") {
		cfg.Crawl.Headless = headless
	}
	if set("scroll-rounds") {
		cfg.Crawl.ScrollRounds = scrollRounds
	}
	if set("output") {
		cfg.Output.BaseDir = outputDir
	}
}

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build a labeled per-class dataset from the legacy catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ValidateDatasetFlags(appConfig.Crawl); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outDir := filepath.Join(appConfig.Output.BaseDir, "dataset")
		builder, err := core.NewBuilder(appConfig.Crawl, outDir)
		if err != nil {
			return fmt.Errorf("create dataset builder: %w", err)
		}
		return builder.Run(ctx)
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect a flat image set from the modern gallery",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ValidateCollectFlags(appConfig.Crawl); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outDir := filepath.Join(appConfig.Output.BaseDir, "collection")
		collector, err := core.NewCollector(appConfig.Crawl, outDir)
		if err != nil {
			return fmt.Errorf("create collector: %w", err)
		}
		return collector.Run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("artcrawl %s\n", Version)
		fmt.Printf("Build time: %s\n", BuildTime)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	pf.StringVarP(&outputDir, "output", "o", "output", "output base directory")
	pf.Float64Var(&delay, "delay", 0.5, "base delay between requests (seconds)")
	pf.IntVar(&retries, "retries", 3, "fetch attempts per URL")
	pf.StringVar(&userAgent, "user-agent", "", "override the request User-Agent")

	df := datasetCmd.Flags()
	df.IntVar(&minPerClass, "min-per-class", 1000, "minimum images to keep a class")
	df.IntVar(&maxPerClass, "max-per-class", 1200, "per-class image ceiling")
	df.StringVar(&professions, "professions", "", "comma-separated profession allow-list")
	df.IntVar(&listPages, "list-pages", 500, "maximum artist-list pages to walk")
	df.IntVar(&indexPages, "index-pages", 200, "page cap per artist folder")

	cf := collectCmd.Flags()
	cf.IntVar(&startPage, "start-page", 1, "first listing page")
	cf.IntVar(&endPage, "end-page", 150, "last listing page")
	cf.BoolVar(&headless, "headless", true, "run the browser headless")
	cf.IntVar(&scrollRounds, "scroll-rounds", 10, "max scroll rounds per page")

	rootCmd.AddCommand(datasetCmd, collectCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
