package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ufcstats-scraper/fightertools/internal/archive"
	"ufcstats-scraper/fightertools/internal/config"
	"ufcstats-scraper/fightertools/internal/database"
	"ufcstats-scraper/fightertools/internal/database/migrations"
	importfighters "ufcstats-scraper/fightertools/internal/import"
	"ufcstats-scraper/fightertools/internal/models"
	"ufcstats-scraper/fightertools/internal/process"
	"ufcstats-scraper/fightertools/internal/storage"
)

const usage = `Usage: fightertools [command] [options]
Commands: scrape, archive, setup, discover, links, record

For command-specific options, use: fightertools [command] -h`

// startedAt is captured once so every archive written by one run shares
// the same timestamp.
var startedAt = time.Now()

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	if err := config.LoadEnvFile(config.GetEnvString("FIGHTERTOOLS_ENV_FILE", config.DefaultEnvFile)); err != nil {
		log.Warn().Err(err).Msg("Failed to load environment file")
	}

	cfg := config.DefaultConfig()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scrape":
		err = scrapeCommand(cfg, os.Args[2:])
	case "archive":
		err = archiveCommand(cfg, os.Args[2:])
	case "setup":
		err = setupCommand(cfg, os.Args[2:])
	case "discover":
		err = discoverCommand(cfg, os.Args[2:])
	case "links":
		err = linksCommand(cfg, os.Args[2:])
	case "record":
		err = recordCommand(cfg, os.Args[2:])

	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

// newFlagSet creates a flag set carrying the options shared by every command.
func newFlagSet(name string, cfg *config.Config) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	cfg.LogLevel = config.GetEnvLogLevel("FIGHTERTOOLS_LOG_LEVEL", cfg.LogLevel)
	logLevel := fs.String("log-level", cfg.LogLevel.String(),
		"Log level: debug, info, warn, error (env: FIGHTERTOOLS_LOG_LEVEL)")
	fs.StringVar(&cfg.DataDir, "data-dir", config.GetEnvString("FIGHTERTOOLS_DATA_DIR", config.DefaultDataDir),
		"Directory holding the scraped data (env: FIGHTERTOOLS_DATA_DIR)")
	fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("FIGHTERTOOLS_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite links database (env: FIGHTERTOOLS_DB_PATH)")

	return fs, logLevel
}

// parse parses args and applies the log level.
func parse(fs *flag.FlagSet, args []string, cfg *config.Config, logLevel *string) {
	fs.Parse(args)

	if level, err := zerolog.ParseLevel(*logLevel); err == nil {
		cfg.LogLevel = level
	} else {
		log.Warn().Str("level", *logLevel).Msg("Unknown log level, keeping default")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-shutdown:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(shutdown)
	}()

	return ctx, cancel
}

// scrapeCommand runs the external scraper once per key:
//
//	fightertools scrape [options] [keys] [delay]
func scrapeCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("scrape", cfg)
	fs.StringVar(&cfg.ScraperCommand, "scraper", config.GetEnvString("FIGHTERTOOLS_SCRAPER", config.DefaultScraperCommand),
		"Scraper command line, the key is appended (env: FIGHTERTOOLS_SCRAPER)")
	fs.StringVar(&cfg.DelayFlag, "delay-flag", config.GetEnvString("FIGHTERTOOLS_DELAY_FLAG", config.DefaultDelayFlag),
		"Flag used to pass the delay to the scraper, empty passes it after the key (env: FIGHTERTOOLS_DELAY_FLAG)")
	delayOpt := fs.String("delay", "", "Delay forwarded to the scraper, same as the second positional argument")
	parse(fs, args, cfg, logLevel)

	keys, delay, err := scrapeArgs(fs.Args(), *delayOpt)
	if err != nil {
		return err
	}

	runner, err := process.NewExecRunner(cfg.ScraperArgv(), cfg.DelayFlag)
	if err != nil {
		return err
	}
	invoker, err := process.NewInvoker(runner)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := invoker.Run(ctx, keys, delay); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("Scraping canceled by shutdown signal")
			return nil
		}
		return err
	}
	return nil
}

// scrapeArgs resolves the positional [keys] [delay] arguments left after flag
// parsing, together with the -delay flag value.
func scrapeArgs(positional []string, delayOpt string) ([]string, string, error) {
	for _, arg := range positional {
		if len(arg) > 1 && arg[0] == '-' && (arg[1] == '-' || unicode.IsLetter(rune(arg[1]))) {
			return nil, "", fmt.Errorf("flag %s must come before [keys] [delay]", arg)
		}
	}
	if len(positional) > 2 {
		return nil, "", fmt.Errorf("expected at most two arguments, [keys] [delay], got %d", len(positional))
	}

	rawDelay := delayOpt
	if len(positional) == 2 {
		if delayOpt != "" {
			return nil, "", fmt.Errorf("delay given both as -delay %s and as argument %s", delayOpt, positional[1])
		}
		rawDelay = positional[1]
	}

	delay, err := process.ParseDelay(rawDelay)
	if err != nil {
		return nil, "", err
	}

	var rawKeys string
	if len(positional) > 0 {
		rawKeys = positional[0]
	}
	return process.ParseKeys(rawKeys), delay, nil
}

// archiveCommand archives every known data directory with one shared timestamp.
func archiveCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("archive", cfg)
	parse(fs, args, cfg, logLevel)

	var targets []archive.Target
	for _, t := range cfg.ArchiveTargets() {
		targets = append(targets, archive.Target{Dir: t.Dir, Ext: t.Ext})
	}

	ts := startedAt.UnixNano()
	log.Info().Int64("timestamp", ts).Int("targets", len(targets)).Msg("Archiving data directories")

	return archive.NewArchiver(archive.NewTrasher()).ArchiveAll(targets, ts)
}

// setupCommand creates the links table, dropping it first with -reset.
func setupCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("setup", cfg)
	reset := fs.Bool("reset", config.GetEnvBool("FIGHTERTOOLS_RESET", false), "Drop the links table before setting it up")
	verbose := fs.Bool("verbose", false, "Print the schema that was applied")
	parse(fs, args, cfg, logLevel)

	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if *reset {
		if err := db.Reset(); err != nil {
			return err
		}
		if err := database.Migrate(db.DB); err != nil {
			return err
		}
		log.Info().Str("path", cfg.DBPath).Msg("Links database reset")
	}

	if err := db.EnsureSetup(context.Background()); err != nil {
		return err
	}

	if *verbose {
		ms, err := migrations.Embedded()
		if err != nil {
			return err
		}
		for _, m := range ms {
			fmt.Printf("-- migration %d\n%s\n", m.Version, m.Up)
		}
	}

	log.Info().Str("path", cfg.DBPath).Msg("Links database is set up")
	return nil
}

// discoverCommand stores the links found in scraped fighters lists and link
// files. Files may be given as arguments; otherwise the fighters list and
// fighter links directories are read.
func discoverCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("discover", cfg)
	parse(fs, args, cfg, logLevel)

	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	importer := importfighters.NewImporter(storage.NewRepository(db))

	var summary *importfighters.Summary
	if fs.NArg() > 0 {
		summary, err = importer.ImportFiles(ctx, fs.Args())
	} else {
		summary, err = importer.ImportDirs(ctx, cfg.FightersListPath(), cfg.FighterLinksPath())
	}
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d new fighters from %d files\n", summary.Inserted, summary.Files)
	if len(summary.Skipped) > 0 {
		fmt.Printf("Skipped %d entries:\n", len(summary.Skipped))
		for _, s := range summary.Skipped {
			fmt.Printf("  - %s\n", s)
		}
	}
	return nil
}

// linksCommand prints the stored fighters matching a selection.
func linksCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("links", cfg)
	selStr := fs.String("select", config.GetEnvString("FIGHTERTOOLS_SELECT", config.DefaultListSelection),
		"Which links to list: all, unscraped, failed (env: FIGHTERTOOLS_SELECT)")
	limit := fs.Int("limit", config.GetEnvInt("FIGHTERTOOLS_LIMIT", config.DefaultListLimit),
		"Maximum number of links, 0 for no limit (env: FIGHTERTOOLS_LIMIT)")
	parse(fs, args, cfg, logLevel)

	sel, err := models.ParseLinkSelection(*selStr)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("%w: %s", database.ErrDBNotSetup, cfg.DBPath)
	}

	dbCfg := database.NewConfig(cfg.DBPath)
	dbCfg.ReadOnly = true
	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSetup(ctx); err != nil {
		return err
	}

	fighters, err := storage.NewRepository(db).List(ctx, sel, *limit)
	if err != nil {
		return err
	}

	renderFighters(os.Stdout, fighters)
	return nil
}

// recordCommand records the outcome of one scrape attempt.
func recordCommand(cfg *config.Config, args []string) error {
	fs, logLevel := newFlagSet("record", cfg)
	link := fs.String("link", "", "Fighter link (required)")
	name := fs.String("name", "", "Fighter name, used when the link is not stored yet")
	success := fs.Bool("success", true, "Whether the scrape attempt succeeded")
	parse(fs, args, cfg, logLevel)

	if *link == "" {
		return fmt.Errorf("-link is required")
	}

	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	f, err := storage.NewRepository(db).RecordAttempt(context.Background(), *link, *name, *success)
	if err != nil {
		return err
	}

	log.Info().
		Int64("id", f.ID).
		Str("link", f.Link).
		Bool("success", *success).
		Msg("Scrape attempt recorded")
	return nil
}
