package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/rssalert/pkg/alert"
	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/feed"
	"github.com/umputun/rssalert/pkg/locker"
	"github.com/umputun/rssalert/pkg/scheduler"
	"github.com/umputun/rssalert/pkg/storage"
	"github.com/umputun/rssalert/server"
)

// Opts with all CLI options
type Opts struct {
	Config      []string      `short:"c" long:"config" env:"CONFIG" env-delim:"," default:"config.yml" description:"config file or conf.d directory, repeatable"`
	FeedTimeout time.Duration `short:"t" long:"feed-timeout" env:"FEED_TIMEOUT" description:"feed fetch timeout, overrides config"`
	NoNotify    bool          `long:"no-notify" env:"NO_NOTIFY" description:"disable email and slack alerts"`
	Every       time.Duration `long:"every" env:"EVERY" description:"run periodically with this interval, single run if not set"`
	Listen      string        `short:"l" long:"listen" env:"LISTEN" description:"status server listen address in periodic mode, overrides config"`
	EnvFile     string        `long:"env-file" env:"ENV_FILE" description:"load environment variables from file"`
	Verbose     []bool        `short:"v" long:"verbose" description:"verbose mode, repeat for more details"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(logLevel(opts, ""), opts.NoColor)
	log.Printf("[INFO] starting rssalert version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] completed")
}

// run loads config, makes backends and runs feeds once, or periodically with the status server
// if opts.Every is set
func run(ctx context.Context, opts Opts) error {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	cfg, err := config.Load(opts.Config...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)
	setupLog(logLevel(opts, cfg.LogLevel), opts.NoColor, cfg.Secrets()...)
	log.Printf("[INFO] loaded %d feeds in %d groups", cfg.FeedCount(), len(cfg.FeedGroups))

	st, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to make storage: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Printf("[WARN] failed to close storage: %v", cerr)
		}
	}()

	lk, err := locker.New(ctx, cfg.Locking)
	if err != nil {
		return fmt.Errorf("failed to make locker: %w", err)
	}
	defer func() {
		if cerr := lk.Close(); cerr != nil {
			log.Printf("[WARN] failed to close locker: %v", cerr)
		}
	}()

	sched := scheduler.New(scheduler.Params{
		Config:     cfg,
		Storage:    st,
		Locker:     lk,
		Fetcher:    feed.NewHTTPFetcher(""),
		Notifier:   alert.NewDispatcher(alert.NewClassifier(cfg.Severity.Good, cfg.Severity.Warning)),
		Normalizer: feed.NewTimeNormalizer(cfg.TimezoneFixups),
	})

	if opts.Every <= 0 {
		err := sched.RunOnce(ctx)
		if errors.Is(err, locker.ErrNotAcquired) {
			return fmt.Errorf("another run is in progress: %w", err)
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx, opts.Every); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler failed: %w", err)
		}
		return nil
	})
	if listen, _ := cfg.GetServerConfig(); listen != "" {
		srv := server.New(cfg, sched, revision, opts.Debug)
		g.Go(func() error { return srv.Run(gctx) })
	}
	return g.Wait()
}

func applyOverrides(cfg *config.Config, opts Opts) {
	if opts.FeedTimeout > 0 {
		cfg.Timeout = opts.FeedTimeout
	}
	if opts.NoNotify {
		cfg.NoNotify = true
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
}

// logLevel picks the effective level, command line flags win over the configured level
func logLevel(opts Opts, configured string) string {
	switch {
	case opts.Debug || len(opts.Verbose) > 0:
		return "debug"
	case configured != "":
		return configured
	default:
		return "info"
	}
}

func setupLog(level string, noColor bool, secs ...string) {
	var logOpts []lgr.Option
	switch level {
	case "debug":
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	case "error":
		logOpts = []lgr.Option{lgr.Out(io.Discard), lgr.Err(os.Stderr), lgr.LevelBraces}
	default:
		logOpts = []lgr.Option{lgr.LevelBraces}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
