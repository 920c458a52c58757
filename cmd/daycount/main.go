package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"daycount/internal/calendar"
	"daycount/internal/capture"
	"daycount/internal/config"
	"daycount/internal/events"
	"daycount/internal/ics"
	appLog "daycount/internal/log"
	"daycount/internal/web"
)

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	date       string
	once       bool
	snapshot   bool
}

func main() {
	appLog.Info("daycount starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc := web.ResolveLocation(conf.Timezone)
	anchor, err := resolveAnchor(flags.date, loc)
	if err != nil {
		appLog.Error("invalid -date", err, "date", flags.date)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"events_file", conf.EventsFile,
		"ics_count", len(conf.ICS),
		"refresh", conf.RefreshCron,
		"months_before", conf.MonthsBefore,
		"months_after", conf.MonthsAfter,
		"anchor", anchor.Key(),
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	store := events.NewStore(events.StoreOptions{
		EventsFile: conf.EventsFile,
		Fetcher:    ics.NewFetcher(conf.CacheDir, nil),
		Sources:    icsSources(conf),
		Location:   loc,
	})
	if err := store.Refresh(ctx); err != nil {
		appLog.Error("initial event refresh incomplete", err)
	}

	if flags.once {
		if err := writeView(os.Stdout, conf, store, anchor, calendar.Today(loc)); err != nil {
			appLog.Error("failed to write view", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, store, loc, anchor, flags.snapshot); err != nil {
		appLog.Error("daycount stopped with error", err)
		os.Exit(1)
	}
	appLog.Info("daycount exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Anchor date YYYY-MM-DD for -once/-snapshot (default today)")
	flag.BoolVar(&cfg.once, "once", false, "Print the calendar view as JSON and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a PNG of the page and exit")

	flag.Parse()

	return cfg
}

// serve runs the HTTP server and the cron scheduler until ctx is canceled.
// With snapshot set it captures one PNG and returns instead. The listen
// address is bound before anything else so a busy port fails immediately.
func serve(ctx context.Context, conf *config.Config, store *events.Store, loc *time.Location, anchor calendar.Date, snapshot bool) error {
	srv, err := web.NewServer(conf, store)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", conf.Listen, err)
	}
	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP shutdown failed", err)
		}
	}()

	if snapshot {
		return takeSnapshot(ctx, conf, anchor)
	}

	c, err := newScheduler(ctx, conf, store, loc)
	if err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		return err
	}
}

// newScheduler registers the event refresh and the midnight rollover jobs.
func newScheduler(ctx context.Context, conf *config.Config, store *events.Store, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(conf.RefreshCron, func() {
		if err := store.Refresh(ctx); err != nil {
			appLog.Error("scheduled event refresh incomplete", err)
		}
	})
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc("@daily", func() {
		today := calendar.Today(loc)
		appLog.Info("day rollover", "today", today.Key())
		if conf.Capture.Daily {
			if err := takeSnapshot(ctx, conf, today); err != nil {
				appLog.Error("daily snapshot failed", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func takeSnapshot(ctx context.Context, conf *config.Config, anchor calendar.Date) error {
	opts, err := capture.OptionsFromConfig(conf, anchor)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := capture.CapturePNG(ctx, opts); err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", opts.OutputPath, "anchor", anchor.Key(), "elapsed", time.Since(start))
	return nil
}
