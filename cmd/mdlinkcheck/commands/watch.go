package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
	"git.home.luguber.info/inful/mdlinkcheck/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	ScanFlags `embed:""`

	Path          string        `arg:"" help:"Directory to watch"`
	Debounce      time.Duration `help:"Quiet period before re-checking (overrides config)"`
	Interval      time.Duration `help:"Also re-check everything on this interval (overrides config)"`
	MetricsListen string        `help:"Serve /metrics, /health and /status on this address (e.g. :9090)"`
}

// Run executes the watch command until interrupted.
func (c *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return c.run(ctx, g, root)
}

func (c *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}
	debounce := cfg.WatchDebounce()
	if c.Debounce > 0 {
		debounce = c.Debounce
	}
	interval := cfg.WatchInterval()
	if c.Interval > 0 {
		interval = c.Interval
	}

	info, err := os.Stat(c.Path)
	if err != nil || !info.IsDir() {
		return ferrors.UsageError("watch path must be an existing directory").
			WithContext("path", c.Path).
			Build()
	}

	s, err := openSession(g, cfg, c.MetricsListen != "")
	if err != nil {
		return err
	}
	defer s.Close()
	s.parser = markdown.NewCachingParser(s.parser, markdown.DefaultCacheEntries)

	var last atomic.Pointer[scan.Summary]
	if c.MetricsListen != "" {
		srv := &http.Server{
			Addr:              c.MetricsListen,
			Handler:           metrics.Router(s.registry, func() any { return last.Load() }),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "addr", c.MetricsListen, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("Serving metrics", "addr", c.MetricsListen)
	}

	return watch.Run(ctx, c.Path, watch.Options{
		Debounce:       debounce,
		ExcludeFolders: cfg.ExcludeFolders,
		Extensions:     cfg.Extensions,
		Interval:       interval,
	}, func(ctx context.Context) error {
		summary, err := s.scan(ctx, c.Path, nil)
		if err == nil {
			last.Store(summary)
		}
		return err
	})
}
