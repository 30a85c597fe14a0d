package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/tikzbuild/internal/metrics"
	"git.home.luguber.info/inful/tikzbuild/internal/watch"
)

// WatchCmd implements the 'watch' command: an initial build followed by
// rebuilds on filesystem changes and, optionally, on a fixed interval.
type WatchCmd struct {
	Source string `arg:"" optional:"" help:"Root directory containing standalone figure sources" type:"path"`
	Output string `arg:"" optional:"" help:"Output directory for compiled artifacts" type:"path"`

	treeOverrides

	Debounce    time.Duration `default:"500ms" help:"Quiet period before a change triggers a rebuild"`
	Interval    time.Duration `help:"Also rebuild on a fixed interval (0 disables)"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9190)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	w.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, output, err := resolveTree(w.Source, w.Output, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if w.MetricsAddr != "" {
		registry := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(ctx, w.MetricsAddr, registry)
	}

	rebuild := func() {
		summary, err := runOnce(ctx, cfg, source, output, recorder)
		if err != nil {
			slog.Error("Build pass failed", "error", err)
			return
		}
		summary.WriteReport(os.Stdout)
	}

	// Initial pass before waiting for changes.
	rebuild()

	watcher, err := watch.NewWatcher(source, cfg.Source.Extensions, w.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	ticks := make(chan struct{}, 1)
	if w.Interval > 0 {
		cronScheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create interval scheduler: %w", err)
		}
		_, err = cronScheduler.NewJob(
			gocron.DurationJob(w.Interval),
			gocron.NewTask(func() {
				select {
				case ticks <- struct{}{}:
				default:
				}
			}),
			gocron.WithName("interval-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule interval rebuild: %w", err)
		}
		cronScheduler.Start()
		defer func() { _ = cronScheduler.Shutdown() }()
		slog.Info("Interval rebuilds enabled", "interval", w.Interval)
	}

	slog.Info("Watching for changes, press Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received, stopping watch mode")
			return nil
		case <-watcher.Triggers():
			slog.Info("Source change detected, rebuilding")
			rebuild()
		case <-ticks:
			slog.Debug("Interval elapsed, rebuilding")
			rebuild()
		}
	}
}

// serveMetrics exposes the Prometheus registry until ctx is canceled.
func serveMetrics(ctx context.Context, addr string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
