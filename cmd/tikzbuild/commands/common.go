// Package commands implements the tikzbuild CLI commands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tikzbuild/internal/config"
	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
	"git.home.luguber.info/inful/tikzbuild/internal/figures"
	"git.home.luguber.info/inful/tikzbuild/internal/incremental"
	"git.home.luguber.info/inful/tikzbuild/internal/latex"
	"git.home.luguber.info/inful/tikzbuild/internal/metrics"
	"git.home.luguber.info/inful/tikzbuild/internal/scheduler"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"tikzbuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Compile stale figures from the source tree into the output tree"`
	Discover DiscoverCmd `cmd:"" help:"List figures and their staleness without compiling"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild continuously on source changes"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the root config file. The default path is only probed;
// any other path must exist.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config, root.Config != config.DefaultConfigFile)
}

// treeOverrides are the flags shared by build and watch that refine the
// configured run.
type treeOverrides struct {
	Jobs    *int           `short:"j" name:"jobs" help:"Maximum number of parallel compilations (default from config, 32)"`
	Engine  string         `help:"LaTeX engine command (overrides config)"`
	Timeout *time.Duration `help:"Per-figure compile timeout, 0 disables (overrides config)"`
}

func (o *treeOverrides) apply(cfg *config.Config) {
	if o.Jobs != nil {
		cfg.Build.Jobs = *o.Jobs
	}
	if o.Engine != "" {
		cfg.Engine.Command = o.Engine
	}
	if o.Timeout != nil {
		cfg.Build.Timeout = o.Timeout.String()
	}
}

// resolveTree picks the source/output directories from positional arguments,
// falling back to the config file.
func resolveTree(source, output string, cfg *config.Config) (string, string, error) {
	if source == "" {
		source = cfg.Source.Directory
	}
	if output == "" {
		output = cfg.Output.Directory
	}
	if source == "" {
		return "", "", builderrors.NewValidationError(
			"source directory required (argument or source.directory in config)", nil)
	}
	if output == "" {
		return "", "", builderrors.NewValidationError(
			"output directory required (argument or output.directory in config)", nil)
	}
	return source, output, nil
}

// runOnce performs a single full build pass: enumerate, check staleness,
// compile stale figures across the worker pool.
func runOnce(ctx context.Context, cfg *config.Config, source, output string, recorder metrics.Recorder) (*scheduler.Summary, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, builderrors.NewConfigError("failed to resolve source directory", err)
	}

	discovery := figures.NewDiscovery(source, output, cfg.Source.Extensions, cfg.Output.Extension)
	jobs, err := discovery.Enumerate()
	if err != nil {
		return nil, err
	}

	runner := latex.NewRunner(cfg.Engine, source, cfg.CompileTimeout())
	sched := scheduler.New(runner, incremental.NewChecker(), cfg.Build.Jobs).WithRecorder(recorder)
	return sched.Run(ctx, jobs)
}
