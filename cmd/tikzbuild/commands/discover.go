package commands

import (
	"fmt"
	"path/filepath"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
	"git.home.luguber.info/inful/tikzbuild/internal/figures"
	"git.home.luguber.info/inful/tikzbuild/internal/incremental"
)

// DiscoverCmd implements the 'discover' command: a dry run that lists every
// recognized figure and whether it would be recompiled.
type DiscoverCmd struct {
	Source string `arg:"" optional:"" help:"Root directory containing standalone figure sources" type:"path"`
	Output string `arg:"" optional:"" help:"Output directory for compiled artifacts" type:"path"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, output, err := resolveTree(d.Source, d.Output, cfg)
	if err != nil {
		return err
	}
	if source, err = filepath.Abs(source); err != nil {
		return builderrors.NewConfigError("failed to resolve source directory", err)
	}

	discovery := figures.NewDiscovery(source, output, cfg.Source.Extensions, cfg.Output.Extension)
	jobs, err := discovery.Enumerate()
	if err != nil {
		return err
	}
	if err := figures.DetectDuplicateTargets(jobs); err != nil {
		return builderrors.Wrap(err,
			builderrors.CategoryConfig, builderrors.SeverityFatal, "duplicate output targets")
	}

	checker := incremental.NewChecker()
	stale := 0
	for _, job := range jobs {
		needs, err := checker.NeedsRecompile(job)
		if err != nil || needs {
			stale++
			fmt.Printf("Needs compile: %s\n", job.SourcePath)
		} else {
			fmt.Printf("Up to date:    %s\n", job.SourcePath)
		}
	}

	fmt.Printf("\n%d figure(s) found, %d stale, %d up to date\n", len(jobs), stale, len(jobs)-stale)
	return nil
}
