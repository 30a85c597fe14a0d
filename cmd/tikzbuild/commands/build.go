package commands

import (
	"context"
	"fmt"
	"os"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
	"git.home.luguber.info/inful/tikzbuild/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source string `arg:"" optional:"" help:"Root directory containing standalone figure sources" type:"path"`
	Output string `arg:"" optional:"" help:"Output directory for compiled artifacts" type:"path"`

	treeOverrides
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	b.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, output, err := resolveTree(b.Source, b.Output, cfg)
	if err != nil {
		return err
	}

	summary, err := runOnce(context.Background(), cfg, source, output, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	summary.WriteReport(os.Stdout)

	if summary.Failed() {
		return builderrors.NewCompileError(
			fmt.Sprintf("%d figure(s) failed to compile", len(summary.Failures)), nil)
	}
	return nil
}
