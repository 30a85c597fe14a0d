package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tikzbuild/cmd/tikzbuild/commands"
	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
	"git.home.luguber.info/inful/tikzbuild/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("tikzbuild"),
		kong.Description("Compile standalone TikZ figures in parallel, mirroring the source tree and skipping up-to-date artifacts."),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	builderrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
