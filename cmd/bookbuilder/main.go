// Command bookbuilder renders, packages, merges and publishes a markdown book.
package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/cmd/bookbuilder/commands"
	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	ctx := kong.Parse(cli,
		kong.Name("bookbuilder"),
		kong.Description("Build and publish a markdown book: site, code archives, merged document."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	err := ctx.Run(cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
