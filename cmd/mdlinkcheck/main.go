package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdlinkcheck/cmd/mdlinkcheck/commands"
	ferrors "git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("mdlinkcheck"),
		kong.Description("Check Markdown documents for broken relative, anchor and reference links."),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		slog.Error("Failed to build command line", "error", err)
		return ferrors.ExitInternal
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) {
			_ = parseErr.Context.PrintUsage(true)
		}
		return ferrors.ExitUsage
	}

	err = ctx.Run(commands.NewGlobal(), cli)
	if err == nil {
		return ferrors.ExitOK
	}
	var status commands.ExitStatus
	if errors.As(err, &status) {
		return int(status)
	}

	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	_, _ = os.Stderr.WriteString(adapter.FormatError(err) + "\n")
	return adapter.ExitCodeFor(err)
}
