package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/gitscope"
)

// InstallHookCmd implements the 'install-hook' command.
type InstallHookCmd struct {
	Force bool   `help:"Overwrite existing hook without backup"`
	Repo  string `default:"." help:"Path inside the Git repository"`
}

// Run executes the install-hook command.
//
//nolint:forbidigo // fmt is used for user-facing messages
func (cmd *InstallHookCmd) Run(g *Global, _ *CLI) error {
	repo, err := gitscope.Open(cmd.Repo)
	if err != nil {
		return err
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		return err
	}

	res, err := gitscope.InstallHook(gitDir, cmd.Force, time.Now())
	if err != nil {
		return err
	}

	out := g.Stdout
	if res.Backup != "" {
		_, _ = fmt.Fprintf(out, "Backed up existing hook to: %s\n", res.Backup)
	}
	_, _ = fmt.Fprintln(out, "Pre-commit hook installed successfully")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "The hook will:")
	_, _ = fmt.Fprintln(out, "  - Run automatically on 'git commit'")
	_, _ = fmt.Fprintln(out, "  - Check links in changed Markdown files only")
	_, _ = fmt.Fprintln(out, "  - Block commits that introduce broken links")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "To uninstall:")
	_, _ = fmt.Fprintf(out, "  rm %s\n", res.Path)
	return nil
}
