package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/gitscope"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	ScanFlags `embed:""`

	Path     string `arg:"" help:"Directory to scan"`
	Changed  bool   `help:"Only check Markdown files changed in the Git worktree"`
	ExitZero bool   `help:"Exit 0 even when broken links or unreadable documents are found"`
}

// Run executes the check command.
func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return c.run(ctx, g, root)
}

func (c *CheckCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}

	var only []string
	if c.Changed {
		repo, err := gitscope.Open(c.Path)
		if err != nil {
			return err
		}
		if only, err = repo.ChangedFiles(cfg.Extensions); err != nil {
			return err
		}
		slog.Info("Checking changed files only", "count", len(only))
	}

	s, err := openSession(g, cfg, false)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.scan(ctx, c.Path, only)
	if err != nil {
		return err
	}

	if (summary.HasFindings() || summary.HasErrors()) && !c.ExitZero {
		return ExitStatus(errors.ExitFindings)
	}
	return nil
}
