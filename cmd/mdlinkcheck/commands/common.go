package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal returns a Global writing to the process's standard streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:".mdlinkcheck.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check       CheckCmd       `cmd:"" default:"withargs" help:"Check Markdown links under a directory (default)"`
	Links       LinksCmd       `cmd:"" help:"List every link in one Markdown file with node statistics"`
	Watch       WatchCmd       `cmd:"" help:"Re-check whenever Markdown files change"`
	History     HistoryCmd     `cmd:"" help:"Show recorded runs and their findings"`
	InstallHook InstallHookCmd `cmd:"" help:"Install a pre-commit hook checking changed Markdown files"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ExitStatus is returned by commands that finished normally but must exit non-zero.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// ScanFlags override configuration values for commands that run scans.
type ScanFlags struct {
	Workers        int      `short:"w" help:"Number of parallel workers (overrides config)"`
	Parser         string   `help:"Parser backend: auto, pandoc or goldmark (overrides config)"`
	Exclude        []string `help:"Folder names to skip (replaces the configured list)" sep:","`
	HeadingAnchors bool     `help:"Treat heading identifiers as anchors"`
	Gitignore      bool     `help:"Skip files matched by the root .gitignore"`
	Format         string   `short:"f" help:"Output format: text or json (overrides config)"`
	Quiet          bool     `short:"q" help:"Suppress per-file progress lines"`
	MetricsFile    string   `help:"Write Prometheus metrics to this textfile after each run"`
	NATSURL        string   `name:"nats-url" help:"Publish broken link events to this NATS server"`
	DB             string   `name:"db" help:"Record runs and findings in this SQLite database"`
}

// apply copies every set flag onto cfg and revalidates it.
func (f *ScanFlags) apply(cfg *config.Config) error {
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.Parser != "" {
		cfg.Parser.Backend = f.Parser
	}
	if f.Exclude != nil {
		cfg.ExcludeFolders = f.Exclude
	}
	if f.HeadingAnchors {
		cfg.HeadingAnchors = true
	}
	if f.Gitignore {
		cfg.RespectGitignore = true
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.Quiet {
		cfg.Output.Quiet = true
	}
	if f.MetricsFile != "" {
		cfg.MetricsFile = f.MetricsFile
	}
	if f.NATSURL != "" {
		cfg.NATS.URL = f.NATSURL
	}
	if f.DB != "" {
		cfg.HistoryDB = f.DB
	}
	if err := cfg.Validate(); err != nil {
		return errors.WrapError(err, errors.CategoryUsage, "invalid flags").Fatal().Build()
	}
	return nil
}

// loadConfig loads the configuration named by the global --config flag.
func loadConfig(root *CLI) (*config.Config, error) {
	path := config.DefaultPath
	if root != nil && root.Config != "" {
		path = root.Config
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", "path", path)
	return cfg, nil
}
