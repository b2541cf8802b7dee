package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	DB     string `name:"db" help:"History database (overrides config history_db)"`
	RunID  string `name:"run" help:"Show the findings of this run instead of the run list"`
	Limit  int    `default:"20" help:"Number of runs to list (0 for all)"`
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := cfg.HistoryDB
	if c.DB != "" {
		path = c.DB
	}
	if path == "" {
		return errors.UsageError("no history database configured (use --db or history_db)").Build()
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if c.RunID != "" {
		return c.printFindings(ctx, g, store)
	}
	return c.printRuns(ctx, g, store)
}

func (c *HistoryCmd) printRuns(ctx context.Context, g *Global, store *history.Store) error {
	runs, err := store.Runs(ctx, c.Limit)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return encodeJSON(g, runs)
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tROOT\tSCANNED\tFAILED\tFINDINGS\tOUTCOME")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Root, r.Scanned, r.Failed, r.Findings, r.Outcome)
	}
	return tw.Flush()
}

func (c *HistoryCmd) printFindings(ctx context.Context, g *Global, store *history.Store) error {
	findings, err := store.Findings(ctx, c.RunID)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return encodeJSON(g, findings)
	}
	for _, d := range findings {
		if _, err := fmt.Fprintln(g.Stdout, d.String()); err != nil {
			return err
		}
	}
	return nil
}

func encodeJSON(g *Global, v any) error {
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
