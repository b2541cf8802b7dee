package commands

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/history"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
	"git.home.luguber.info/inful/mdlinkcheck/internal/publish"
	"git.home.luguber.info/inful/mdlinkcheck/internal/report"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

// session holds the collaborators shared by every scan of one command invocation.
type session struct {
	cfg       *config.Config
	parser    markdown.Parser
	reporters scan.MultiReporter
	registry  *prom.Registry
	recorder  metrics.Recorder
	conn      *nats.Conn
	store     *history.Store
}

// openSession wires the parser, reporters and optional sinks for cfg. withRegistry forces
// a metrics registry even when no metrics file is configured.
func openSession(g *Global, cfg *config.Config, withRegistry bool) (*session, error) {
	s := &session{
		cfg: cfg,
		parser: markdown.New(markdown.Options{
			Backend:    cfg.Parser.Backend,
			PandocPath: cfg.Parser.PandocPath,
			Format:     cfg.Parser.Format,
			Timeout:    cfg.ParserTimeout(),
		}),
		reporters: scan.MultiReporter{report.New(cfg.Output.Format, g.Stdout, g.Stderr, cfg.Output.Quiet)},
		recorder:  metrics.NoopRecorder{},
	}

	if cfg.MetricsFile != "" || withRegistry {
		s.registry = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}

	if cfg.NATS.URL != "" {
		conn, err := publish.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		s.conn = conn
		s.reporters = append(s.reporters, publish.NewReporter(conn, cfg.NATS.Subject))
	}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// Close releases the NATS connection and history database.
func (s *session) Close() {
	if s.conn != nil {
		if err := s.conn.Drain(); err != nil {
			slog.Warn("Failed to drain NATS connection", logfields.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Failed to close history database", logfields.Error(err))
		}
	}
}

func (s *session) scanOptions(only []string) scan.Options {
	return scan.Options{
		ExcludeFolders:   s.cfg.ExcludeFolders,
		Extensions:       s.cfg.Extensions,
		Workers:          s.cfg.Workers,
		RespectGitignore: s.cfg.RespectGitignore,
		Only:             only,
		Check: linkcheck.Options{
			ExternalPrefixes: s.cfg.ExternalPrefixes,
			HeadingAnchors:   s.cfg.HeadingAnchors,
		},
	}
}

// scan runs one scan of root and feeds the side outputs. Failures of the side outputs are
// logged and do not change the result.
func (s *session) scan(ctx context.Context, root string, only []string) (*scan.Summary, error) {
	scanner := scan.New(s.parser, s.reporters, s.scanOptions(only)).WithRecorder(s.recorder)
	summary, err := scanner.Run(ctx, root)
	if err != nil {
		return summary, err
	}
	if err := s.reporterErr(); err != nil {
		return summary, err
	}

	if s.store != nil {
		if err := s.store.Record(ctx, summary); err != nil {
			slog.Warn("Failed to record run", logfields.RunID(summary.RunID), logfields.Error(err))
		}
	}
	if s.cfg.MetricsFile != "" && s.registry != nil {
		if err := metrics.WriteTextfile(s.cfg.MetricsFile, s.registry); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.File(s.cfg.MetricsFile), logfields.Error(err))
		}
	}
	return summary, nil
}

// reporterErr surfaces a failed write of the findings report. Warnings from optional
// sinks are logged only.
func (s *session) reporterErr() error {
	for _, r := range s.reporters {
		er, ok := r.(interface{ Err() error })
		if !ok {
			continue
		}
		err := er.Err()
		if err == nil {
			continue
		}
		if ce, ok := errors.AsClassified(err); ok && ce.Severity() == errors.SeverityWarning {
			slog.Warn("Report sink failed", logfields.Error(err))
			continue
		}
		return errors.WrapError(err, errors.CategoryInternal, "failed to write report").
			Fatal().
			Build()
	}
	return nil
}
