// Package scan walks a directory tree and runs every Markdown document through the
// read, parse and verify pipeline.
package scan

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/logfields"
	"git.home.luguber.info/inful/mdlinkcheck/internal/markdown"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
)

// Stage is a step of the per-file pipeline.
type Stage string

const (
	StageDiscovered       Stage = "discovered"
	StageFiltered         Stage = "filtered"
	StageRead             Stage = "read"
	StageParsed           Stage = "parsed"
	StageAnchorsCollected Stage = Stage(linkcheck.PhaseAnchorsCollected)
	StageLinksCollected   Stage = Stage(linkcheck.PhaseLinksCollected)
	StageVerified         Stage = Stage(linkcheck.PhaseVerified)
	StageReported         Stage = "reported"
)

// Options configures a Scanner.
type Options struct {
	ExcludeFolders   []string
	Extensions       []string
	Workers          int
	RespectGitignore bool
	// Only restricts the scan to these files when non-nil.
	Only  []string
	Check linkcheck.Options
}

// Scanner runs scans. A Scanner may be reused for several runs but not concurrently.
type Scanner struct {
	parser   markdown.Parser
	reporter Reporter
	recorder metrics.Recorder
	opts     Options
}

// New creates a scanner.
func New(parser markdown.Parser, reporter Reporter, opts Options) *Scanner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".md"}
	}
	return &Scanner{parser: parser, reporter: reporter, recorder: metrics.NoopRecorder{}, opts: opts}
}

// WithRecorder sets the metrics recorder.
func (s *Scanner) WithRecorder(r metrics.Recorder) *Scanner {
	if r != nil {
		s.recorder = r
	}
	return s
}

// FileError is a file whose pipeline was aborted.
type FileError struct {
	Path  string `json:"path"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

// Summary is the outcome of one scan.
type Summary struct {
	RunID       string                 `json:"run_id"`
	Root        string                 `json:"root"`
	StartedAt   time.Time              `json:"started_at"`
	Duration    time.Duration          `json:"duration"`
	Discovered  int                    `json:"discovered"`
	Excluded    int                    `json:"excluded"`
	Scanned     int                    `json:"scanned"`
	Failed      int                    `json:"failed"`
	Links       int                    `json:"links"`
	Diagnostics []linkcheck.Diagnostic `json:"diagnostics"`
	Errors      []FileError            `json:"errors,omitempty"`
}

// Findings returns the number of broken links.
func (s *Summary) Findings() int {
	return len(s.Diagnostics)
}

// HasFindings returns true if any link is broken.
func (s *Summary) HasFindings() bool {
	return len(s.Diagnostics) > 0
}

// HasErrors returns true if any file could not be processed.
func (s *Summary) HasErrors() bool {
	return len(s.Errors) > 0
}

// Outcome classifies the run for metrics and history.
func (s *Summary) Outcome() string {
	switch {
	case s.HasErrors():
		return metrics.OutcomeErrors
	case s.HasFindings():
		return metrics.OutcomeFindings
	default:
		return metrics.OutcomeClean
	}
}

type fileResult struct {
	path    string
	stage   Stage
	backend string
	result  *linkcheck.Result
	err     error
	elapsed time.Duration
}

// Run scans root. Unreadable entries and files that fail to read or parse are reported
// and skipped; only a missing or non-directory root, or cancellation, fails the run.
func (s *Scanner) Run(ctx context.Context, root string) (*Summary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryUsage, "scan root does not exist").
			Fatal().
			WithContext("root", root).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.UsageError("scan root is not a directory").
			WithContext("root", root).
			Build()
	}

	summary := &Summary{RunID: uuid.NewString(), Root: root, StartedAt: time.Now()}
	log := slog.With(logfields.RunID(summary.RunID))
	log.Info("Starting scan", logfields.Root(root), slog.Int("workers", s.opts.Workers))
	s.recorder.SetWorkers(s.opts.Workers)

	var gitignore *gitignoreMatcher
	if s.opts.RespectGitignore {
		gitignore = loadGitignore(root)
	}
	only := s.onlySet()

	tasks := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	worker := func() {
		defer wg.Done()
		for path := range tasks {
			mu.Lock()
			s.reporter.Start(path)
			mu.Unlock()

			res := s.processFile(ctx, path)

			mu.Lock()
			s.report(summary, res)
			mu.Unlock()
		}
	}
	wg.Add(s.opts.Workers)
	for range s.opts.Workers {
		go worker()
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("Skipping unreadable entry", logfields.File(path), logfields.Error(
				errors.WrapError(err, errors.CategoryWalk, "walk failed").Build()))
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if PruneDir(root, path, s.opts.ExcludeFolders) {
				log.Debug("Skipping excluded folder", logfields.File(path))
				return fs.SkipDir
			}
			return nil
		}

		mu.Lock()
		summary.Discovered++
		mu.Unlock()
		log.Debug("Document discovered", logfields.File(path), logfields.Stage(string(StageDiscovered)))

		if s.excluded(root, path, gitignore, only) {
			mu.Lock()
			summary.Excluded++
			s.recorder.IncFileResult(metrics.ResultExcluded)
			mu.Unlock()
			return nil
		}

		select {
		case tasks <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(tasks)
	wg.Wait()

	linkcheck.SortDiagnostics(summary.Diagnostics)
	summary.Duration = time.Since(summary.StartedAt)
	s.recorder.ObserveRunDuration(summary.Duration)

	if walkErr != nil {
		s.recorder.IncRunOutcome(metrics.OutcomeCanceled)
		return summary, errors.WrapError(walkErr, errors.CategoryWalk, "scan aborted").
			WithContext("root", root).
			Build()
	}

	s.recorder.IncRunOutcome(summary.Outcome())
	s.reporter.Finish(summary)
	log.Info("Scan complete",
		logfields.Count(summary.Scanned),
		slog.Int("findings", summary.Findings()),
		slog.Int("failed", summary.Failed),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())))
	return summary, nil
}

func (s *Scanner) excluded(root, path string, gitignore *gitignoreMatcher, only map[string]struct{}) bool {
	if ShouldExclude(root, path, false, s.opts.ExcludeFolders, s.opts.Extensions) {
		return true
	}
	if gitignore.Ignored(path) {
		return true
	}
	if only != nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return true
		}
		if _, ok := only[abs]; !ok {
			return true
		}
	}
	return false
}

func (s *Scanner) onlySet() map[string]struct{} {
	if s.opts.Only == nil {
		return nil
	}
	set := make(map[string]struct{}, len(s.opts.Only))
	for _, p := range s.opts.Only {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = struct{}{}
		}
	}
	return set
}

// processFile runs one document from Read to Verified.
func (s *Scanner) processFile(ctx context.Context, path string) fileResult {
	start := time.Now()
	res := fileResult{path: path, stage: StageFiltered}
	log := slog.With(logfields.File(path))

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the scan root
	if err != nil {
		res.err = errors.WrapError(err, errors.CategoryRead, "failed to read document").
			WithContext("path", path).
			Build()
		return res
	}
	res.stage = StageRead

	doc, err := s.parser.Parse(ctx, raw)
	if err != nil {
		if _, ok := errors.AsClassified(err); !ok {
			err = errors.WrapError(err, errors.CategoryParse, "failed to parse document").Build()
		}
		res.err = err
		return res
	}
	res.stage = StageParsed
	res.backend = doc.Backend

	opts := s.opts.Check
	opts.OnPhase = func(p linkcheck.Phase) {
		res.stage = Stage(p)
		log.Debug("Document stage", logfields.Stage(string(p)))
	}
	res.result = linkcheck.Check(path, doc, opts)
	res.elapsed = time.Since(start)
	log.Debug("Document verified",
		logfields.Backend(doc.Backend),
		slog.Int("links", len(res.result.Links)),
		slog.Int("anchors", len(res.result.Anchors)),
		slog.Int("findings", len(res.result.Diagnostics)))
	return res
}

// report moves a file to Reported. Callers hold the scan mutex.
func (s *Scanner) report(summary *Summary, res fileResult) {
	if res.err != nil {
		slog.Error("Failed to process document",
			logfields.File(res.path),
			logfields.Stage(string(res.stage)),
			logfields.Error(res.err))
		summary.Failed++
		summary.Errors = append(summary.Errors, FileError{Path: res.path, Stage: res.stage, Error: res.err.Error()})
		s.recorder.IncFileResult(metrics.ResultFailed)
		s.reporter.ProcessingError(res.path, res.err)
		return
	}

	summary.Scanned++
	summary.Links += len(res.result.Links)
	s.recorder.IncFileResult(metrics.ResultScanned)
	s.recorder.ObserveFileDuration(res.backend, res.elapsed)
	for _, d := range res.result.Diagnostics {
		summary.Diagnostics = append(summary.Diagnostics, d)
		slog.Debug("Broken link", logfields.File(d.File), logfields.Href(d.Href), logfields.Reason(string(d.Reason)))
		s.recorder.IncFinding(string(d.Reason))
		s.reporter.Finding(d)
	}
	slog.Debug("Document reported", logfields.File(res.path), logfields.Stage(string(StageReported)))
}
