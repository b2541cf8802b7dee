// Package report renders scan progress and findings for humans and machines.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

// TextReporter prints progress and the summary to out and one line per finding to errOut.
type TextReporter struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool

	mu  sync.Mutex
	err error
}

// NewTextReporter creates a text reporter. quiet suppresses the per-file progress lines.
func NewTextReporter(out, errOut io.Writer, quiet bool) *TextReporter {
	return &TextReporter{out: out, errOut: errOut, quiet: quiet}
}

// Err returns the first write error, if any.
func (r *TextReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *TextReporter) printf(w io.Writer, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		r.err = err
	}
}

func (r *TextReporter) Start(path string) {
	if r.quiet {
		return
	}
	r.printf(r.out, "Processing file: %s\n", path)
}

func (r *TextReporter) Finding(d linkcheck.Diagnostic) {
	r.printf(r.errOut, "%s\n", d.String())
}

func (r *TextReporter) ProcessingError(path string, err error) {
	r.printf(r.errOut, "%s: Failed to process document: %v\n", path, err)
}

func (r *TextReporter) Finish(s *scan.Summary) {
	r.printf(r.out, "%s\n", strings.Repeat("━", 60))
	r.printf(r.out, "Results:\n")
	r.printf(r.out, "  %d file%s scanned\n", s.Scanned, pluralize(s.Scanned))
	r.printf(r.out, "  %d link%s checked\n", s.Links, pluralize(s.Links))
	if n := s.Findings(); n > 0 {
		r.printf(r.out, "  %d broken link%s\n", n, pluralize(n))
	}
	if s.Failed > 0 {
		r.printf(r.out, "  %d file%s could not be processed\n", s.Failed, pluralize(s.Failed))
	}
	if s.Excluded > 0 {
		r.printf(r.out, "  %d file%s excluded\n", s.Excluded, pluralize(s.Excluded))
	}
	r.printf(r.out, "  run %s in %s\n\n", s.RunID, s.Duration.Round(time.Millisecond))

	switch {
	case s.HasErrors():
		r.printf(r.out, "Some documents could not be checked.\n")
	case s.HasFindings():
		r.printf(r.out, "Broken links found.\n")
	default:
		r.printf(r.out, "All links resolve.\n")
	}
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
