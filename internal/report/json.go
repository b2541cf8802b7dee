package report

import (
	"encoding/json"
	"io"
	"sync"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

// Record types written by JSONReporter.
const (
	RecordFinding = "finding"
	RecordError   = "error"
	RecordSummary = "summary"
)

// JSONRecord is one line of JSON output.
type JSONRecord struct {
	Type       string `json:"type"`
	File       string `json:"file,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Text       string `json:"text,omitempty"`
	Href       string `json:"href,omitempty"`
	Error      string `json:"error,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Root       string `json:"root,omitempty"`
	Scanned    int    `json:"scanned,omitempty"`
	Failed     int    `json:"failed,omitempty"`
	Excluded   int    `json:"excluded,omitempty"`
	Links      int    `json:"links,omitempty"`
	Findings   int    `json:"findings,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
}

// JSONReporter writes one JSON object per finding, processing error and summary.
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONReporter creates a JSON lines reporter.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// Err returns the first write error, if any.
func (r *JSONReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *JSONReporter) write(rec JSONRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.err = r.enc.Encode(rec)
}

func (r *JSONReporter) Start(string) {}

func (r *JSONReporter) Finding(d linkcheck.Diagnostic) {
	r.write(JSONRecord{
		Type:   RecordFinding,
		File:   d.File,
		Reason: string(d.Reason),
		Kind:   d.Kind.String(),
		Text:   d.Text,
		Href:   d.Href,
	})
}

func (r *JSONReporter) ProcessingError(path string, err error) {
	r.write(JSONRecord{Type: RecordError, File: path, Error: err.Error()})
}

func (r *JSONReporter) Finish(s *scan.Summary) {
	r.write(JSONRecord{
		Type:       RecordSummary,
		RunID:      s.RunID,
		Root:       s.Root,
		Scanned:    s.Scanned,
		Failed:     s.Failed,
		Excluded:   s.Excluded,
		Links:      s.Links,
		Findings:   s.Findings(),
		DurationMS: s.Duration.Milliseconds(),
		Outcome:    s.Outcome(),
	})
}

// New returns the reporter for format ("text" or "json").
func New(format string, out, errOut io.Writer, quiet bool) scan.Reporter {
	if format == "json" {
		return NewJSONReporter(out)
	}
	return NewTextReporter(out, errOut, quiet)
}
