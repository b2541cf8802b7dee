package publish

import (
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

const flushTimeout = 5 * time.Second

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type flusher interface {
	FlushTimeout(timeout time.Duration) error
}

// Connect opens a NATS connection for publishing findings.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("mdlinkcheck"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS client initialized for broken link events", "url", conn.ConnectedUrlRedacted())
	return conn, nil
}

// Reporter publishes a BrokenLinkEvent per finding on subject and a RunCompletedEvent on
// subject + ".completed" once the scan finishes. Publishing failures are logged and never
// fail the scan.
type Reporter struct {
	pub     Publisher
	subject string
	now     func() time.Time

	err error
}

// NewReporter creates a NATS reporter.
func NewReporter(pub Publisher, subject string) *Reporter {
	return &Reporter{pub: pub, subject: subject, now: time.Now}
}

// Err returns the first publishing error, if any.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) Start(string)                  {}
func (r *Reporter) Finding(linkcheck.Diagnostic)  {}
func (r *Reporter) ProcessingError(string, error) {}

// Finish publishes the run's findings. Events are sent here rather than per finding so
// every event carries the run ID.
func (r *Reporter) Finish(s *scan.Summary) {
	ts := r.now()
	for _, d := range s.Diagnostics {
		rel, err := filepath.Rel(s.Root, d.File)
		if err != nil {
			rel = d.File
		}
		r.publish(r.subject, &BrokenLinkEvent{
			RunID:        s.RunID,
			Root:         s.Root,
			File:         d.File,
			RelativePath: filepath.ToSlash(rel),
			Reason:       string(d.Reason),
			Kind:         d.Kind.String(),
			Text:         d.Text,
			Href:         d.Href,
			Timestamp:    ts,
		})
	}
	r.publish(r.subject+".completed", &RunCompletedEvent{
		RunID:     s.RunID,
		Root:      s.Root,
		Outcome:   s.Outcome(),
		Scanned:   s.Scanned,
		Failed:    s.Failed,
		Findings:  s.Findings(),
		Timestamp: ts,
	})

	if f, ok := r.pub.(flusher); ok {
		if err := f.FlushTimeout(flushTimeout); err != nil {
			r.fail(errors.WrapError(err, errors.CategoryPublish, "failed to flush events").Warning().Build())
		}
	}
	if r.err == nil {
		slog.Debug("Published broken link events", "subject", r.subject, "count", len(s.Diagnostics))
	}
}

func (r *Reporter) publish(subject string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		r.fail(errors.WrapError(err, errors.CategoryPublish, "failed to marshal event").Warning().Build())
		return
	}
	if err := r.pub.Publish(subject, data); err != nil {
		r.fail(errors.WrapError(err, errors.CategoryPublish, "failed to publish event").
			Warning().
			WithContext("subject", subject).
			Build())
	}
}

func (r *Reporter) fail(err error) {
	slog.Warn("Publishing broken link event failed", "error", err)
	if r.err == nil {
		r.err = err
	}
}
