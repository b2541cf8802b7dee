package metrics

import "time"

// ResultLabel enumerates per-file result categories for counters.
type ResultLabel string

const (
	ResultScanned  ResultLabel = "scanned"
	ResultFailed   ResultLabel = "failed"
	ResultExcluded ResultLabel = "excluded"
)

// Run outcomes.
const (
	OutcomeClean    = "clean"
	OutcomeFindings = "findings"
	OutcomeErrors   = "errors"
	OutcomeCanceled = "canceled"
)

// Recorder defines observability hooks for scans. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveFileDuration(backend string, d time.Duration)
	IncFileResult(result ResultLabel)
	IncFinding(reason string)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: clean|findings|errors|canceled
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFileDuration(string, time.Duration) {}
func (NoopRecorder) IncFileResult(ResultLabel)                 {}
func (NoopRecorder) IncFinding(string)                         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncRunOutcome(string)                      {}
func (NoopRecorder) SetWorkers(int)                            {}
