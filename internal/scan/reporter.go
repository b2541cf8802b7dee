package scan

import (
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// Reporter receives scan progress. The scanner never calls a Reporter concurrently.
type Reporter interface {
	Start(path string)
	Finding(d linkcheck.Diagnostic)
	ProcessingError(path string, err error)
	Finish(summary *Summary)
}

// MultiReporter fans every call out to each of its reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Start(path string) {
	for _, r := range m {
		r.Start(path)
	}
}

func (m MultiReporter) Finding(d linkcheck.Diagnostic) {
	for _, r := range m {
		r.Finding(d)
	}
}

func (m MultiReporter) ProcessingError(path string, err error) {
	for _, r := range m {
		r.ProcessingError(path, err)
	}
}

func (m MultiReporter) Finish(summary *Summary) {
	for _, r := range m {
		r.Finish(summary)
	}
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Start(string)                  {}
func (NopReporter) Finding(linkcheck.Diagnostic)  {}
func (NopReporter) ProcessingError(string, error) {}
func (NopReporter) Finish(*Summary)               {}
