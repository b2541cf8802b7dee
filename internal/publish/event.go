// Package publish sends broken-link findings to NATS.
package publish

import "time"

// BrokenLinkEvent represents a broken link discovered during a scan.
// It is published to NATS for downstream processing (e.g., creating forge issues).
type BrokenLinkEvent struct {
	RunID        string    `json:"run_id"`
	Root         string    `json:"root"`
	File         string    `json:"file"`          // Document path as walked
	RelativePath string    `json:"relative_path"` // Document path relative to the scan root
	Reason       string    `json:"reason"`
	Kind         string    `json:"kind"`
	Text         string    `json:"text"`
	Href         string    `json:"href"` // href, or reference label for reference uses
	Timestamp    time.Time `json:"timestamp"`
}

// RunCompletedEvent summarises a finished scan.
type RunCompletedEvent struct {
	RunID     string    `json:"run_id"`
	Root      string    `json:"root"`
	Outcome   string    `json:"outcome"`
	Scanned   int       `json:"scanned"`
	Failed    int       `json:"failed"`
	Findings  int       `json:"findings"`
	Timestamp time.Time `json:"timestamp"`
}
