package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

var sampleFinding = linkcheck.Diagnostic{
	File:   "docs/a.md",
	Reason: linkcheck.ReasonAnchor,
	Kind:   linkcheck.DirectLink,
	Text:   "see",
	Href:   "#setup",
}

func sampleSummary() *scan.Summary {
	return &scan.Summary{
		RunID:       "run-1",
		Root:        "docs",
		Duration:    1500 * time.Millisecond,
		Scanned:     3,
		Links:       12,
		Excluded:    1,
		Diagnostics: []linkcheck.Diagnostic{sampleFinding},
	}
}

func TestTextReporter(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewTextReporter(&out, &errOut, false)

	r.Start("docs/a.md")
	r.Finding(sampleFinding)
	r.ProcessingError("docs/b.md", errors.New("pandoc failed"))
	r.Finish(sampleSummary())
	require.NoError(t, r.Err())

	require.Contains(t, out.String(), "Processing file: docs/a.md\n")
	require.Contains(t, out.String(), "3 files scanned")
	require.Contains(t, out.String(), "1 broken link\n")
	require.Contains(t, out.String(), "run run-1 in 1.5s")
	require.Contains(t, out.String(), "Broken links found.")

	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	require.Equal(t, []string{
		"docs/a.md: Found broken relative (anchor) link: see - #setup",
		"docs/b.md: Failed to process document: pandoc failed",
	}, lines)
}

func TestTextReporter_QuietAndClean(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewTextReporter(&out, &errOut, true)

	r.Start("docs/a.md")
	r.Finish(&scan.Summary{Scanned: 1})

	require.NotContains(t, out.String(), "Processing file")
	require.Contains(t, out.String(), "1 file scanned")
	require.Contains(t, out.String(), "All links resolve.")
	require.Empty(t, errOut.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestTextReporter_KeepsFirstWriteError(t *testing.T) {
	r := NewTextReporter(failingWriter{}, failingWriter{}, false)
	r.Start("a.md")
	r.Finding(sampleFinding)
	require.EqualError(t, r.Err(), "closed")
}

func TestJSONReporter(t *testing.T) {
	var out bytes.Buffer
	r := NewJSONReporter(&out)

	r.Start("docs/a.md")
	r.Finding(sampleFinding)
	r.ProcessingError("docs/b.md", errors.New("pandoc failed"))
	r.Finish(sampleSummary())
	require.NoError(t, r.Err())

	var records []JSONRecord
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var rec JSONRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 3)

	require.Equal(t, RecordFinding, records[0].Type)
	require.Equal(t, "#setup", records[0].Href)
	require.Equal(t, "link", records[0].Kind)
	require.Equal(t, string(linkcheck.ReasonAnchor), records[0].Reason)

	require.Equal(t, RecordError, records[1].Type)
	require.Equal(t, "docs/b.md", records[1].File)

	require.Equal(t, RecordSummary, records[2].Type)
	require.Equal(t, "run-1", records[2].RunID)
	require.Equal(t, 1, records[2].Findings)
	require.Equal(t, int64(1500), records[2].DurationMS)
	require.Equal(t, "findings", records[2].Outcome)
}

func TestNew(t *testing.T) {
	var out bytes.Buffer
	require.IsType(t, &JSONReporter{}, New("json", &out, &out, false))
	require.IsType(t, &TextReporter{}, New("text", &out, &out, false))
}
