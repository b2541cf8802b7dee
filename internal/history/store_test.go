package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
	"git.home.luguber.info/inful/mdlinkcheck/internal/metrics"
	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

func newSummary(id string, started time.Time, diags ...linkcheck.Diagnostic) *scan.Summary {
	return &scan.Summary{
		RunID:       id,
		Root:        "/docs",
		StartedAt:   started,
		Duration:    1500 * time.Millisecond,
		Discovered:  4,
		Excluded:    1,
		Scanned:     3,
		Links:       9,
		Diagnostics: diags,
	}
}

func TestStore_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	diags := []linkcheck.Diagnostic{
		{File: "/docs/a.md", Reason: linkcheck.ReasonFilesystem, Kind: linkcheck.DirectLink, Text: "gone", Href: "missing.md"},
		{File: "/docs/b.md", Reason: linkcheck.ReasonReference, Kind: linkcheck.ReferenceUse, Text: "y", Href: "nope"},
	}
	require.NoError(t, store.Record(ctx, newSummary("run-1", t0, diags...)))
	require.NoError(t, store.Record(ctx, newSummary("run-2", t0.Add(time.Hour))))

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-2", runs[0].ID)
	require.Equal(t, metrics.OutcomeClean, runs[0].Outcome)

	first := runs[1]
	require.Equal(t, "run-1", first.ID)
	require.Equal(t, "/docs", first.Root)
	require.True(t, t0.Equal(first.StartedAt))
	require.Equal(t, 1500*time.Millisecond, first.Duration)
	require.Equal(t, 3, first.Scanned)
	require.Equal(t, 9, first.Links)
	require.Equal(t, 2, first.Findings)
	require.Equal(t, metrics.OutcomeFindings, first.Outcome)

	got, err := store.Findings(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, diags, got)

	none, err := store.Findings(ctx, "run-2")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStore_RunsLimit(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, newSummary(id, t0.Add(time.Duration(i)*time.Minute))))
	}
	runs, err := store.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)
}

func TestStore_DuplicateRunIsRejected(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := newSummary("dup", time.Now(), linkcheck.Diagnostic{File: "/docs/a.md", Reason: linkcheck.ReasonAnchor, Href: "#x"})
	require.NoError(t, store.Record(ctx, s))
	require.Error(t, store.Record(ctx, s))

	got, err := store.Findings(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, newSummary("persisted", time.Now())))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "persisted", runs[0].ID)
}
