package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/scan"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/d/guide.md", false},
		{"/d/.hidden.md", false},
		{"/d/.docs", false},
		{"/d/.#guide.md", true},
		{"/d/guide.md~", true},
		{"/d/.guide.md.swp", true},
		{"/d/#guide.md#", true},
		{"/d/Thumbs.db", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, shouldIgnoreEvent(tt.path), tt.path)
	}
}

func TestDirectoryRulesMatchScanner(t *testing.T) {
	excluded := []string{"node_modules", "build", ".git"}
	root := t.TempDir()
	for _, rel := range []string{".docs/a", "build/x", "node_modules/p", ".git/objects", "builds/y"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o750))
	}

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	require.NoError(t, addDirsRecursive(w, root, excluded))

	watched := map[string]bool{}
	for _, p := range w.WatchList() {
		watched[p] = true
	}
	for _, rel := range []string{"", ".docs", ".docs/a", "builds", "builds/y"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.True(t, watched[p], "expected %s to be watched", rel)
		require.False(t, scan.PruneDir(root, p, excluded), rel)
	}
	for _, rel := range []string{"build", "node_modules", ".git"} {
		p := filepath.Join(root, rel)
		require.False(t, watched[p], "expected %s to be skipped", rel)
		require.True(t, scan.PruneDir(root, p, excluded), rel)
	}
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	requests := make(chan struct{}, 1)
	trigger, stop := newDebouncer(30*time.Millisecond, requests)
	defer stop()

	for range 5 {
		trigger()
	}
	select {
	case <-requests:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced request not delivered")
	}
	select {
	case <-requests:
		t.Fatal("triggers were not coalesced")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRun_RescansOnMarkdownChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# a\n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".docs", "d.md"), []byte("# d\n"), 0o600))

	scans := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, root, Options{Debounce: 20 * time.Millisecond, ExcludeFolders: []string{"build"}},
			func(context.Context) error {
				scans <- struct{}{}
				return nil
			})
	}()

	waitScan := func(msg string) {
		t.Helper()
		select {
		case <-scans:
		case <-time.After(5 * time.Second):
			t.Fatal(msg)
		}
	}
	drain := func() {
		for {
			select {
			case <-scans:
			case <-time.After(200 * time.Millisecond):
				return
			}
		}
	}

	waitScan("initial scan did not run")
	drain()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# a\n\n[x](b.md)\n"), 0o600))
	waitScan("markdown change did not trigger a scan")
	drain()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600))
	select {
	case <-scans:
		t.Fatal("non-markdown change triggered a scan")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o750))
	waitScan("new directory did not trigger a scan")
	drain()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.md"), []byte("# c\n"), 0o600))
	waitScan("change in new directory did not trigger a scan")
	drain()

	require.NoError(t, os.WriteFile(filepath.Join(root, ".docs", "d.md"), []byte("# d\n\n[x](e.md)\n"), 0o600))
	waitScan("change under a dot directory did not trigger a scan")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_MissingRoot(t *testing.T) {
	err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{}, func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestRun_PeriodicRecheck(t *testing.T) {
	root := t.TempDir()
	scans := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, root, Options{Debounce: 20 * time.Millisecond, Interval: 100 * time.Millisecond},
			func(context.Context) error {
				scans <- struct{}{}
				return nil
			})
	}()

	for i := range 3 {
		select {
		case <-scans:
		case <-time.After(5 * time.Second):
			t.Fatalf("scan %d did not run", i)
		}
	}
	cancel()
	require.NoError(t, <-done)
}
