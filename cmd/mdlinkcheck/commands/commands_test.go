package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	ferrors "git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
	"git.home.luguber.info/inful/mdlinkcheck/internal/history"
)

type testEnv struct {
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	g      *Global
	root   *CLI
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	env := &testEnv{dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.g = &Global{Logger: slog.Default(), Stdout: env.stdout, Stderr: env.stderr}
	env.root = &CLI{Config: config.DefaultPath}
	return env
}

func exitStatus(err error) (int, bool) {
	var status ExitStatus
	if errors.As(err, &status) {
		return int(status), true
	}
	return 0, false
}

func TestCheck_BrokenLinksExitOne(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"README.md":     "[guide](docs/guide.md) [gone](missing.md)\n",
		"docs/guide.md": "[back](../README.md)\n",
	})

	cmd := &CheckCmd{Path: env.dir, ScanFlags: ScanFlags{Parser: "goldmark", Quiet: true}}
	err := cmd.run(context.Background(), env.g, env.root)
	code, ok := exitStatus(err)
	require.True(t, ok, "unexpected error %v", err)
	require.Equal(t, ferrors.ExitFindings, code)

	require.Contains(t, env.stderr.String(),
		filepath.Join(env.dir, "README.md")+": Found broken relative (filesystem) link: gone - missing.md")
	require.Contains(t, env.stdout.String(), "Broken links found.")
	require.NotContains(t, env.stdout.String(), "Processing file:")
}

func TestCheck_ExitZero(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "[gone](missing.md)\n"})
	cmd := &CheckCmd{Path: env.dir, ExitZero: true, ScanFlags: ScanFlags{Parser: "goldmark"}}
	require.NoError(t, cmd.run(context.Background(), env.g, env.root))
	require.Contains(t, env.stdout.String(), "Processing file:")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestCheck_ReportWriteFailure(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "[gone](missing.md)\n"})
	env.g.Stderr = failingWriter{}

	cmd := &CheckCmd{Path: env.dir, ScanFlags: ScanFlags{Parser: "goldmark", Quiet: true}}
	err := cmd.run(context.Background(), env.g, env.root)
	require.Error(t, err)
	_, isStatus := exitStatus(err)
	require.False(t, isStatus)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
	require.ErrorContains(t, err, "broken pipe")
}

func TestCheck_CleanTree(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.md":           "[b](b.md) [top](#top) [site](https://example.com)\n\n<a name=\"top\"></a>\n",
		"b.md":           "[a](a.md)\n",
		"build/x/bad.md": "[gone](missing.md)\n",
	})
	cmd := &CheckCmd{Path: env.dir, ScanFlags: ScanFlags{Parser: "goldmark"}}
	require.NoError(t, cmd.run(context.Background(), env.g, env.root))
	require.Contains(t, env.stdout.String(), "All links resolve.")
}

func TestCheck_JSONOutputAndSideOutputs(t *testing.T) {
	env := newTestEnv(t, map[string]string{"docs/a.md": "[x][nope]\n"})
	metricsFile := filepath.Join(env.dir, "out", "mdlinkcheck.prom")
	db := filepath.Join(env.dir, "out", "history.db")

	cmd := &CheckCmd{
		Path: filepath.Join(env.dir, "docs"),
		ScanFlags: ScanFlags{
			Parser:      "goldmark",
			Format:      "json",
			MetricsFile: metricsFile,
			DB:          db,
		},
	}
	err := cmd.run(context.Background(), env.g, env.root)
	_, ok := exitStatus(err)
	require.True(t, ok)

	var types []string
	sc := bufio.NewScanner(strings.NewReader(env.stdout.String()))
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		types = append(types, rec["type"].(string))
	}
	require.Equal(t, []string{"finding", "summary"}, types)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), "mdlinkcheck_findings_total")

	store, err := history.Open(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 1, runs[0].Findings)
}

func TestCheck_InvalidFlags(t *testing.T) {
	env := newTestEnv(t, nil)
	cmd := &CheckCmd{Path: env.dir, ScanFlags: ScanFlags{Parser: "markdown-it"}}
	err := cmd.run(context.Background(), env.g, env.root)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryUsage))
}

func TestCheck_MissingRoot(t *testing.T) {
	env := newTestEnv(t, nil)
	cmd := &CheckCmd{Path: filepath.Join(env.dir, "nope"), ScanFlags: ScanFlags{Parser: "goldmark"}}
	err := cmd.run(context.Background(), env.g, env.root)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryUsage))
	require.Equal(t, ferrors.ExitUsage, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCheck_ConfigFileIsApplied(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		".mdlinkcheck.yaml": "exclude_folders: [drafts]\nparser:\n  backend: goldmark\n",
		"drafts/a.md":       "[gone](missing.md)\n",
		"ok.md":             "fine\n",
	})
	cmd := &CheckCmd{Path: env.dir}
	require.NoError(t, cmd.run(context.Background(), env.g, env.root))
}

func TestLinks_PrintsLinksAndStats(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"a.md": "See [the guide](guide.md) and [x][lbl].\n\n[lbl]: other.md\n",
	})
	cmd := &LinksCmd{File: filepath.Join(env.dir, "a.md"), Parser: "goldmark"}
	require.NoError(t, cmd.Run(env.g, env.root))

	out := env.stdout.String()
	require.Contains(t, out, "the guide : guide.md\n")
	require.Contains(t, out, "Type Stats:\n")
	require.Contains(t, out, "x : lbl\n")
	require.Contains(t, out, `"Link": 1`)
	require.Contains(t, out, `"RefLink": 1`)
}

func TestLinks_MissingFile(t *testing.T) {
	env := newTestEnv(t, nil)
	err := (&LinksCmd{File: "nope.md", Parser: "goldmark"}).Run(env.g, env.root)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryUsage))
}

func TestHistory_ListsRunsAndFindings(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "[gone](missing.md)\n"})
	db := filepath.Join(env.dir, "history.db")

	check := &CheckCmd{Path: env.dir, ScanFlags: ScanFlags{Parser: "goldmark", Quiet: true, DB: db}}
	_ = check.run(context.Background(), env.g, env.root)

	env.stdout.Reset()
	require.NoError(t, (&HistoryCmd{DB: db, Limit: 10, Format: "json"}).Run(env.g, env.root))
	var runs []history.Run
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &runs))
	require.Len(t, runs, 1)

	env.stdout.Reset()
	require.NoError(t, (&HistoryCmd{DB: db, RunID: runs[0].ID, Format: "text"}).Run(env.g, env.root))
	require.Contains(t, env.stdout.String(), "Found broken relative (filesystem) link: gone - missing.md")

	env.stdout.Reset()
	require.NoError(t, (&HistoryCmd{DB: db, Format: "text"}).Run(env.g, env.root))
	require.Contains(t, env.stdout.String(), runs[0].ID)
}

func TestHistory_RequiresDatabase(t *testing.T) {
	env := newTestEnv(t, nil)
	err := (&HistoryCmd{Format: "text"}).Run(env.g, env.root)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryUsage))
}

func TestWatch_InitialScanThenStop(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "[self](a.md)\n"})
	ctx, cancel := context.WithTimeout(context.Background(), 750*time.Millisecond)
	defer cancel()

	cmd := &WatchCmd{Path: env.dir, Debounce: 20 * time.Millisecond, ScanFlags: ScanFlags{Parser: "goldmark", Quiet: true}}
	require.NoError(t, cmd.run(ctx, env.g, env.root))
	require.Contains(t, env.stdout.String(), "All links resolve.")
}

func TestWatch_RequiresDirectory(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.md": "x\n"})
	cmd := &WatchCmd{Path: filepath.Join(env.dir, "a.md"), ScanFlags: ScanFlags{Parser: "goldmark"}}
	err := cmd.run(context.Background(), env.g, env.root)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryUsage))
}

func TestExitStatus(t *testing.T) {
	require.Equal(t, "exit status 1", ExitStatus(1).Error())
}
