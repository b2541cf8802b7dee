package gitscope

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

// initRepo creates a repository with one commit holding the given files.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for rel, content := range files {
		write(t, dir, rel, content)
		_, err := wt.Add(rel)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestChangedFiles(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"README.md":      "# readme\n",
		"docs/guide.md":  "# guide\n",
		"docs/old.md":    "# old\n",
		"docs/notes.txt": "notes\n",
	})

	write(t, dir, "docs/guide.md", "# guide\n\n[x](missing.md)\n")
	write(t, dir, "docs/new.md", "# new\n")
	write(t, dir, "docs/notes.txt", "changed\n")
	require.NoError(t, os.Remove(filepath.Join(dir, "docs", "old.md")))

	repo, err := Open(filepath.Join(dir, "docs"))
	require.NoError(t, err)

	files, err := repo.ChangedFiles([]string{".md"})
	require.NoError(t, err)

	root := repo.Root()
	require.Equal(t, []string{
		filepath.Join(root, "docs", "guide.md"),
		filepath.Join(root, "docs", "new.md"),
	}, files)
}

func TestChangedFiles_CleanWorktree(t *testing.T) {
	dir := initRepo(t, map[string]string{"README.md": "# readme\n"})
	repo, err := Open(dir)
	require.NoError(t, err)

	files, err := repo.ChangedFiles([]string{".md"})
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryUsage))
}

func TestGitDir(t *testing.T) {
	dir := initRepo(t, map[string]string{"README.md": "x\n"})
	repo, err := Open(dir)
	require.NoError(t, err)

	gitDir, err := repo.GitDir()
	require.NoError(t, err)
	require.Equal(t, ".git", filepath.Base(gitDir))
	info, err := os.Stat(gitDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInstallHook(t *testing.T) {
	gitDir := t.TempDir()
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	first, err := InstallHook(gitDir, false, now)
	require.NoError(t, err)
	require.Empty(t, first.Backup)

	content, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	require.Equal(t, HookScript, string(content))
	info, err := os.Stat(first.Path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100)

	second, err := InstallHook(gitDir, false, now)
	require.NoError(t, err)
	require.Equal(t, first.Path+".backup-20260506-070809", second.Backup)
	require.FileExists(t, second.Backup)

	forced, err := InstallHook(gitDir, true, now.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, forced.Backup)
}
