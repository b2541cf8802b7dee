package scan

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ShouldExclude reports whether entryPath, found while walking root, is left out of the
// scan: directories always are, as are files without one of the given extensions and
// files with any directory between root and the file named in excluded.
func ShouldExclude(root, entryPath string, isDir bool, excluded, extensions []string) bool {
	if isDir {
		return true
	}
	if !slices.Contains(extensions, filepath.Ext(entryPath)) {
		return true
	}
	return InExcludedFolder(root, filepath.Dir(entryPath), excluded)
}

// PruneDir reports whether the walk should skip the directory at path. Only the
// directory's own name is compared; root is never pruned.
func PruneDir(root, path string, excluded []string) bool {
	return filepath.Clean(path) != filepath.Clean(root) && slices.Contains(excluded, filepath.Base(path))
}

// InExcludedFolder reports whether dir, or any directory between root and dir, is named in
// excluded. root itself never counts.
func InExcludedFolder(root, dir string, excluded []string) bool {
	if len(excluded) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		rel = dir
	}
	if rel == "." {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if slices.Contains(excluded, seg) {
			return true
		}
	}
	return false
}

// gitignoreMatcher matches paths against the .gitignore at the scan root.
type gitignoreMatcher struct {
	root string
	gi   *ignore.GitIgnore
}

// loadGitignore compiles root/.gitignore. It returns nil when there is none.
func loadGitignore(root string) *gitignoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		slog.Warn("Failed to compile .gitignore, ignoring it", "path", path, "error", err)
		return nil
	}
	return &gitignoreMatcher{root: root, gi: gi}
}

// Ignored reports whether path is matched by the ignore rules.
func (m *gitignoreMatcher) Ignored(path string) bool {
	if m == nil {
		return false
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false
	}
	return m.gi.MatchesPath(filepath.ToSlash(rel))
}
