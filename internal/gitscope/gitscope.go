// Package gitscope narrows a scan to the Markdown files changed in a Git worktree and
// installs the pre-commit hook that runs such scans.
package gitscope

import (
	"path/filepath"
	"slices"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// Repo is a Git repository discovered from a path inside its worktree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing path, searching parent directories.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryUsage, "not in a Git repository").
			WithContext("path", path).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryUsage, "repository has no worktree").
			WithContext("path", path).
			Build()
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string {
	return r.root
}

// GitDir returns the repository's .git directory.
func (r *Repo) GitDir() (string, error) {
	storage, ok := r.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", errors.InternalError("repository storage is not on disk").Build()
	}
	return storage.Filesystem().Root(), nil
}

// ChangedFiles returns absolute paths of staged, modified and untracked files with one of
// the given extensions, sorted. Deleted files are left out.
func (r *Repo) ChangedFiles(extensions []string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryWalk, "failed to open worktree").Build()
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryWalk, "failed to read worktree status").
			WithContext("root", r.root).
			Build()
	}

	files := []string{}
	for path, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		if fs.Staging == git.Deleted || fs.Worktree == git.Deleted {
			continue
		}
		if len(extensions) > 0 && !slices.Contains(extensions, filepath.Ext(path)) {
			continue
		}
		files = append(files, filepath.Join(r.root, filepath.FromSlash(path)))
	}
	sort.Strings(files)
	return files, nil
}
