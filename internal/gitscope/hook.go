package gitscope

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// HookScript is the pre-commit hook installed by InstallHook.
const HookScript = `#!/usr/bin/env bash
# mdlinkcheck pre-commit hook - check links in changed Markdown files
set -e

if ! command -v mdlinkcheck &> /dev/null; then
    echo "mdlinkcheck not found in PATH"
    echo "   Install: go install git.home.luguber.info/inful/mdlinkcheck/cmd/mdlinkcheck@latest"
    echo "   Skipping link check..."
    exit 0
fi

if mdlinkcheck check --changed --quiet "$(git rev-parse --show-toplevel)"; then
    exit 0
else
    EXIT_CODE=$?
    echo ""
    echo "Broken Markdown links found"
    echo ""
    echo "To bypass this check (not recommended):"
    echo "  git commit --no-verify"
    echo ""
    exit $EXIT_CODE
fi
`

// HookInstall describes what InstallHook did.
type HookInstall struct {
	Path   string
	Backup string // empty when no existing hook was backed up
}

// InstallHook writes the pre-commit hook into gitDir/hooks. An existing hook is backed up
// first unless force is set.
func InstallHook(gitDir string, force bool, now time.Time) (*HookInstall, error) {
	hooksDir := filepath.Join(gitDir, "hooks")
	res := &HookInstall{Path: filepath.Join(hooksDir, "pre-commit")}

	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to create hooks directory").
			WithContext("path", hooksDir).
			Build()
	}

	if _, err := os.Stat(res.Path); err == nil && !force {
		res.Backup = fmt.Sprintf("%s.backup-%s", res.Path, now.Format("20060102-150405"))
		content, err := os.ReadFile(res.Path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to read existing hook").Build()
		}
		// #nosec G306 -- hooks must be executable
		if err := os.WriteFile(res.Backup, content, 0o755); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to create hook backup").Build()
		}
	}

	// #nosec G306 -- hooks must be executable
	if err := os.WriteFile(res.Path, []byte(HookScript), 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to write hook file").
			WithContext("path", res.Path).
			Build()
	}
	return res, nil
}
