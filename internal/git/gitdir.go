// Package git locates repositories and registers pmerge as a git merge driver.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoRoot returns the top-level directory of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := revParse(dir, "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return out, nil
}

// GitDir returns the .git directory for the repository containing dir.
// In a worktree .git is a file pointing elsewhere, so this asks git rather
// than joining dir with ".git".
func GitDir(dir string) (string, error) {
	out, err := revParse(dir, "--git-dir")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	return out, nil
}

// IsWorktree reports whether dir is inside a linked worktree, by comparing
// --git-dir and --git-common-dir.
func IsWorktree(dir string) bool {
	gitDir, err := revParse(dir, "--absolute-git-dir")
	if err != nil {
		return false
	}
	commonDir, err := revParse(dir, "--git-common-dir")
	if err != nil {
		return false
	}
	if !filepath.IsAbs(commonDir) {
		commonDir = filepath.Join(dir, commonDir)
	}
	absCommon, err := filepath.Abs(commonDir)
	if err != nil {
		return false
	}
	return filepath.Clean(gitDir) != absCommon
}

func revParse(dir string, flag string) (string, error) {
	cmd := exec.Command("git", "rev-parse", flag)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
