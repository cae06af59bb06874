package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestRepo creates a temporary git repository for testing
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	repoPath := filepath.Join(t.TempDir(), "test-repo")
	if err := os.MkdirAll(repoPath, 0750); err != nil {
		t.Fatalf("Failed to create test repo directory: %v", err)
	}
	cmd := exec.Command("git", "init")
	cmd.Dir = repoPath
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to init git repo: %v\nOutput: %s", err, string(output))
	}
	return repoPath
}

func TestRegisterMergeDriver(t *testing.T) {
	repo := setupTestRepo(t)

	reg, err := RegisterMergeDriver(repo, []string{"project.json", "*.proj.json"}, "")
	if err != nil {
		t.Fatalf("RegisterMergeDriver() returned error: %v", err)
	}
	if reg.Driver != "pmerge merge %O %A %B" {
		t.Errorf("Driver = %q", reg.Driver)
	}
	if len(reg.Added) != 2 {
		t.Errorf("Added = %v, want 2 lines", reg.Added)
	}

	if got := DriverCommand(repo); got != "pmerge merge %O %A %B" {
		t.Errorf("DriverCommand() = %q", got)
	}

	data, err := os.ReadFile(filepath.Join(repo, ".gitattributes"))
	if err != nil {
		t.Fatalf("Failed to read .gitattributes: %v", err)
	}
	want := "project.json merge=projmerge\n*.proj.json merge=projmerge\n"
	if string(data) != want {
		t.Errorf(".gitattributes = %q, want %q", string(data), want)
	}
}

func TestRegisterMergeDriverIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	attrs := filepath.Join(repo, ".gitattributes")
	if err := os.WriteFile(attrs, []byte("*.png binary\nproject.json text merge=projmerge"), 0644); err != nil {
		t.Fatalf("Failed to write .gitattributes: %v", err)
	}

	reg, err := RegisterMergeDriver(repo, []string{"project.json", "other.json"}, "/usr/local/bin/pmerge")
	if err != nil {
		t.Fatalf("RegisterMergeDriver() returned error: %v", err)
	}
	if len(reg.Added) != 1 || reg.Added[0] != "other.json merge=projmerge" {
		t.Errorf("Added = %v", reg.Added)
	}

	reg, err = RegisterMergeDriver(repo, []string{"project.json", "other.json"}, "/usr/local/bin/pmerge")
	if err != nil {
		t.Fatalf("second RegisterMergeDriver() returned error: %v", err)
	}
	if len(reg.Added) != 0 {
		t.Errorf("second run added %v", reg.Added)
	}

	data, _ := os.ReadFile(attrs)
	if strings.Count(string(data), "merge=projmerge") != 2 {
		t.Errorf(".gitattributes = %q", string(data))
	}
	if !strings.HasPrefix(string(data), "*.png binary\nproject.json text merge=projmerge\n") {
		t.Errorf("existing lines not preserved: %q", string(data))
	}
	if got := DriverCommand(repo); got != "/usr/local/bin/pmerge merge %O %A %B" {
		t.Errorf("DriverCommand() = %q", got)
	}
}

func TestRegisterMergeDriverFromSubdirectory(t *testing.T) {
	repo := setupTestRepo(t)
	sub := filepath.Join(repo, "a", "b")
	if err := os.MkdirAll(sub, 0750); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	reg, err := RegisterMergeDriver(sub, []string{"project.json"}, "")
	if err != nil {
		t.Fatalf("RegisterMergeDriver() returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo, ".gitattributes")); err != nil {
		t.Errorf(".gitattributes not written at the root: %v", err)
	}
	if filepath.Base(reg.AttributesPath) != ".gitattributes" {
		t.Errorf("AttributesPath = %q", reg.AttributesPath)
	}
}

func TestRegisterMergeDriverOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
	if _, err := RegisterMergeDriver(t.TempDir(), []string{"project.json"}, ""); err == nil {
		t.Error("expected an error outside a repository")
	}
}

func TestGitDir(t *testing.T) {
	repo := setupTestRepo(t)

	dir, err := GitDir(repo)
	if err != nil {
		t.Fatalf("GitDir() returned error: %v", err)
	}
	if filepath.Base(dir) != ".git" {
		t.Errorf("GitDir() = %q", dir)
	}
	if IsWorktree(repo) {
		t.Error("IsWorktree() = true for a main checkout")
	}
}
