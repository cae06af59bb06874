package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// DriverName is the merge driver name used in git config and .gitattributes.
const DriverName = "projmerge"

// DefaultCommand is the executable git invokes for the driver.
const DefaultCommand = "pmerge"

// Registration describes what RegisterMergeDriver changed.
type Registration struct {
	Root           string
	Driver         string
	AttributesPath string
	Added          []string
}

// RegisterMergeDriver configures the repository containing dir to merge
// files matching patterns with pmerge. It sets merge.projmerge.* in the
// repository's git config and appends "<pattern> merge=projmerge" lines to
// the top-level .gitattributes. Running it again adds nothing new.
func RegisterMergeDriver(dir string, patterns []string, command string) (*Registration, error) {
	if command == "" {
		command = DefaultCommand
	}
	root, err := RepoRoot(dir)
	if err != nil {
		return nil, err
	}

	driver := command + " merge %O %A %B"
	if err := gitConfig(root, "merge."+DriverName+".name", "project document merge"); err != nil {
		return nil, err
	}
	if err := gitConfig(root, "merge."+DriverName+".driver", driver); err != nil {
		return nil, err
	}

	attrPath := filepath.Join(root, ".gitattributes")
	added, err := addAttributes(attrPath, patterns)
	if err != nil {
		return nil, err
	}
	return &Registration{Root: root, Driver: driver, AttributesPath: attrPath, Added: added}, nil
}

// DriverCommand returns the configured merge driver command, or "" when the
// driver is not registered.
func DriverCommand(dir string) string {
	cmd := exec.Command("git", "config", "--get", "merge."+DriverName+".driver")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func gitConfig(root, key, value string) error {
	cmd := exec.Command("git", "config", key, value)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git config %s: %w: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// addAttributes appends a merge attribute line for each pattern that does
// not already have one and returns the lines it wrote.
func addAttributes(path string, patterns []string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - .gitattributes at the repository root
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	existing := registeredPatterns(data)
	var added []string
	for _, p := range lo.Uniq(patterns) {
		if p == "" || lo.Contains(existing, p) {
			continue
		}
		added = append(added, p+" merge="+DriverName)
	}
	if len(added) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	for _, line := range added {
		buf.WriteString(line + "\n")
	}
	// #nosec G306 - .gitattributes is committed and world-readable
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return added, nil
}

// registeredPatterns lists the patterns already assigned to the driver.
func registeredPatterns(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if lo.Contains(fields[1:], "merge="+DriverName) {
			out = append(out, fields[0])
		}
	}
	return out
}
