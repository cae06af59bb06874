package debug

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withState restores the package switches when the test ends.
func withState(t *testing.T, env, verbose, quiet bool) {
	t.Helper()
	oldEnabled, oldVerbose, oldQuiet := enabled, verboseMode, quietMode
	t.Cleanup(func() {
		enabled, verboseMode, quietMode = oldEnabled, oldVerbose, oldQuiet
	})
	enabled, verboseMode, quietMode = env, verbose, quiet
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name    string
		env     bool
		verbose bool
		want    bool
	}{
		{"PM_DEBUG set", true, false, true},
		{"--verbose", false, true, true},
		{"neither", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withState(t, tt.env, tt.verbose, false)
			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}

	withState(t, false, false, false)
	SetVerbose(true)
	if !Enabled() {
		t.Error("Enabled() should be true after SetVerbose(true)")
	}
}

func TestLogf(t *testing.T) {
	for _, on := range []bool{true, false} {
		withState(t, false, on, false)

		oldStderr := os.Stderr
		r, w, _ := os.Pipe()
		os.Stderr = w
		Logf("merged %s\n", "p.json")
		w.Close()
		os.Stderr = oldStderr

		var buf bytes.Buffer
		io.Copy(&buf, r)
		want := ""
		if on {
			want = "merged p.json\n"
		}
		if got := buf.String(); got != want {
			t.Errorf("verbose=%v: Logf() output = %q, want %q", on, got, want)
		}
	}
}

func TestPrintNormal(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		want  string
	}{
		{"prints when not quiet", false, "p.json is valid\nok\n"},
		{"silent when quiet", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withState(t, false, false, false)
			SetQuiet(tt.quiet)
			if IsQuiet() != tt.quiet {
				t.Fatalf("IsQuiet() = %v after SetQuiet(%v)", IsQuiet(), tt.quiet)
			}

			var buf bytes.Buffer
			PrintNormal(&buf, "%s is valid\n", "p.json")
			PrintlnNormal(&buf, "ok")
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogEvent(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".projmerge"), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	chdir(t, sub)
	t.Setenv("USER", "alice")

	LogEvent("MERGE_OK", "project.json", "conflicts=0")
	LogEvent("MERGE_FAILED", "", "boom")

	data, err := os.ReadFile(filepath.Join(root, ".projmerge", "events.log"))
	if err != nil {
		t.Fatalf("events.log not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}
	if !strings.HasSuffix(lines[0], "|MERGE_OK|project.json|alice|conflicts=0") {
		t.Errorf("first entry = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "|MERGE_FAILED|none|alice|boom") {
		t.Errorf("second entry = %q", lines[1])
	}
}

func TestLogEventOutsideProject(t *testing.T) {
	chdir(t, t.TempDir())
	LogEvent("MERGE_OK", "x", "") // must not panic or create files
	if _, err := os.Stat(".projmerge"); !os.IsNotExist(err) {
		t.Errorf("LogEvent created .projmerge outside a project")
	}
}
