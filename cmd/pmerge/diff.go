package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/projmerge/projmerge/internal/codec"
	"github.com/projmerge/projmerge/internal/config"
	"github.com/projmerge/projmerge/internal/diff"
	"github.com/projmerge/projmerge/internal/telemetry"
	"github.com/projmerge/projmerge/internal/types"
	"github.com/projmerge/projmerge/internal/ui"
)

var (
	diffFormat  string
	diffWatch   bool
	diffNoPager bool
)

var diffCmd = &cobra.Command{
	Use:     "diff <base> <current>",
	GroupID: "merge",
	Short:   "Show what changed between two project documents",
	Long: `Compare two project documents component by component.

Formats:
  text  grouped, colored summary (default; paged when long)
  json  the full report, with annotated component graphs
  yaml  the same report as YAML

With --watch the diff is re-run whenever either file changes.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		format := diffFormat
		if !cmd.Flags().Changed("format") {
			format = config.GetString("diff.format")
		}
		if err := checkDiffFormat(format); err != nil {
			FatalErrorWithHint(err.Error(), "Use --format text, json or yaml")
		}

		ctx := rootContext()
		if diffWatch {
			if err := watchDiff(ctx, args[0], args[1], format, cmd.OutOrStdout()); err != nil {
				FatalError("%v", err)
			}
			return
		}

		out, err := runDiff(ctx, args[0], args[1], format)
		if err != nil {
			FatalError("%v", err)
		}
		if format == "text" {
			if err := ui.ToPager(out, ui.PagerOptions{NoPager: diffNoPager}); err != nil {
				FatalError("%v", err)
			}
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
	},
}

func checkDiffFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

// runDiff loads both documents, diffs them and renders the report.
func runDiff(ctx context.Context, basePath, currentPath, format string) (string, error) {
	base, err := loadProject(basePath)
	if err != nil {
		return "", err
	}
	current, err := loadProject(currentPath)
	if err != nil {
		return "", err
	}

	report, err := telemetry.TrackDiff(ctx, func(context.Context) (*diff.Report, error) {
		return diff.Projects(base, current, diff.Options{Logger: getLogger()}), nil
	})
	if err != nil {
		return "", err
	}
	return renderDiff(report, format)
}

func renderDiff(report *diff.Report, format string) (string, error) {
	switch format {
	case "json":
		data, err := codec.MarshalValue(report, config.Indent())
		if err != nil {
			return "", fmt.Errorf("encoding report: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := toYAML(report)
		if err != nil {
			return "", fmt.Errorf("encoding report: %w", err)
		}
		return string(data), nil
	default:
		return ui.RenderDiff(report), nil
	}
}

func loadProject(path string) (*types.Project, error) {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := codec.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// watchDiff prints the diff, then prints it again whenever either file is
// written, until ctx is canceled. The parent directories are watched since
// editors often replace a file rather than write it in place.
func watchDiff(ctx context.Context, basePath, currentPath, format string, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]bool)
	for _, p := range []string{basePath, currentPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
		}
	}

	var mu sync.Mutex
	show := func() {
		mu.Lock()
		defer mu.Unlock()
		text, err := runDiff(ctx, basePath, currentPath, format)
		if err != nil {
			WarnError("%v", err)
		} else {
			fmt.Fprint(out, text)
		}
		fmt.Fprintf(os.Stderr, "\nWatching for changes... (Press Ctrl+C to exit)\n")
	}
	show()

	var debounceTimer *time.Timer
	debounceDelay := 300 * time.Millisecond
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, show)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			WarnError("watcher: %v", strings.TrimSpace(err.Error()))
		}
	}
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format: text, json, yaml")
	diffCmd.Flags().BoolVarP(&diffWatch, "watch", "w", false, "Re-run the diff when either file changes")
	diffCmd.Flags().BoolVar(&diffNoPager, "no-pager", false, "Do not page text output")
	rootCmd.AddCommand(diffCmd)
}
