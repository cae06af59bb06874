package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/projmerge/projmerge/internal/config"
	"github.com/projmerge/projmerge/internal/debug"
	"github.com/projmerge/projmerge/internal/driver"
	"github.com/projmerge/projmerge/internal/merge"
	"github.com/projmerge/projmerge/internal/ui"
)

// appFs is the filesystem commands read and write; tests swap in a MemMapFs.
var appFs = afero.NewOsFs()

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:     "merge <ancestor> <ours> <theirs>",
	GroupID: "merge",
	Short:   "Three-way merge of project documents (git merge driver)",
	Long: `Merge two descendants of a common ancestor and write the result over <ours>,
the calling convention of a git merge driver (%O %A %B).

Divergent edits never fail the merge: they are recorded as conflicts on the
affected nodes and variants, with ours kept as the working value. A summary of
conflicts is printed to stderr.

If the merge cannot complete (unreadable or malformed ours/theirs), the three
inputs and the error are saved under debug-dir and the command exits 1.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMerge(rootContext(), args[0], args[1], args[2], mergeOutput, cmd.ErrOrStderr()); err != nil {
			FatalError("%v", err)
		}
	},
}

func mergeOptions(output string) driver.Options {
	return driver.Options{
		Fs:       appFs,
		Merge:    merge.Options{Logger: getLogger(), SourceParameters: config.SourceParameters()},
		DebugDir: config.DebugDir(),
		Indent:   config.Indent(),
		Logger:   getLogger(),
		Output:   output,
	}
}

func runMerge(ctx context.Context, ancestor, ours, theirs, output string, stderr io.Writer) error {
	res, err := driver.Run(ctx, ancestor, ours, theirs, mergeOptions(output))
	if err != nil {
		debug.LogEvent("merge.failed", ours, err.Error())
		return err
	}

	n := merge.CountConflicts(res.Conflicts)
	debug.LogEvent("merge.done", ours, fmt.Sprintf("conflicts=%d promoted=%d", n, len(res.Promoted)))
	debug.Logf("merged %s: %d conflict(s), %d promoted node(s)\n", ours, n, len(res.Promoted))

	if summary := ui.RenderMergeSummary(res); summary != "" && !debug.IsQuiet() {
		fmt.Fprint(stderr, summary)
	}
	return nil
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Write the merged document here instead of over <ours>")
	rootCmd.AddCommand(mergeCmd)
}
