package main

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/projmerge/projmerge/internal/codec"
	"github.com/projmerge/projmerge/internal/config"
	"github.com/projmerge/projmerge/internal/debug"
	"github.com/projmerge/projmerge/internal/ui"
	"github.com/projmerge/projmerge/internal/validation"
)

var validateFix bool

var validateCmd = &cobra.Command{
	Use:     "validate <file>",
	GroupID: "merge",
	Short:   "Check a project document's structure",
	Long: `Check the structural invariants a project document must satisfy to load:
named components with a graph, nodes with an id, a type and parameters, unique
node ids per component, and connections whose ends exist.

With --fix, repairable problems (missing parameters or graph, dangling
connections) are fixed and the file is rewritten. Exits 1 if problems remain.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		report, err := runValidate(args[0], validateFix, cmd.OutOrStdout())
		if err != nil {
			FatalError("%v", err)
		}
		if len(report.Remaining()) > 0 {
			shutdown()
			exit(1)
		}
	},
}

// runValidate validates path, optionally repairing it in place, and prints
// one line per issue.
func runValidate(path string, fix bool, out io.Writer) (*validation.Report, error) {
	p, err := loadProject(path)
	if err != nil {
		return nil, err
	}

	report := validation.Project(p)
	if report.OK() {
		debug.PrintNormal(out, "%s %s is valid\n", ui.RenderPassIcon(), ui.RenderPass(path))
		return report, nil
	}

	fixed := 0
	if fix {
		fixed = report.Fix()
		if fixed > 0 {
			data, err := codec.Marshal(p, config.Indent())
			if err != nil {
				return nil, err
			}
			if err := afero.WriteFile(appFs, path, append(data, '\n'), 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", path, err)
			}
		}
	}

	for _, issue := range report.Issues {
		switch {
		case issue.Fixed():
			debug.PrintNormal(out, "%s fixed: %s\n", ui.RenderPassIcon(), issue.Error())
		case issue.Fixable():
			fmt.Fprintf(out, "%s %s %s\n", ui.RenderSkipIcon(), issue.Error(), ui.RenderMuted("(fixable with --fix)"))
		default:
			fmt.Fprintf(out, "%s %s\n", ui.RenderFailIcon(), issue.Error())
		}
	}
	remaining := len(report.Remaining())
	debug.PrintlnNormal(out, ui.RenderSeparator())
	debug.PrintNormal(out, "%d issue(s), %d fixed, %d remaining\n", len(report.Issues), fixed, remaining)
	return report, nil
}

func init() {
	validateCmd.Flags().BoolVar(&validateFix, "fix", false, "Repair fixable problems and rewrite the file")
	rootCmd.AddCommand(validateCmd)
}
