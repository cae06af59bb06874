package main

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/projmerge/projmerge/internal/config"
	"github.com/projmerge/projmerge/internal/debug"
	"github.com/projmerge/projmerge/internal/git"
	"github.com/projmerge/projmerge/internal/ui"
)

var (
	setupGitCommand  string
	setupGitPatterns []string
)

var setupGitCmd = &cobra.Command{
	Use:     "setup-git [dir]",
	GroupID: "setup",
	Short:   "Register pmerge as the git merge driver for project documents",
	Long: `Configure the repository so git merges project documents with pmerge:

  git config merge.projmerge.driver "pmerge merge %O %A %B"
  echo "project.json merge=projmerge" >> .gitattributes

Patterns come from --pattern, else the attributes list in
.projmerge/config.yaml, else project.json. Running it again changes nothing.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := runSetupGit(dir, setupGitPatterns, setupGitCommand, cmd.OutOrStdout()); err != nil {
			FatalErrorWithHint(err.Error(), "Run 'pmerge setup-git' inside a git repository")
		}
	},
}

func runSetupGit(dir string, patterns []string, command string, out io.Writer) error {
	if len(patterns) == 0 {
		root, err := git.RepoRoot(dir)
		if err != nil {
			return err
		}
		patterns = config.MergePatterns(filepath.Join(root, config.DirName))
	}
	if command == "" {
		command = selfCommand()
	}

	reg, err := git.RegisterMergeDriver(dir, patterns, command)
	if err != nil {
		return err
	}

	debug.PrintNormal(out, "%s merge.%s.driver = %s\n", ui.RenderPassIcon(), git.DriverName, ui.RenderPass(reg.Driver))
	if len(reg.Added) == 0 {
		debug.PrintNormal(out, "%s %s already up to date\n", ui.RenderInfoIcon(), reg.AttributesPath)
		return nil
	}
	for _, line := range reg.Added {
		debug.PrintNormal(out, "%s %s: %s\n", ui.RenderPassIcon(), reg.AttributesPath, line)
	}
	return nil
}

var lookPath = exec.LookPath

// selfCommand is how git should invoke this binary: by name when that
// resolves to this executable, otherwise by absolute path.
func selfCommand() string {
	exe, err := os.Executable()
	if err != nil || filepath.Base(exe) != git.DefaultCommand {
		return git.DefaultCommand
	}
	if onPath, err := lookPath(git.DefaultCommand); err == nil && sameFile(onPath, exe) {
		return git.DefaultCommand
	}
	return exe
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func init() {
	setupGitCmd.Flags().StringVar(&setupGitCommand, "command", "", "Executable git should run (default: this binary)")
	setupGitCmd.Flags().StringSliceVar(&setupGitPatterns, "pattern", nil, "gitattributes pattern to register (repeatable)")
	rootCmd.AddCommand(setupGitCmd)
}
