package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/projmerge/projmerge/internal/config"
	"github.com/projmerge/projmerge/internal/debug"
	"github.com/projmerge/projmerge/internal/logging"
	"github.com/projmerge/projmerge/internal/telemetry"
	"github.com/projmerge/projmerge/internal/ui"
)

var (
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
	noColorFlag bool
	logLevel    string

	logger *zap.Logger

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func init() {
	// Initialize viper configuration
	if err := config.Initialize(); err != nil {
		WarnError("failed to initialize config: %v", err)
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, none (default from config log.level)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(&cobra.Group{ID: "merge", Title: "Merging & Diffing:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:   "pmerge",
	Short: "pmerge - three-way merge driver for project documents",
	Long: `Structural three-way merge and diff for node-graph project documents.

Register it with 'pmerge setup-git' and git will call 'pmerge merge' for
project files instead of merging them line by line.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("pmerge version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyConfigOverrides(cmd)
		applyVerbosityFlags()
		ui.ApplyColorMode(noColorFlag)
		setupLogger()
		setupTelemetry()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyConfigOverrides fills flags that weren't set on the command line from
// config (file + PM_* env). Priority: flags > env > config files > defaults.
func applyConfigOverrides(cmd *cobra.Command) {
	if !cmd.Flags().Changed("verbose") {
		verboseFlag = config.GetBool("verbose")
	}
	if !cmd.Flags().Changed("quiet") {
		quietFlag = config.GetBool("quiet")
	}
	if !cmd.Flags().Changed("no-color") {
		noColorFlag = config.GetBool("no-color")
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = config.GetString("log.level")
	}
}

// applyVerbosityFlags propagates --verbose and --quiet to the debug package.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
	if verboseFlag && logLevel == "info" {
		logLevel = "debug"
	}
}

func setupLogger() {
	l, err := logging.New(logLevel, config.GetBool("log.development"))
	if err != nil {
		WarnError("%v; logging disabled", err)
		l = zap.NewNop()
	}
	logger = l
}

func setupTelemetry() {
	if err := telemetry.Init(rootContext(), "pmerge", Version); err != nil {
		WarnError("telemetry: %v", err)
	}
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Shutdown(ctx)
	if logger != nil {
		_ = logger.Sync()
	}
	if rootCancel != nil {
		rootCancel()
	}
}

func rootContext() context.Context {
	if rootCtx == nil {
		return context.Background()
	}
	return rootCtx
}

func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
