package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

var verbose bool

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "qf",
	Short: "questforge - create and publish research quests",
	Long: `questforge (qf) walks you through creating a research quest: the basics,
the standards a submission must meet, and the terms (budget, deadline and IP
rights), followed by a preview and payment.

Drafts are saved locally so an interrupted quest can be resumed later. Run
"qf create" for the interactive wizard, or use the draft subcommands to edit
a draft from scripts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && LogLevel != nil {
			LogLevel.SetLevel(zapcore.DebugLevel)
		}
		if Logger == nil {
			Logger = zap.NewNop()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Logger != nil {
			_ = Logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qf %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
