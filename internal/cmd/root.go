package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "labelctl",
	Short: "A CLI tool to keep GitHub issue labels in sync with a YAML file",
	Long: `Labelctl reconciles the issue labels of GitHub repositories against a
declarative YAML file. It computes the minimal set of creates, renames,
updates, and deletes needed to make the live label set match the file, shows
you the plan, and applies it. Aliases let labels be renamed without losing
the issues attached to them.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
