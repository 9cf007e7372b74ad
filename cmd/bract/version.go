package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bract/internal/version"
)

var buildColor = color.New(color.FgCyan, color.Bold)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show bract build fingerprints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := version.Version
		if v == "" {
			v = "dev"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bract %s\n", buildColor.Sprint(v))
		if version.GitCommit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built:  %s\n", version.BuildDate)
		}
		return nil
	},
}
