package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bract/internal/diagfmt"
	"bract/internal/driver"
	"bract/internal/version"
)

var diagCmd = &cobra.Command{
	Use:   "diag <file.br>",
	Short: "Run diagnostics on a bract source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

var checkCmd = &cobra.Command{
	Use:   "check <file.br>",
	Short: "Run diagnostics through semantic analysis (alias for diag --stage=sema)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return diagnose(cmd, args[0], driver.StageSema)
	},
}

func init() {
	diagCmd.Flags().String("stage", "sema", "how far to run the pipeline (tokenize|syntax|sema|bir)")
	for _, c := range []*cobra.Command{diagCmd, checkCmd} {
		c.Flags().String("format", "text", "diagnostic output format (text|json|sarif)")
		c.Flags().Bool("color", true, "colorize text output")
	}
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	stageFlag, err := cmd.Flags().GetString("stage")
	if err != nil {
		return err
	}
	return diagnose(cmd, args[0], driver.Stage(stageFlag))
}

func diagnose(cmd *cobra.Command, path string, stage driver.Stage) error {
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	res, err := driver.Compile(cmd.Context(), path, driver.Options{
		Stage:          stage,
		MaxDiagnostics: maxDiag,
		EnableTimings:  timings,
	})
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	res.Bag.Sort()

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		if err := diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}); err != nil {
			return err
		}
	case "sarif":
		if err := diagfmt.Sarif(out, res.Bag, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "bract",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		}); err != nil {
			return err
		}
	case "text", "":
		colorOn, err := cmd.Flags().GetBool("color")
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       colorOn,
			Context:     1,
			PathMode:    diagfmt.PathModeRelative,
			ShowNotes:   true,
			ShowFixes:   true,
			ShowPreview: true,
		})
	default:
		return fmt.Errorf("unknown --format %q (want text|json|sarif)", format)
	}

	if timings && res.Timing.TotalMS > 0 {
		fmt.Fprintf(out, "total: %.2fms\n", res.Timing.TotalMS)
	}
	if res.Bag.HasErrors() {
		return fmt.Errorf("%d diagnostic(s) reported", res.Bag.Len())
	}
	return nil
}
