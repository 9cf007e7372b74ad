package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bract/internal/bir"
	"bract/internal/diag"
	"bract/internal/driver"
	"bract/internal/mir"
)

var birCmd = &cobra.Command{
	Use:   "bir <file.br>",
	Short: "Lower a bract source file to BIR and print it",
	Args:  cobra.ExactArgs(1),
	RunE:  runBIR,
}

func init() {
	birCmd.Flags().Bool("target", false, "also lower BIR to the target-level IR and print it")
}

func runBIR(cmd *cobra.Command, args []string) error {
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	res, err := driver.Compile(cmd.Context(), args[0], driver.Options{
		Stage:          driver.StageBIR,
		MaxDiagnostics: maxDiag,
	})
	if err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		fmt.Fprint(cmd.ErrOrStderr(), diag.FormatGoldenDiagnostics(res.Bag.Items(), res.FileSet, true))
		return fmt.Errorf("cannot lower to bir: source has errors")
	}
	if res.BIR == nil {
		return fmt.Errorf("bract: no bir module produced for %s", args[0])
	}
	if err := bir.Validate(res.BIR); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "bir validation failed: %v\n", err)
	}
	if err := bir.DumpModule(cmd.OutOrStdout(), res.BIR, res.Sema.TypeInterner); err != nil {
		return err
	}

	target, err := cmd.Flags().GetBool("target")
	if err != nil {
		return err
	}
	if !target {
		return nil
	}

	lowered, err := mir.Lower(res.BIR, res.Sema.TypeInterner)
	if err != nil {
		return fmt.Errorf("bract: lowering bir to target ir: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "--- target ---")
	return mir.DumpModule(cmd.OutOrStdout(), lowered)
}
