package main

import (
	"fmt"
	"io"

	"github.com/jonathan/crna-guide/internal/guidance"
	"github.com/jonathan/crna-guide/internal/observability"
	"github.com/jonathan/crna-guide/internal/schemas"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
	bundled "github.com/jonathan/crna-guide/schemas"
	"github.com/spf13/cobra"
)

var guidanceCmd = &cobra.Command{
	Use:   "guidance",
	Short: "Compute guidance for one applicant snapshot",
	Long:  "Loads a snapshot JSON file, computes stage, support mode, risk signals, next best steps and readiness, and writes the guidance state as JSON.",
	RunE:  runGuidance,
}

var (
	guidanceSnapshot string
	guidanceOut      string
	guidanceValidate bool
	guidanceVerbose  bool
)

func init() {
	guidanceCmd.Flags().StringVarP(&guidanceSnapshot, "snapshot", "s", "", "Path to snapshot JSON file (required)")
	guidanceCmd.Flags().StringVarP(&guidanceOut, "out", "o", "", "Output file (stdout when empty)")
	guidanceCmd.Flags().BoolVar(&guidanceValidate, "validate", false, "Check the output against the guidance state schema")
	guidanceCmd.Flags().BoolVarP(&guidanceVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	if err := guidanceCmd.MarkFlagRequired("snapshot"); err != nil {
		panic(fmt.Sprintf("failed to mark snapshot flag as required: %v", err))
	}

	rootCmd.AddCommand(guidanceCmd)
}

func runGuidance(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	var summary io.Writer
	if guidanceVerbose {
		summary = cmd.ErrOrStderr()
	}
	return computeGuidance(cmd.OutOrStdout(), summary, engine, guidanceSnapshot, guidanceOut, guidanceValidate)
}

// computeGuidance writes the guidance state for one snapshot. A non-nil summary also
// receives the boxed human-readable view.
func computeGuidance(w, summary io.Writer, engine *guidance.Engine, snapshotPath, outPath string, validate bool) error {
	raw, err := snapshot.LoadFile(snapshotPath)
	if err != nil {
		return err
	}

	state, err := engine.Compute(raw)
	if err != nil {
		return err
	}

	if validate {
		if err := validateState(state); err != nil {
			return err
		}
	}

	if summary != nil {
		printer := observability.NewPrinter(summary)
		printer.PrintGuidance(state)
		printer.PrintNextSteps(state.NextBestSteps)
		printer.PrintReadiness(state.Readiness)
	}
	return writeJSON(w, outPath, state)
}

// validateState checks a computed state against the bundled output schema.
func validateState(state *types.GuidanceState) error {
	if err := schemas.ValidateValue(bundled.GuidanceState, state); err != nil {
		return fmt.Errorf("guidance output failed schema validation: %w", err)
	}
	return nil
}
