package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jonathan/crna-guide/internal/guidance"
	"github.com/jonathan/crna-guide/internal/readiness"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the readiness breakdown for one applicant snapshot",
	Long:  "Scores a snapshot across the readiness categories and lists the categories where the most composite points remain, largest gap first.",
	RunE:  runScore,
}

var (
	scoreSnapshot string
	scoreJSON     bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreSnapshot, "snapshot", "s", "", "Path to snapshot JSON file (required)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Write JSON instead of a table")

	if err := scoreCmd.MarkFlagRequired("snapshot"); err != nil {
		panic(fmt.Sprintf("failed to mark snapshot flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

// scoreReport is the --json output of the score command.
type scoreReport struct {
	Readiness  types.ReadinessScore `json:"readiness"`
	Priorities []readiness.Priority `json:"priorities"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	return scoreSnapshotFile(cmd.OutOrStdout(), engine, scoreSnapshot, scoreJSON)
}

func scoreSnapshotFile(w io.Writer, engine *guidance.Engine, path string, asJSON bool) error {
	raw, err := snapshot.LoadFile(path)
	if err != nil {
		return err
	}
	score, err := engine.Readiness(raw)
	if err != nil {
		return err
	}
	report := scoreReport{
		Readiness:  score,
		Priorities: engine.Scorer().PriorityActions(score),
	}
	if asJSON {
		return writeJSON(w, "", report)
	}
	return printScore(w, report)
}

func printScore(w io.Writer, report scoreReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Readiness: %d (%s)\n\n", report.Readiness.Score, report.Readiness.Level)
	_, _ = fmt.Fprintln(tw, "CATEGORY\tWEIGHT\tSCORE\tCONTRIBUTION")
	for _, c := range report.Readiness.Categories {
		_, _ = fmt.Fprintf(tw, "%s\t%.0f\t%d\t%.1f\n", c.Category, c.Weight, c.Score, c.Contribution)
	}

	if len(report.Priorities) > 0 {
		_, _ = fmt.Fprintln(tw, "\nPRIORITY\tCATEGORY\tPOINTS AVAILABLE")
		for i, p := range report.Priorities {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%.1f\n", i+1, p.Category, p.Gap)
		}
	}
	return tw.Flush()
}
