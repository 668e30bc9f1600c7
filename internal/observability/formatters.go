// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/crna-guide/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintGuidance outputs the stage, support mode and risk signals of a guidance state.
func (p *Printer) PrintGuidance(state *types.GuidanceState) {
	if state == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User:     %s\n", state.UserID))
	sb.WriteString(fmt.Sprintf("Stage:    %s\n", state.ApplicationStage))
	sb.WriteString(fmt.Sprintf("Support:  %s\n", state.SupportMode))
	sb.WriteString(fmt.Sprintf("Score:    %d (%s)\n", state.Readiness.Score, state.Readiness.Level))

	if len(state.RiskSignals) > 0 {
		sb.WriteString("\nRisk signals:\n")
		for _, signal := range state.RiskSignals {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", signal))
		}
	}

	p.printBox("GUIDANCE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNextSteps outputs the top ranked next best steps.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) PrintNextSteps(steps []types.NextBestStep) {
	if len(steps) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO OPEN STEPS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	count := min(len(steps), maxItemsToShow)
	for i := 0; i < count; i++ {
		step := steps[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", step.Rank, step.Title))
		sb.WriteString(fmt.Sprintf("    %s · %s\n", step.Tier, step.Category))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(steps) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more steps", len(steps)-maxItemsToShow))
	}

	p.printBox("NEXT BEST STEPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReadiness outputs the per-category readiness breakdown.
func (p *Printer) PrintReadiness(score types.ReadinessScore) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Composite: %d (%s)\n\n", score.Score, score.Level))
	for _, c := range score.Categories {
		sb.WriteString(fmt.Sprintf("%-20s %3d  %s\n", c.Category, c.Score, bar(c.Score)))
	}
	p.printBox("READINESS", strings.TrimSuffix(sb.String(), "\n"))
}

// bar renders a 0..100 score as a ten-cell bar.
func bar(score int) string {
	filled := max(0, min(10, score/10))
	return strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
}
