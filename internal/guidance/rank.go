package guidance

import (
	"sort"

	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/types"
)

// Rank orders entries by tier, then catalog order, then id, and truncates to maxSteps
// (0 means no limit). Ranks are 1-based. The input slice is not modified.
func Rank(entries []catalog.Entry, maxSteps int) []types.NextBestStep {
	sorted := make([]catalog.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() < b.Tier.Rank()
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	if maxSteps > 0 && len(sorted) > maxSteps {
		sorted = sorted[:maxSteps]
	}

	steps := make([]types.NextBestStep, 0, len(sorted))
	for i, e := range sorted {
		steps = append(steps, e.Step(i+1))
	}
	return steps
}
