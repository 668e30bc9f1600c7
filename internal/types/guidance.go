package types

// NextBestStep is a qualified catalog entry in its ranked position.
type NextBestStep struct {
	ID          string   `json:"id"`
	Rank        int      `json:"rank"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Tier        Tier     `json:"tier"`
	Order       int      `json:"order"`
}

// CategoryScore is one category's contribution to the readiness composite.
type CategoryScore struct {
	Category     Category `json:"category"`
	Weight       float64  `json:"weight"`
	Score        int      `json:"score"`
	Contribution float64  `json:"contribution"`
}

// ReadinessScore is the 0-100 composite with its per-category breakdown.
type ReadinessScore struct {
	Score      int             `json:"score"`
	Level      ReadinessLevel  `json:"level"`
	Categories []CategoryScore `json:"categories"`
}

// CategoryScore returns the breakdown entry for the category and false when it is absent.
func (r ReadinessScore) CategoryScore(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// GuidanceState is the full result of one guidance computation.
type GuidanceState struct {
	UserID           string           `json:"user_id"`
	ApplicationStage ApplicationStage `json:"application_stage"`
	SupportMode      SupportMode      `json:"support_mode"`
	RiskSignals      []RiskSignal     `json:"risk_signals"`
	NextBestSteps    []NextBestStep   `json:"next_best_steps"`
	Readiness        ReadinessScore   `json:"readiness"`
}

// HasSignal reports whether the given risk signal was raised.
func (g *GuidanceState) HasSignal(signal RiskSignal) bool {
	for _, s := range g.RiskSignals {
		if s == signal {
			return true
		}
	}
	return false
}

// StepIDs returns the ranked step identifiers in order.
func (g *GuidanceState) StepIDs() []string {
	ids := make([]string, 0, len(g.NextBestSteps))
	for _, step := range g.NextBestSteps {
		ids = append(ids, step.ID)
	}
	return ids
}
