package guidance

import (
	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/types"
)

type riskRule struct {
	signal types.RiskSignal
	test   func(s *types.UserSnapshot, cfg *config.EngineConfig) bool
}

// riskRules is evaluated in full on every call, in reporting order.
var riskRules = []riskRule{
	{types.RiskStalledActivity, stalledActivity},
	{types.RiskBelowBenchmarkGPA, belowBenchmarkAcademics},
	{types.RiskMissingPrerequisite, missingPrerequisite},
	{types.RiskApproachingDeadline, approachingDeadline},
	{types.RiskExpiringCertification, expiringCertification},
	{types.RiskRepeatedRetakes, repeatedRetakes},
	{types.RiskLimitedICUExperience, limitedICUExperience},
}

// DetectRisks evaluates every risk rule and returns the raised signals in reporting
// order. The result is never nil.
func DetectRisks(s *types.UserSnapshot, cfg *config.EngineConfig) []types.RiskSignal {
	out := make([]types.RiskSignal, 0, len(riskRules))
	for _, r := range riskRules {
		if r.test(s, cfg) {
			out = append(out, r.signal)
		}
	}
	return out
}

// stalledActivity: nothing logged at all, or the latest entry is older than the window.
func stalledActivity(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	latest, ok := s.LatestActivity()
	if !ok {
		return true
	}
	return latest.Before(s.AsOf.Add(-cfg.Thresholds.InactivityWindow))
}

func belowBenchmarkAcademics(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	bench := cfg.Benchmarks.GPABenchmark
	below := func(gpa float64) bool { return gpa > 0 && gpa < bench }
	return below(s.Academic.OverallGPA) || below(s.Academic.ScienceGPA)
}

func missingPrerequisite(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	status := make(map[string]types.PrerequisiteStatus, len(s.Academic.Prerequisites))
	for _, p := range s.Academic.Prerequisites {
		status[p.Name] = p.Status
	}
	for _, name := range cfg.RequiredPrerequisites {
		if status[name] != types.PrerequisiteCompleted {
			return true
		}
	}
	return false
}

func approachingDeadline(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	return catalog.HasApproachingDeadline(s, cfg.Thresholds.DeadlineWindow)
}

// expiringCertification: a held certification has lapsed or lapses inside the window.
func expiringCertification(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	limit := s.AsOf.Add(cfg.Thresholds.CertExpiryWindow)
	for _, c := range s.Certifications {
		if c.ExpiresAt != nil && !c.ExpiresAt.After(limit) {
			return true
		}
	}
	return false
}

func repeatedRetakes(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	for _, p := range s.Academic.Prerequisites {
		if p.Retakes >= cfg.Thresholds.RetakeThreshold {
			return true
		}
	}
	return false
}

// limitedICUExperience: targeting programs without the minimum ICU tenure.
func limitedICUExperience(s *types.UserSnapshot, cfg *config.EngineConfig) bool {
	return len(s.Programs) > 0 && s.Clinical.ICUYears < cfg.Benchmarks.MinICUYears
}
