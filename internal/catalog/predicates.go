package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/crna-guide/internal/types"
)

// Facts is what a predicate may look at: the normalized snapshot plus the stage and
// risk signals already derived from it.
type Facts struct {
	Snapshot *types.UserSnapshot
	Stage    types.ApplicationStage
	Signals  map[types.RiskSignal]bool
}

// Predicate is a pure eligibility test.
type Predicate func(f Facts) bool

type builder func(c ConditionSpec) (Predicate, error)

var builders = map[string]builder{
	"always":                     buildAlways,
	"stage_in":                   buildStageIn,
	"signal_present":             buildSignalPresent,
	"missing_certification":      buildMissingCertification,
	"certification_expiring":     buildCertificationExpiring,
	"shadowing_hours_below":      countBelow(func(s *types.UserSnapshot) float64 { return s.ShadowingHours() }),
	"shadowing_providers_below":  countBelow(func(s *types.UserSnapshot) float64 { return float64(s.UniqueShadowingProviders()) }),
	"gpa_below":                  buildGPABelow,
	"prerequisites_incomplete":   buildPrerequisitesIncomplete,
	"icu_years_below":            countBelow(func(s *types.UserSnapshot) float64 { return s.Clinical.ICUYears }),
	"icu_years_at_least":         buildICUYearsAtLeast,
	"icu_unit_in":                buildICUUnitIn,
	"clinical_kind_below":        buildClinicalKindBelow,
	"confident_procedures_below": buildConfidentProceduresBelow,
	"leadership_below":           countBelow(func(s *types.UserSnapshot) float64 { return float64(s.Activities.LeadershipRoles) }),
	"research_below":             countBelow(func(s *types.UserSnapshot) float64 { return float64(s.Activities.ResearchProjects) }),
	"events_below":               countBelow(func(s *types.UserSnapshot) float64 { return float64(s.Engagement.EventsAttended) }),
	"contacts_below":             countBelow(func(s *types.UserSnapshot) float64 { return float64(s.Engagement.ProgramContacts) }),
	"gre_missing":                buildGREMissing,
	"deadline_approaching":       buildDeadlineApproaching,
}

// PredicateNames returns every registered predicate name, sorted.
func PredicateNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// compile resolves a condition to its predicate, checking its parameters.
func compile(c ConditionSpec) (Predicate, error) {
	b, ok := builders[c.Predicate]
	if !ok {
		return nil, fmt.Errorf("unknown predicate '%s'", c.Predicate)
	}
	return b(c)
}

func buildAlways(ConditionSpec) (Predicate, error) {
	return func(Facts) bool { return true }, nil
}

func buildStageIn(c ConditionSpec) (Predicate, error) {
	if len(c.Stages) == 0 {
		return nil, fmt.Errorf("stage_in requires 'stages'")
	}
	stages := make(map[types.ApplicationStage]bool, len(c.Stages))
	for _, s := range c.Stages {
		stage := types.ApplicationStage(strings.ToLower(strings.TrimSpace(s)))
		if !stage.IsValid() {
			return nil, fmt.Errorf("stage_in: unknown stage '%s'", s)
		}
		stages[stage] = true
	}
	return func(f Facts) bool { return stages[f.Stage] }, nil
}

func buildSignalPresent(c ConditionSpec) (Predicate, error) {
	signal := types.RiskSignal(strings.ToLower(strings.TrimSpace(c.Name)))
	if !signal.IsValid() {
		return nil, fmt.Errorf("signal_present: unknown signal '%s'", c.Name)
	}
	return func(f Facts) bool { return f.Signals[signal] }, nil
}

func buildMissingCertification(c ConditionSpec) (Predicate, error) {
	name, err := certName(c)
	if err != nil {
		return nil, err
	}
	return func(f Facts) bool { return !f.Snapshot.HasCertification(name) }, nil
}

// buildCertificationExpiring holds when the named certification is held with an expiry
// on or before as_of + value days, including already expired copies.
func buildCertificationExpiring(c ConditionSpec) (Predicate, error) {
	name, err := certName(c)
	if err != nil {
		return nil, err
	}
	if c.Value < 0 {
		return nil, fmt.Errorf("certification_expiring: 'value' (days) must be non-negative")
	}
	window := days(c.Value)
	return func(f Facts) bool {
		for _, cert := range f.Snapshot.Certifications {
			if cert.Name == name && cert.ExpiresAt != nil && !cert.ExpiresAt.After(f.Snapshot.AsOf.Add(window)) {
				return true
			}
		}
		return false
	}, nil
}

func buildGPABelow(c ConditionSpec) (Predicate, error) {
	if c.Value <= 0 {
		return nil, fmt.Errorf("gpa_below requires a positive 'value'")
	}
	var gpa func(s *types.UserSnapshot) float64
	switch strings.ToLower(strings.TrimSpace(c.Name)) {
	case "", "overall":
		gpa = func(s *types.UserSnapshot) float64 { return s.Academic.OverallGPA }
	case "science":
		gpa = func(s *types.UserSnapshot) float64 { return s.Academic.ScienceGPA }
	default:
		return nil, fmt.Errorf("gpa_below: unknown scope '%s' (want overall or science)", c.Name)
	}
	threshold := c.Value
	// An unrecorded GPA (0) is not "below" anything; there is nothing to raise yet.
	return func(f Facts) bool {
		v := gpa(f.Snapshot)
		return v > 0 && v < threshold
	}, nil
}

// buildPrerequisitesIncomplete holds when any listed prerequisite (all recorded ones when
// 'names' is empty) is missing or not completed.
func buildPrerequisitesIncomplete(c ConditionSpec) (Predicate, error) {
	names := make([]string, 0, len(c.Names))
	for _, n := range c.Names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names = append(names, n)
		}
	}
	return func(f Facts) bool {
		status := make(map[string]types.PrerequisiteStatus, len(f.Snapshot.Academic.Prerequisites))
		for _, p := range f.Snapshot.Academic.Prerequisites {
			status[p.Name] = p.Status
		}
		if len(names) == 0 {
			for _, s := range status {
				if s != types.PrerequisiteCompleted {
					return true
				}
			}
			return false
		}
		for _, n := range names {
			if status[n] != types.PrerequisiteCompleted {
				return true
			}
		}
		return false
	}, nil
}

func buildICUYearsAtLeast(c ConditionSpec) (Predicate, error) {
	if c.Value < 0 {
		return nil, fmt.Errorf("icu_years_at_least: 'value' must be non-negative")
	}
	threshold := c.Value
	return func(f Facts) bool { return f.Snapshot.Clinical.ICUYears >= threshold }, nil
}

// buildICUUnitIn holds when the recorded unit is one of 'names'. An unrecorded unit never matches.
func buildICUUnitIn(c ConditionSpec) (Predicate, error) {
	if len(c.Names) == 0 {
		return nil, fmt.Errorf("icu_unit_in requires 'names'")
	}
	units := make(map[types.ICUUnit]bool, len(c.Names))
	for _, n := range c.Names {
		unit := types.ICUUnit(strings.ToLower(strings.TrimSpace(n)))
		if !unit.IsValid() {
			return nil, fmt.Errorf("icu_unit_in: unknown unit '%s'", n)
		}
		units[unit] = true
	}
	return func(f Facts) bool { return units[f.Snapshot.Clinical.ICUUnit] }, nil
}

// buildClinicalKindBelow counts distinct entry names of one clinical kind.
func buildClinicalKindBelow(c ConditionSpec) (Predicate, error) {
	kind := types.EntryKind(strings.ToLower(strings.TrimSpace(c.Name)))
	if !types.ValidEntryKinds[kind] {
		return nil, fmt.Errorf("clinical_kind_below: unknown kind '%s'", c.Name)
	}
	if c.Value <= 0 {
		return nil, fmt.Errorf("clinical_kind_below requires a positive 'value'")
	}
	threshold := c.Value
	return func(f Facts) bool {
		seen := make(map[string]bool)
		for _, e := range f.Snapshot.EntriesOfKind(kind) {
			seen[strings.ToLower(e.Name)] = true
		}
		return float64(len(seen)) < threshold
	}, nil
}

// buildConfidentProceduresBelow counts distinct procedures logged at performed or higher.
func buildConfidentProceduresBelow(c ConditionSpec) (Predicate, error) {
	if c.Value <= 0 {
		return nil, fmt.Errorf("confident_procedures_below requires a positive 'value'")
	}
	threshold := c.Value
	return func(f Facts) bool {
		seen := make(map[string]bool)
		for _, e := range f.Snapshot.EntriesOfKind(types.EntryProcedure) {
			if e.Confidence.AtLeast(types.ConfidencePerformed) {
				seen[strings.ToLower(e.Name)] = true
			}
		}
		return float64(len(seen)) < threshold
	}, nil
}

func buildGREMissing(ConditionSpec) (Predicate, error) {
	return func(f Facts) bool { return f.Snapshot.Exams.GRE == nil }, nil
}

// buildDeadlineApproaching holds when a program not yet applied to has a deadline in
// (as_of, as_of + value days].
func buildDeadlineApproaching(c ConditionSpec) (Predicate, error) {
	if c.Value <= 0 {
		return nil, fmt.Errorf("deadline_approaching requires a positive 'value' (days)")
	}
	window := days(c.Value)
	return func(f Facts) bool {
		return HasApproachingDeadline(f.Snapshot, window)
	}, nil
}

// HasApproachingDeadline reports whether a researching program's deadline falls in (as_of, as_of+window].
func HasApproachingDeadline(s *types.UserSnapshot, window time.Duration) bool {
	limit := s.AsOf.Add(window)
	for _, p := range s.Programs {
		if p.Status != types.ProgramResearching || p.Deadline == nil {
			continue
		}
		if p.Deadline.After(s.AsOf) && !p.Deadline.After(limit) {
			return true
		}
	}
	return false
}

// countBelow builds "<metric> is below value" predicates.
func countBelow(metric func(s *types.UserSnapshot) float64) builder {
	return func(c ConditionSpec) (Predicate, error) {
		if c.Value <= 0 {
			return nil, fmt.Errorf("%s requires a positive 'value'", c.Predicate)
		}
		threshold := c.Value
		return func(f Facts) bool { return metric(f.Snapshot) < threshold }, nil
	}
}

func certName(c ConditionSpec) (string, error) {
	name := strings.ToUpper(strings.TrimSpace(c.Name))
	if name == "" {
		return "", fmt.Errorf("%s requires a certification 'name'", c.Predicate)
	}
	return name, nil
}

func days(n float64) time.Duration {
	return time.Duration(n * float64(24*time.Hour))
}
