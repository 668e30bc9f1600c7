// Package readiness computes the 0-100 readiness composite and its per-category breakdown.
package readiness

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/types"
)

// Scorer scores snapshots against one engine configuration. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	weights    map[types.Category]float64
	sub        config.SubWeights
	bench      config.Benchmarks
	required   []string
	categories map[types.Category]func(s *types.UserSnapshot) float64
}

// Priority is the composite headroom left in one category.
type Priority struct {
	Category types.Category `json:"category"`
	Score    int            `json:"score"`
	Weight   float64        `json:"weight"`
	// Gap is the number of composite points still available in the category.
	Gap float64 `json:"gap"`
}

// New creates a scorer. The configuration is expected to have passed Validate.
func New(cfg config.EngineConfig) *Scorer {
	weights := make(map[types.Category]float64, len(cfg.Weights))
	for k, v := range cfg.Weights {
		weights[k] = v
	}
	required := make([]string, len(cfg.RequiredPrerequisites))
	copy(required, cfg.RequiredPrerequisites)

	s := &Scorer{
		weights:  weights,
		sub:      cfg.SubWeights,
		bench:    cfg.Benchmarks,
		required: required,
	}
	s.categories = map[types.Category]func(*types.UserSnapshot) float64{
		types.CategoryAcademic:           s.academic,
		types.CategoryClinical:           s.clinical,
		types.CategoryShadowing:          s.shadowing,
		types.CategoryLeadershipResearch: s.leadershipResearch,
		types.CategoryEngagement:         s.engagement,
		types.CategoryCertifications:     s.certifications,
	}
	return s
}

// Score returns the composite and the breakdown in category display order.
// Missing data scores 0; the composite is clamped to [0, 100].
func (sc *Scorer) Score(s *types.UserSnapshot) types.ReadinessScore {
	breakdown := make([]types.CategoryScore, 0, len(types.Categories))
	total := 0.0
	for _, cat := range types.Categories {
		raw := clamp(sc.categories[cat](s), 0, 100)
		weight := sc.weights[cat]
		contribution := weight * raw / 100
		total += contribution
		breakdown = append(breakdown, types.CategoryScore{
			Category:     cat,
			Weight:       weight,
			Score:        int(math.Round(raw)),
			Contribution: contribution,
		})
	}

	composite := int(clamp(math.Round(total), 0, 100))
	return types.ReadinessScore{
		Score:      composite,
		Level:      types.LevelForScore(composite),
		Categories: breakdown,
	}
}

// PriorityActions ranks categories by the composite points still available in them,
// largest gap first, ties broken by category name. Full categories are omitted.
func (sc *Scorer) PriorityActions(score types.ReadinessScore) []Priority {
	out := make([]Priority, 0, len(score.Categories))
	for _, cs := range score.Categories {
		gap := cs.Weight * float64(100-cs.Score) / 100
		if gap <= 0 {
			continue
		}
		out = append(out, Priority{Category: cs.Category, Score: cs.Score, Weight: cs.Weight, Gap: gap})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Gap != out[j].Gap {
			return out[i].Gap > out[j].Gap
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func (sc *Scorer) academic(s *types.UserSnapshot) float64 {
	w := sc.sub.Academic
	return w.OverallGPA*sc.gpa(s.Academic.OverallGPA) +
		w.ScienceGPA*sc.gpa(s.Academic.ScienceGPA) +
		w.Prerequisites*sc.prerequisites(s.Academic.Prerequisites)
}

// gpa maps a GPA linearly from the floor (0) to the target (1).
func (sc *Scorer) gpa(v float64) float64 {
	return linear(v, sc.bench.GPAFloor, sc.bench.GPATarget)
}

// prerequisites scores completed required courses, less a penalty per retake. With no
// required list configured, the recorded prerequisites are the denominator.
func (sc *Scorer) prerequisites(prereqs []types.Prerequisite) float64 {
	status := make(map[string]types.PrerequisiteStatus, len(prereqs))
	retakes := 0
	for _, p := range prereqs {
		status[strings.ToLower(p.Name)] = p.Status
		retakes += p.Retakes
	}

	required := sc.required
	if len(required) == 0 {
		required = make([]string, 0, len(status))
		for name := range status {
			required = append(required, name)
		}
	}
	if len(required) == 0 {
		return 0
	}

	completed := 0
	for _, name := range required {
		if status[name] == types.PrerequisiteCompleted {
			completed++
		}
	}
	pct := float64(completed)/float64(len(required))*100 - sc.bench.RetakePenalty*float64(retakes)
	return clamp(pct, 0, 100) / 100
}

var confidenceWeights = map[types.Confidence]float64{
	types.ConfidenceObserved:   0.25,
	types.ConfidenceAssisted:   0.5,
	types.ConfidencePerformed:  0.75,
	types.ConfidenceCouldTeach: 1,
}

func (sc *Scorer) clinical(s *types.UserSnapshot) float64 {
	w := sc.sub.Clinical
	b := sc.bench

	// best tier per distinct device
	tiers := make(map[string]int)
	for _, e := range s.EntriesOfKind(types.EntryDevice) {
		key := strings.ToLower(e.Name)
		tiers[key] = max(tiers[key], e.Tier)
	}
	tierSum := 0
	for _, t := range tiers {
		tierSum += t
	}

	// best confidence per distinct procedure
	best := make(map[string]types.Confidence)
	for _, e := range s.EntriesOfKind(types.EntryProcedure) {
		key := strings.ToLower(e.Name)
		if cur, ok := best[key]; !ok || e.Confidence.Level() > cur.Level() {
			best[key] = e.Confidence
		}
	}
	procedures := 0.0
	if len(best) > 0 {
		sum := 0.0
		for _, c := range best {
			sum += confidenceWeights[c]
		}
		procedures = sum / float64(len(best)) * ratio(float64(len(best)), b.ProcedureTarget)
	}

	pressors := make(map[string]bool)
	for _, e := range s.EntriesOfKind(types.EntryPressor) {
		if e.Confidence.AtLeast(types.ConfidencePerformed) {
			pressors[strings.ToLower(e.Name)] = true
		}
	}

	return w.Devices*ratio(float64(tierSum), b.DeviceTierTarget) +
		w.Medications*ratio(float64(distinctNames(s, types.EntryMedication)), b.MedicationTarget) +
		w.Procedures*procedures +
		w.Populations*ratio(float64(distinctNames(s, types.EntryPopulation)), b.PopulationTarget) +
		w.Pressors*ratio(float64(len(pressors)), b.PressorTarget)
}

func (sc *Scorer) shadowing(s *types.UserSnapshot) float64 {
	w := sc.sub.Shadowing
	return w.Hours*ratio(s.ShadowingHours(), sc.bench.ShadowingHours) +
		w.Providers*ratio(float64(s.UniqueShadowingProviders()), sc.bench.ShadowingProviders) +
		w.Settings*ratio(float64(s.UniqueShadowingSettings()), sc.bench.ShadowingSettings)
}

func (sc *Scorer) leadershipResearch(s *types.UserSnapshot) float64 {
	w := sc.sub.LeadershipResearch
	a := s.Activities
	return w.Leadership*ratio(float64(a.LeadershipRoles), sc.bench.LeadershipRoles) +
		w.Research*ratio(float64(a.ResearchProjects), sc.bench.ResearchProjects) +
		w.Presentations*ratio(float64(a.Presentations), sc.bench.Presentations)
}

func (sc *Scorer) engagement(s *types.UserSnapshot) float64 {
	w := sc.sub.Engagement
	e := s.Engagement
	return w.Events*ratio(float64(e.EventsAttended), sc.bench.EventsAttended) +
		w.Contacts*ratio(float64(e.ProgramContacts), sc.bench.ProgramContacts) +
		w.ForumPosts*ratio(float64(e.ForumPosts), sc.bench.ForumPosts)
}

func (sc *Scorer) certifications(s *types.UserSnapshot) float64 {
	w := sc.sub.Certifications
	total := w.BLS*held(s, "BLS") +
		w.ACLS*held(s, "ACLS") +
		w.PALS*held(s, "PALS") +
		w.CCRN*held(s, "CCRN")
	if gre := s.Exams.GRE; gre != nil {
		total += w.GRE * linear(float64(gre.Verbal+gre.Quant), sc.bench.GREFloor, sc.bench.GRETarget)
	}
	return total
}

func held(s *types.UserSnapshot, name string) float64 {
	if s.HasCertification(name) {
		return 1
	}
	return 0
}

func distinctNames(s *types.UserSnapshot, kind types.EntryKind) int {
	seen := make(map[string]bool)
	for _, e := range s.EntriesOfKind(kind) {
		seen[strings.ToLower(e.Name)] = true
	}
	return len(seen)
}

// ratio is progress toward a target, capped at 1. A non-positive target is always met.
func ratio(v, target float64) float64 {
	if target <= 0 {
		return 1
	}
	return clamp(v/target, 0, 1)
}

// linear maps v from [floor, target] onto [0, 1].
func linear(v, floor, target float64) float64 {
	if target <= floor {
		if v >= target {
			return 1
		}
		return 0
	}
	return clamp((v-floor)/(target-floor), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
