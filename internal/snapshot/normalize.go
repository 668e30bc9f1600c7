package snapshot

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/crna-guide/internal/types"
)

// GRE section bounds. Scores outside them are clamped.
const (
	greSectionMin = 130
	greSectionMax = 170
	greWritingMax = 6.0
	maxGPA        = 4.0
	maxDeviceTier = 3
)

var validate = validator.New()

var prerequisiteProgress = map[types.PrerequisiteStatus]int{
	types.PrerequisiteNotStarted: 0,
	types.PrerequisiteInProgress: 1,
	types.PrerequisiteCompleted:  2,
}

// Normalize validates identity and fills every missing or malformed field with its default:
//   - nil sections and slices become empty values, negative counts and hours become 0
//   - GPAs are clamped to [0, 4], device tiers to [1, 3], GRE sections to [130, 170]
//   - unknown prerequisite statuses become not_started, unknown confidences observed,
//     unknown program statuses researching, unknown ICU units other; unknown clinical
//     kinds are dropped
//   - AsOf defaults to the latest last-activity timestamp, or the zero time
//
// The raw value is not modified. A missing user id yields *ValidationError.
func Normalize(raw *types.RawSnapshot) (types.UserSnapshot, error) {
	if raw == nil {
		return types.UserSnapshot{}, &ValidationError{Field: "user_id", Message: "is required (snapshot is empty)"}
	}

	userID := strings.TrimSpace(raw.UserID)
	if err := validate.Var(userID, "required"); err != nil {
		return types.UserSnapshot{}, &ValidationError{Field: "user_id", Message: "is required", Cause: err}
	}

	s := types.UserSnapshot{
		UserID:           userID,
		Shadowing:        normalizeShadowing(raw.Shadowing),
		Certifications:   normalizeCertifications(raw.Certifications),
		Programs:         normalizePrograms(raw.Programs),
		LastActivity:     normalizeLastActivity(raw.LastActivity),
		CompletedActions: normalizeCompleted(raw.CompletedActions),
	}

	if raw.Academic != nil {
		s.Academic = types.Academic{
			OverallGPA:    clampGPA(raw.Academic.OverallGPA),
			ScienceGPA:    clampGPA(raw.Academic.ScienceGPA),
			Prerequisites: normalizePrerequisites(raw.Academic.Prerequisites),
		}
	} else {
		s.Academic.Prerequisites = []types.Prerequisite{}
	}

	if raw.Clinical != nil {
		s.Clinical = types.Clinical{
			ICUUnit:  normalizeICUUnit(raw.Clinical.ICUUnit),
			ICUYears: nonNegative(raw.Clinical.ICUYears),
			Entries:  normalizeEntries(raw.Clinical.Entries),
		}
	} else {
		s.Clinical.Entries = []types.ClinicalEntry{}
	}

	if raw.Exams != nil {
		s.Exams.GRE = normalizeGRE(raw.Exams.GRE)
	}

	if raw.Activities != nil {
		s.Activities = types.Activities{
			LeadershipRoles:  max(raw.Activities.LeadershipRoles, 0),
			ResearchProjects: max(raw.Activities.ResearchProjects, 0),
			Presentations:    max(raw.Activities.Presentations, 0),
		}
	}

	if raw.Engagement != nil {
		s.Engagement = types.Engagement{
			EventsAttended:  max(raw.Engagement.EventsAttended, 0),
			ProgramContacts: max(raw.Engagement.ProgramContacts, 0),
			ForumPosts:      max(raw.Engagement.ForumPosts, 0),
		}
	}

	if raw.AsOf != nil && !raw.AsOf.IsZero() {
		s.AsOf = raw.AsOf.UTC()
	} else if latest, ok := s.LatestActivity(); ok {
		s.AsOf = latest
	}

	return s, nil
}

// normalizePrerequisites lower-cases names and merges duplicates, keeping the most
// advanced status and the highest retake count.
func normalizePrerequisites(in []types.Prerequisite) []types.Prerequisite {
	out := make([]types.Prerequisite, 0, len(in))
	index := make(map[string]int)
	for _, p := range in {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			continue
		}
		status := types.PrerequisiteStatus(strings.ToLower(strings.TrimSpace(string(p.Status))))
		if _, ok := prerequisiteProgress[status]; !ok {
			status = types.PrerequisiteNotStarted
		}
		norm := types.Prerequisite{
			Name:    name,
			Status:  status,
			Grade:   strings.ToUpper(strings.TrimSpace(p.Grade)),
			Retakes: max(p.Retakes, 0),
		}

		if i, seen := index[name]; seen {
			existing := &out[i]
			if prerequisiteProgress[norm.Status] > prerequisiteProgress[existing.Status] {
				existing.Status = norm.Status
				existing.Grade = norm.Grade
			}
			existing.Retakes = max(existing.Retakes, norm.Retakes)
			continue
		}
		index[name] = len(out)
		out = append(out, norm)
	}
	return out
}

// normalizeICUUnit keeps an unrecorded unit empty and maps unrecognized ones to other.
func normalizeICUUnit(u types.ICUUnit) types.ICUUnit {
	unit := types.ICUUnit(strings.ToLower(strings.TrimSpace(string(u))))
	if unit == "" || unit.IsValid() {
		return unit
	}
	return types.ICUUnitOther
}

func normalizeEntries(in []types.ClinicalEntry) []types.ClinicalEntry {
	out := make([]types.ClinicalEntry, 0, len(in))
	for _, e := range in {
		kind := types.EntryKind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
		if !types.ValidEntryKinds[kind] {
			continue
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		confidence := types.Confidence(strings.ToLower(strings.TrimSpace(string(e.Confidence))))
		if confidence.Level() == 0 {
			confidence = types.ConfidenceObserved
		}
		tier := 0
		if kind == types.EntryDevice {
			tier = min(max(e.Tier, 1), maxDeviceTier)
		}
		out = append(out, types.ClinicalEntry{
			Kind:       kind,
			Name:       name,
			Tier:       tier,
			Confidence: confidence,
		})
	}
	return out
}

func normalizeShadowing(in []types.ShadowingEntry) []types.ShadowingEntry {
	out := make([]types.ShadowingEntry, 0, len(in))
	for _, e := range in {
		out = append(out, types.ShadowingEntry{
			Hours:    nonNegative(e.Hours),
			Provider: strings.TrimSpace(e.Provider),
			Setting:  strings.ToLower(strings.TrimSpace(e.Setting)),
		})
	}
	return out
}

// normalizeCertifications upper-cases names and keeps the longest-lived copy of duplicates.
func normalizeCertifications(in []types.Certification) []types.Certification {
	out := make([]types.Certification, 0, len(in))
	index := make(map[string]int)
	for _, c := range in {
		name := strings.ToUpper(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		var expires *time.Time
		if c.ExpiresAt != nil && !c.ExpiresAt.IsZero() {
			t := c.ExpiresAt.UTC()
			expires = &t
		}
		norm := types.Certification{Name: name, ExpiresAt: expires}

		if i, seen := index[name]; seen {
			if outlives(norm.ExpiresAt, out[i].ExpiresAt) {
				out[i] = norm
			}
			continue
		}
		index[name] = len(out)
		out = append(out, norm)
	}
	return out
}

// outlives reports whether expiry a is later than b; nil never expires.
func outlives(a, b *time.Time) bool {
	if b == nil {
		return false
	}
	if a == nil {
		return true
	}
	return a.After(*b)
}

func normalizeGRE(in *types.GREScore) *types.GREScore {
	if in == nil || (in.Verbal <= 0 && in.Quant <= 0) {
		return nil
	}
	return &types.GREScore{
		Verbal:  clampSection(in.Verbal),
		Quant:   clampSection(in.Quant),
		Writing: math.Min(nonNegative(in.Writing), greWritingMax),
	}
}

func clampSection(v int) int {
	if v <= 0 {
		return greSectionMin
	}
	return min(max(v, greSectionMin), greSectionMax)
}

func normalizePrograms(in []types.Program) []types.Program {
	out := make([]types.Program, 0, len(in))
	for _, p := range in {
		status := types.ProgramStatus(strings.ToLower(strings.TrimSpace(string(p.Status))))
		if !types.ValidProgramStatuses[status] {
			status = types.ProgramResearching
		}
		var deadline *time.Time
		if p.Deadline != nil && !p.Deadline.IsZero() {
			t := p.Deadline.UTC()
			deadline = &t
		}
		out = append(out, types.Program{
			Name:     strings.TrimSpace(p.Name),
			Deadline: deadline,
			Status:   status,
		})
	}
	return out
}

// normalizeLastActivity keeps only known categories with non-zero timestamps.
func normalizeLastActivity(in map[string]time.Time) map[types.Category]time.Time {
	out := make(map[types.Category]time.Time, len(in))
	for key, ts := range in {
		cat := types.Category(strings.ToLower(strings.TrimSpace(key)))
		if !cat.IsValid() || ts.IsZero() {
			continue
		}
		ts = ts.UTC()
		if prev, ok := out[cat]; !ok || ts.After(prev) {
			out[cat] = ts
		}
	}
	return out
}

func normalizeCompleted(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, id := range in {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			out[id] = true
		}
	}
	return out
}

func clampGPA(v float64) float64 {
	return math.Min(nonNegative(v), maxGPA)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}
