// Package fixtures provides canonical applicant snapshots shared by tests across packages.
package fixtures

import (
	"time"

	"github.com/jonathan/crna-guide/internal/types"
)

// AsOf is the evaluation instant every fixture is pinned to.
var AsOf = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Days returns a pointer to AsOf shifted by n days.
func Days(n int) *time.Time {
	t := AsOf.AddDate(0, 0, n)
	return &t
}

// Struggling is an applicant with no clinical or shadowing history, a GPA under the
// 3.0 benchmark and nothing logged for 90 days.
func Struggling() *types.RawSnapshot {
	asOf := AsOf
	return &types.RawSnapshot{
		UserID: "4b1f3c2e-8d6a-4e0b-9a57-1c2d3e4f5a6b",
		AsOf:   &asOf,
		Academic: &types.Academic{
			OverallGPA: 2.7,
			ScienceGPA: 2.6,
			Prerequisites: []types.Prerequisite{
				{Name: "Chemistry", Status: types.PrerequisiteCompleted, Grade: "C", Retakes: 1},
				{Name: "Anatomy", Status: types.PrerequisiteInProgress},
			},
		},
		LastActivity: map[string]time.Time{
			"academic": AsOf.AddDate(0, 0, -90),
		},
	}
}

// Exceptional is an applicant at or above every benchmark, with one program still
// being researched and its deadline well outside any warning window.
func Exceptional() *types.RawSnapshot {
	asOf := AsOf
	entries := []types.ClinicalEntry{
		{Kind: types.EntryDevice, Name: "Impella", Tier: 3, Confidence: types.ConfidencePerformed},
		{Kind: types.EntryDevice, Name: "ECMO", Tier: 3, Confidence: types.ConfidenceAssisted},
		{Kind: types.EntryDevice, Name: "IABP", Tier: 3, Confidence: types.ConfidenceCouldTeach},
	}
	for _, m := range []string{"Propofol", "Fentanyl", "Midazolam", "Dexmedetomidine", "Heparin", "Insulin", "Amiodarone", "Nicardipine"} {
		entries = append(entries, types.ClinicalEntry{Kind: types.EntryMedication, Name: m, Confidence: types.ConfidencePerformed})
	}
	for _, p := range []string{"Arterial line", "Central line", "Intubation assist", "PA catheter", "Chest tube management"} {
		entries = append(entries, types.ClinicalEntry{Kind: types.EntryProcedure, Name: p, Confidence: types.ConfidenceCouldTeach})
	}
	for _, p := range []string{"Cardiac surgery", "Trauma", "Neuro", "Transplant"} {
		entries = append(entries, types.ClinicalEntry{Kind: types.EntryPopulation, Name: p, Confidence: types.ConfidencePerformed})
	}
	for _, p := range []string{"Norepinephrine", "Vasopressin", "Epinephrine"} {
		entries = append(entries, types.ClinicalEntry{Kind: types.EntryPressor, Name: p, Confidence: types.ConfidenceCouldTeach})
	}

	prereqs := make([]types.Prerequisite, 0, 5)
	for _, name := range []string{"anatomy", "chemistry", "microbiology", "physiology", "statistics"} {
		prereqs = append(prereqs, types.Prerequisite{Name: name, Status: types.PrerequisiteCompleted, Grade: "A"})
	}

	return &types.RawSnapshot{
		UserID:   "9e8d7c6b-5a49-4382-b1a0-f9e8d7c6b5a4",
		AsOf:     &asOf,
		Academic: &types.Academic{OverallGPA: 3.95, ScienceGPA: 3.9, Prerequisites: prereqs},
		Clinical: &types.Clinical{ICUUnit: "cvicu", ICUYears: 4, Entries: entries},
		Shadowing: []types.ShadowingEntry{
			{Hours: 16, Provider: "Dr. Alvarez", Setting: "OR"},
			{Hours: 16, Provider: "Dr. Brooks", Setting: "Cardiac"},
			{Hours: 16, Provider: "Dr. Chen", Setting: "OB"},
		},
		Certifications: []types.Certification{
			{Name: "BLS", ExpiresAt: Days(500)},
			{Name: "ACLS", ExpiresAt: Days(500)},
			{Name: "PALS", ExpiresAt: Days(500)},
			{Name: "CCRN", ExpiresAt: Days(900)},
		},
		Exams:      &types.Exams{GRE: &types.GREScore{Verbal: 158, Quant: 160, Writing: 5}},
		Activities: &types.Activities{LeadershipRoles: 3, ResearchProjects: 2, Presentations: 2},
		Engagement: &types.Engagement{EventsAttended: 6, ProgramContacts: 4, ForumPosts: 15},
		Programs: []types.Program{
			{Name: "University CRNA Program", Status: types.ProgramResearching, Deadline: Days(150)},
		},
		LastActivity: map[string]time.Time{
			"clinical":  AsOf.AddDate(0, 0, -2),
			"shadowing": AsOf.AddDate(0, 0, -10),
		},
	}
}
