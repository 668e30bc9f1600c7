// Package types provides type definitions for structured data used throughout the guidance engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// RawSnapshot is an applicant snapshot as supplied by a caller (file, HTTP body, database document).
// Every field except UserID may be omitted; the normalizer fills the gaps.
type RawSnapshot struct {
	UserID           string               `json:"user_id" validate:"required"`
	AsOf             *time.Time           `json:"as_of,omitempty"`
	Academic         *Academic            `json:"academic,omitempty"`
	Clinical         *Clinical            `json:"clinical,omitempty"`
	Shadowing        []ShadowingEntry     `json:"shadowing,omitempty"`
	Certifications   []Certification      `json:"certifications,omitempty"`
	Exams            *Exams               `json:"exams,omitempty"`
	Activities       *Activities          `json:"activities,omitempty"`
	Engagement       *Engagement          `json:"engagement,omitempty"`
	Programs         []Program            `json:"programs,omitempty"`
	LastActivity     map[string]time.Time `json:"last_activity,omitempty"`
	CompletedActions []string             `json:"completed_actions,omitempty"`
}

// UserSnapshot is the canonical, fully defaulted view of one applicant.
// It is treated as an immutable value by everything downstream of the normalizer.
type UserSnapshot struct {
	UserID           string                 `json:"user_id"`
	AsOf             time.Time              `json:"as_of"`
	Academic         Academic               `json:"academic"`
	Clinical         Clinical               `json:"clinical"`
	Shadowing        []ShadowingEntry       `json:"shadowing"`
	Certifications   []Certification        `json:"certifications"`
	Exams            Exams                  `json:"exams"`
	Activities       Activities             `json:"activities"`
	Engagement       Engagement             `json:"engagement"`
	Programs         []Program              `json:"programs"`
	LastActivity     map[Category]time.Time `json:"last_activity"`
	CompletedActions map[string]bool        `json:"completed_actions"`
}

// Academic holds GPA values (4.0 scale, 0 means not recorded) and prerequisite coursework.
type Academic struct {
	OverallGPA    float64        `json:"overall_gpa"`
	ScienceGPA    float64        `json:"science_gpa"`
	Prerequisites []Prerequisite `json:"prerequisites"`
}

// Prerequisite is a single prerequisite course and its completion state.
type Prerequisite struct {
	Name    string             `json:"name"`
	Status  PrerequisiteStatus `json:"status"`
	Grade   string             `json:"grade,omitempty"`
	Retakes int                `json:"retakes"`
}

// Clinical holds ICU background and the logged clinical experience entries.
// An empty ICUUnit means no unit was recorded.
type Clinical struct {
	ICUUnit  ICUUnit         `json:"icu_unit"`
	ICUYears float64         `json:"icu_years"`
	Entries  []ClinicalEntry `json:"entries"`
}

// ClinicalEntry is one tracked device, medication, procedure, population or pressor.
// Tier is only meaningful for devices (1 = basic, 3 = most complex).
type ClinicalEntry struct {
	Kind       EntryKind  `json:"kind"`
	Name       string     `json:"name"`
	Tier       int        `json:"tier,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// ShadowingEntry is one CRNA shadowing session.
type ShadowingEntry struct {
	Hours    float64 `json:"hours"`
	Provider string  `json:"provider"`
	Setting  string  `json:"setting"`
}

// Certification is a held certification. A nil ExpiresAt never expires.
type Certification struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Exams holds standardized exam results.
type Exams struct {
	GRE *GREScore `json:"gre,omitempty"`
}

// GREScore is a GRE general test result.
type GREScore struct {
	Verbal  int     `json:"verbal"`
	Quant   int     `json:"quant"`
	Writing float64 `json:"writing"`
}

// Activities counts leadership and scholarly work.
type Activities struct {
	LeadershipRoles  int `json:"leadership_roles"`
	ResearchProjects int `json:"research_projects"`
	Presentations    int `json:"presentations"`
}

// Engagement counts community and networking activity.
type Engagement struct {
	EventsAttended  int `json:"events_attended"`
	ProgramContacts int `json:"program_contacts"`
	ForumPosts      int `json:"forum_posts"`
}

// Program is a target CRNA program and where the applicant stands with it.
type Program struct {
	Name     string        `json:"name"`
	Deadline *time.Time    `json:"deadline,omitempty"`
	Status   ProgramStatus `json:"status"`
}

// HasCertification reports whether the named certification is held and unexpired at AsOf.
func (s *UserSnapshot) HasCertification(name string) bool {
	for _, c := range s.Certifications {
		if c.Name != name {
			continue
		}
		if c.ExpiresAt == nil || c.ExpiresAt.After(s.AsOf) {
			return true
		}
	}
	return false
}

// ShadowingHours returns the total logged shadowing hours.
func (s *UserSnapshot) ShadowingHours() float64 {
	total := 0.0
	for _, e := range s.Shadowing {
		total += e.Hours
	}
	return total
}

// UniqueShadowingProviders returns the number of distinct shadowed providers.
func (s *UserSnapshot) UniqueShadowingProviders() int {
	return countDistinct(s.Shadowing, func(e ShadowingEntry) string { return e.Provider })
}

// UniqueShadowingSettings returns the number of distinct shadowing settings.
func (s *UserSnapshot) UniqueShadowingSettings() int {
	return countDistinct(s.Shadowing, func(e ShadowingEntry) string { return e.Setting })
}

// EntriesOfKind returns the clinical entries of the given kind, in snapshot order.
func (s *UserSnapshot) EntriesOfKind(kind EntryKind) []ClinicalEntry {
	var out []ClinicalEntry
	for _, e := range s.Clinical.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// LatestActivity returns the most recent last-activity timestamp and false when none is recorded.
func (s *UserSnapshot) LatestActivity() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, ts := range s.LastActivity {
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}
	return latest, found
}

func countDistinct[T any](items []T, key func(T) string) int {
	seen := make(map[string]struct{})
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		seen[k] = struct{}{}
	}
	return len(seen)
}
