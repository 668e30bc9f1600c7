package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuidanceState_HasSignal(t *testing.T) {
	g := &GuidanceState{RiskSignals: []RiskSignal{RiskStalledActivity, RiskApproachingDeadline}}
	assert.True(t, g.HasSignal(RiskStalledActivity))
	assert.True(t, g.HasSignal(RiskApproachingDeadline))
	assert.False(t, g.HasSignal(RiskRepeatedRetakes))
	assert.False(t, (&GuidanceState{}).HasSignal(RiskStalledActivity))
}

func TestGuidanceState_StepIDs(t *testing.T) {
	g := &GuidanceState{NextBestSteps: []NextBestStep{{ID: "obtain-bls"}, {ID: "take-gre"}}}
	assert.Equal(t, []string{"obtain-bls", "take-gre"}, g.StepIDs())
	assert.Empty(t, (&GuidanceState{}).StepIDs())
	assert.NotNil(t, (&GuidanceState{}).StepIDs())
}

func TestReadinessScore_CategoryScore(t *testing.T) {
	r := ReadinessScore{Categories: []CategoryScore{
		{Category: CategoryAcademic, Score: 70, Weight: 0.25},
		{Category: CategoryClinical, Score: 40, Weight: 0.3},
	}}

	cs, ok := r.CategoryScore(CategoryClinical)
	require.True(t, ok)
	assert.Equal(t, 40, cs.Score)

	_, ok = r.CategoryScore(CategoryShadowing)
	assert.False(t, ok)
}

func TestGuidanceState_JSON(t *testing.T) {
	g := GuidanceState{
		UserID:           "u-1",
		ApplicationStage: StagePreparing,
		SupportMode:      SupportCoach,
		RiskSignals:      []RiskSignal{},
		NextBestSteps:    []NextBestStep{{ID: "obtain-ccrn", Rank: 1, Tier: TierModerate, Category: CategoryCertifications}},
		Readiness:        ReadinessScore{Score: 48, Level: LevelDeveloping},
	}

	data, err := json.Marshal(g)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"application_stage":"preparing"`)
	assert.Contains(t, s, `"support_mode":"coach"`)
	assert.Contains(t, s, `"risk_signals":[]`)
	assert.Contains(t, s, `"tier":"moderate"`)
	assert.Contains(t, s, `"category":"certifications_exams"`)
}

func TestUserSnapshot_HasCertification(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := asOf.AddDate(0, -1, 0)
	valid := asOf.AddDate(1, 0, 0)

	s := &UserSnapshot{
		AsOf: asOf,
		Certifications: []Certification{
			{Name: "BLS"},
			{Name: "ACLS", ExpiresAt: &expired},
			{Name: "PALS", ExpiresAt: &valid},
		},
	}
	assert.True(t, s.HasCertification("BLS"))
	assert.False(t, s.HasCertification("ACLS"))
	assert.True(t, s.HasCertification("PALS"))
	assert.False(t, s.HasCertification("CCRN"))
}

func TestUserSnapshot_Shadowing(t *testing.T) {
	s := &UserSnapshot{Shadowing: []ShadowingEntry{
		{Hours: 8, Provider: "Dr. A", Setting: "OR"},
		{Hours: 4.5, Provider: "Dr. A", Setting: "cardiac"},
		{Hours: 6, Provider: "CRNA B", Setting: "OR"},
		{Hours: 2},
	}}
	assert.InDelta(t, 20.5, s.ShadowingHours(), 1e-9)
	assert.Equal(t, 2, s.UniqueShadowingProviders())
	assert.Equal(t, 2, s.UniqueShadowingSettings())
}

func TestUserSnapshot_EntriesOfKind(t *testing.T) {
	s := &UserSnapshot{Clinical: Clinical{Entries: []ClinicalEntry{
		{Kind: EntryDevice, Name: "arterial line", Tier: 2},
		{Kind: EntryPressor, Name: "norepinephrine"},
		{Kind: EntryDevice, Name: "ecmo", Tier: 3},
	}}}

	devices := s.EntriesOfKind(EntryDevice)
	require.Len(t, devices, 2)
	assert.Equal(t, "arterial line", devices[0].Name)
	assert.Equal(t, "ecmo", devices[1].Name)
	assert.Empty(t, s.EntriesOfKind(EntryProcedure))
}

func TestUserSnapshot_LatestActivity(t *testing.T) {
	_, ok := (&UserSnapshot{}).LatestActivity()
	assert.False(t, ok)

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &UserSnapshot{LastActivity: map[Category]time.Time{
		CategoryAcademic: older,
		CategoryClinical: newer,
	}}
	latest, ok := s.LatestActivity()
	require.True(t, ok)
	assert.Equal(t, newer, latest)
}
