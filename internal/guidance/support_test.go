package guidance

import (
	"testing"

	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSelectSupportMode_StageBaselines(t *testing.T) {
	cfg := config.DefaultEngine()

	tests := []struct {
		stage types.ApplicationStage
		want  types.SupportMode
	}{
		{types.StageExploring, types.SupportEncourage},
		{types.StagePreparing, types.SupportEncourage},
		{types.StageApplying, types.SupportCoach},
		{types.StageInterviewing, types.SupportCoach},
		{types.StageAdmitted, types.SupportLightTouch},
		{types.StageWaitlisted, types.SupportEncourage},
		{types.StageRejected, types.SupportCoach},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.Equal(t, tt.want, SelectSupportMode(tt.stage, nil, &cfg))
		})
	}
}

func TestSelectSupportMode_SignalsEscalate(t *testing.T) {
	cfg := config.DefaultEngine()

	got := SelectSupportMode(types.StageAdmitted, []types.RiskSignal{types.RiskExpiringCertification}, &cfg)
	assert.Equal(t, types.SupportEncourage, got)

	got = SelectSupportMode(types.StagePreparing, []types.RiskSignal{types.RiskMissingPrerequisite}, &cfg)
	assert.Equal(t, types.SupportCoach, got)
}

func TestSelectSupportMode_LowerSignalsNeverDeescalate(t *testing.T) {
	cfg := config.DefaultEngine()

	got := SelectSupportMode(types.StageApplying, []types.RiskSignal{types.RiskLimitedICUExperience}, &cfg)
	assert.Equal(t, types.SupportCoach, got)
}

// The most severe signal decides the mode whatever else co-occurs.
func TestSelectSupportMode_HighestSeverityWins(t *testing.T) {
	cfg := config.DefaultEngine()
	others := []types.RiskSignal{
		types.RiskBelowBenchmarkGPA,
		types.RiskMissingPrerequisite,
		types.RiskApproachingDeadline,
		types.RiskExpiringCertification,
		types.RiskRepeatedRetakes,
		types.RiskLimitedICUExperience,
	}

	// every subset of the other signals, combined with stalled_activity
	for mask := 0; mask < 1<<len(others); mask++ {
		signals := []types.RiskSignal{types.RiskStalledActivity}
		for i, s := range others {
			if mask&(1<<i) != 0 {
				signals = append(signals, s)
			}
		}
		for _, stage := range types.Stages {
			assert.Equal(t, types.SupportIntensive, SelectSupportMode(stage, signals, &cfg), "stage=%s signals=%v", stage, signals)
		}
	}
}

func TestSelectSupportMode_CustomSeverityOrder(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.SeverityOrder = []types.SupportMode{
		types.SupportIntensive,
		types.SupportLightTouch,
		types.SupportEncourage,
		types.SupportCoach,
	}

	got := SelectSupportMode(types.StageExploring, []types.RiskSignal{types.RiskStalledActivity}, &cfg)
	assert.Equal(t, types.SupportEncourage, got, "intensive ranks lowest under this order")
}

func TestSelectSupportMode_UnmappedFallsBackToLowest(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.StageModes = map[types.ApplicationStage]types.SupportMode{}
	cfg.SignalModes = map[types.RiskSignal]types.SupportMode{}

	got := SelectSupportMode(types.StageApplying, []types.RiskSignal{types.RiskStalledActivity}, &cfg)
	assert.Equal(t, types.SupportLightTouch, got)
}
