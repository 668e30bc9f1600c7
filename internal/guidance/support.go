package guidance

import (
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/types"
)

// SelectSupportMode picks the most severe mode among the stage baseline and the modes
// mapped to each raised signal. Stages or signals without a mapping contribute the
// lowest-severity mode.
func SelectSupportMode(stage types.ApplicationStage, signals []types.RiskSignal, cfg *config.EngineConfig) types.SupportMode {
	lowest := types.SupportLightTouch
	if len(cfg.SeverityOrder) > 0 {
		lowest = cfg.SeverityOrder[0]
	}

	mode, ok := cfg.StageModes[stage]
	if !ok {
		mode = lowest
	}
	for _, signal := range signals {
		candidate, ok := cfg.SignalModes[signal]
		if !ok {
			continue
		}
		if cfg.Severity(candidate) > cfg.Severity(mode) {
			mode = candidate
		}
	}
	return mode
}
