// Package guidance composes the guidance pipeline: stage classification, risk detection,
// support-mode selection, step qualification and ranking, and readiness scoring.
//
// Every stage is a pure function of the normalized snapshot and the engine configuration.
// Nothing in this package reads the clock, logs, or keeps mutable state.
package guidance

import "github.com/jonathan/crna-guide/internal/types"

// ClassifyStage derives the application stage from program statuses and accumulated
// experience. The first matching rule wins:
//
//  1. admitted      any program admitted
//  2. waitlisted    any program waitlisted
//  3. interviewing  any program interview_invited or interviewed
//  4. rejected      at least one program, all rejected
//  5. applying      any program submitted
//  6. preparing     any clinical entry, ICU years, shadowing hours, certification or target program
//  7. exploring     otherwise
func ClassifyStage(s *types.UserSnapshot) types.ApplicationStage {
	counts := make(map[types.ProgramStatus]int, len(types.ValidProgramStatuses))
	for _, p := range s.Programs {
		counts[p.Status]++
	}

	switch {
	case counts[types.ProgramAdmitted] > 0:
		return types.StageAdmitted
	case counts[types.ProgramWaitlisted] > 0:
		return types.StageWaitlisted
	case counts[types.ProgramInterviewInvited] > 0 || counts[types.ProgramInterviewed] > 0:
		return types.StageInterviewing
	case len(s.Programs) > 0 && counts[types.ProgramRejected] == len(s.Programs):
		return types.StageRejected
	case counts[types.ProgramSubmitted] > 0:
		return types.StageApplying
	case hasPreparation(s):
		return types.StagePreparing
	default:
		return types.StageExploring
	}
}

func hasPreparation(s *types.UserSnapshot) bool {
	return len(s.Clinical.Entries) > 0 ||
		s.Clinical.ICUYears > 0 ||
		s.ShadowingHours() > 0 ||
		len(s.Certifications) > 0 ||
		len(s.Programs) > 0
}
