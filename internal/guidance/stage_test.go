package guidance

import (
	"testing"

	"github.com/jonathan/crna-guide/internal/types"
	"github.com/stretchr/testify/assert"
)

func programs(statuses ...types.ProgramStatus) []types.Program {
	out := make([]types.Program, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, types.Program{Name: string(st), Status: st})
	}
	return out
}

func TestClassifyStage(t *testing.T) {
	tests := []struct {
		name string
		s    types.UserSnapshot
		want types.ApplicationStage
	}{
		{name: "nothing recorded", s: types.UserSnapshot{}, want: types.StageExploring},
		{
			name: "gpa alone is not preparation",
			s:    types.UserSnapshot{Academic: types.Academic{OverallGPA: 3.5}},
			want: types.StageExploring,
		},
		{
			name: "clinical entry",
			s:    types.UserSnapshot{Clinical: types.Clinical{Entries: []types.ClinicalEntry{{Kind: types.EntryDevice, Name: "CRRT"}}}},
			want: types.StagePreparing,
		},
		{name: "icu years", s: types.UserSnapshot{Clinical: types.Clinical{ICUYears: 0.5}}, want: types.StagePreparing},
		{name: "shadowing", s: types.UserSnapshot{Shadowing: []types.ShadowingEntry{{Hours: 4}}}, want: types.StagePreparing},
		{name: "zero-hour shadowing", s: types.UserSnapshot{Shadowing: []types.ShadowingEntry{{Hours: 0}}}, want: types.StageExploring},
		{name: "certification", s: types.UserSnapshot{Certifications: []types.Certification{{Name: "BLS"}}}, want: types.StagePreparing},
		{name: "researching program", s: types.UserSnapshot{Programs: programs(types.ProgramResearching)}, want: types.StagePreparing},
		{name: "submitted", s: types.UserSnapshot{Programs: programs(types.ProgramResearching, types.ProgramSubmitted)}, want: types.StageApplying},
		{name: "all rejected", s: types.UserSnapshot{Programs: programs(types.ProgramRejected, types.ProgramRejected)}, want: types.StageRejected},
		{name: "rejected and submitted", s: types.UserSnapshot{Programs: programs(types.ProgramRejected, types.ProgramSubmitted)}, want: types.StageApplying},
		{name: "invited", s: types.UserSnapshot{Programs: programs(types.ProgramRejected, types.ProgramInterviewInvited)}, want: types.StageInterviewing},
		{name: "interviewed", s: types.UserSnapshot{Programs: programs(types.ProgramInterviewed)}, want: types.StageInterviewing},
		{name: "waitlisted beats interviewing", s: types.UserSnapshot{Programs: programs(types.ProgramInterviewed, types.ProgramWaitlisted)}, want: types.StageWaitlisted},
		{name: "admitted beats everything", s: types.UserSnapshot{Programs: programs(types.ProgramWaitlisted, types.ProgramRejected, types.ProgramAdmitted)}, want: types.StageAdmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStage(&tt.s))
		})
	}
}
