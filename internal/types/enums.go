package types

// PrerequisiteStatus is the completion state of a prerequisite course.
type PrerequisiteStatus string

const (
	PrerequisiteNotStarted PrerequisiteStatus = "not_started"
	PrerequisiteInProgress PrerequisiteStatus = "in_progress"
	PrerequisiteCompleted  PrerequisiteStatus = "completed"
)

// EntryKind classifies a clinical experience entry.
type EntryKind string

const (
	EntryDevice     EntryKind = "device"
	EntryMedication EntryKind = "medication"
	EntryProcedure  EntryKind = "procedure"
	EntryPopulation EntryKind = "population"
	EntryPressor    EntryKind = "pressor"
)

// ValidEntryKinds is the canonical set of accepted clinical entry kinds.
var ValidEntryKinds = map[EntryKind]bool{
	EntryDevice: true, EntryMedication: true, EntryProcedure: true,
	EntryPopulation: true, EntryPressor: true,
}

// ICUUnit is the type of critical care unit an applicant works in.
type ICUUnit string

const (
	ICUUnitCVICU  ICUUnit = "cvicu"
	ICUUnitSICU   ICUUnit = "sicu"
	ICUUnitMICU   ICUUnit = "micu"
	ICUUnitNeuro  ICUUnit = "neuro"
	ICUUnitTrauma ICUUnit = "trauma"
	ICUUnitPICU   ICUUnit = "picu"
	ICUUnitNICU   ICUUnit = "nicu"
	ICUUnitED     ICUUnit = "ed"
	ICUUnitOther  ICUUnit = "other"
)

// ICUUnits lists every accepted unit type.
var ICUUnits = []ICUUnit{
	ICUUnitCVICU, ICUUnitSICU, ICUUnitMICU, ICUUnitNeuro, ICUUnitTrauma,
	ICUUnitPICU, ICUUnitNICU, ICUUnitED, ICUUnitOther,
}

// IsValid reports whether u is one of the known unit types.
func (u ICUUnit) IsValid() bool {
	for _, known := range ICUUnits {
		if u == known {
			return true
		}
	}
	return false
}

// Confidence is the self-reported skill level for a clinical entry.
type Confidence string

const (
	ConfidenceObserved   Confidence = "observed"
	ConfidenceAssisted   Confidence = "assisted"
	ConfidencePerformed  Confidence = "performed"
	ConfidenceCouldTeach Confidence = "could_teach"
)

// confidenceLevels orders confidence from least to most independent.
var confidenceLevels = map[Confidence]int{
	ConfidenceObserved:   1,
	ConfidenceAssisted:   2,
	ConfidencePerformed:  3,
	ConfidenceCouldTeach: 4,
}

// Level returns the ordinal of the confidence value, 0 when unknown.
func (c Confidence) Level() int {
	return confidenceLevels[c]
}

// AtLeast reports whether c is at or above other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c.Level() >= other.Level()
}

// ProgramStatus is where an applicant stands with one target program.
type ProgramStatus string

const (
	ProgramResearching      ProgramStatus = "researching"
	ProgramSubmitted        ProgramStatus = "submitted"
	ProgramInterviewInvited ProgramStatus = "interview_invited"
	ProgramInterviewed      ProgramStatus = "interviewed"
	ProgramAdmitted         ProgramStatus = "admitted"
	ProgramWaitlisted       ProgramStatus = "waitlisted"
	ProgramRejected         ProgramStatus = "rejected"
)

// ValidProgramStatuses is the canonical set of accepted program statuses.
var ValidProgramStatuses = map[ProgramStatus]bool{
	ProgramResearching: true, ProgramSubmitted: true, ProgramInterviewInvited: true,
	ProgramInterviewed: true, ProgramAdmitted: true, ProgramWaitlisted: true, ProgramRejected: true,
}

// Category is a readiness scoring category. Last-activity timestamps are keyed by the same set.
type Category string

const (
	CategoryAcademic           Category = "academic"
	CategoryClinical           Category = "clinical"
	CategoryShadowing          Category = "shadowing"
	CategoryLeadershipResearch Category = "leadership_research"
	CategoryEngagement         Category = "engagement"
	CategoryCertifications     Category = "certifications_exams"
)

// Categories lists every readiness category in display order.
var Categories = []Category{
	CategoryAcademic,
	CategoryClinical,
	CategoryShadowing,
	CategoryLeadershipResearch,
	CategoryEngagement,
	CategoryCertifications,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ApplicationStage is the derived lifecycle stage of an applicant.
type ApplicationStage string

const (
	StageExploring    ApplicationStage = "exploring"
	StagePreparing    ApplicationStage = "preparing"
	StageApplying     ApplicationStage = "applying"
	StageInterviewing ApplicationStage = "interviewing"
	StageAdmitted     ApplicationStage = "admitted"
	StageWaitlisted   ApplicationStage = "waitlisted"
	StageRejected     ApplicationStage = "rejected"
)

// Stages lists every stage in lifecycle order.
var Stages = []ApplicationStage{
	StageExploring,
	StagePreparing,
	StageApplying,
	StageInterviewing,
	StageAdmitted,
	StageWaitlisted,
	StageRejected,
}

// IsValid reports whether s is one of the known stages.
func (s ApplicationStage) IsValid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// RiskSignal is a flagged condition suggesting the applicant may need intervention.
type RiskSignal string

const (
	RiskStalledActivity       RiskSignal = "stalled_activity"
	RiskBelowBenchmarkGPA     RiskSignal = "below_benchmark_academics"
	RiskMissingPrerequisite   RiskSignal = "missing_prerequisite"
	RiskApproachingDeadline   RiskSignal = "approaching_deadline"
	RiskExpiringCertification RiskSignal = "expiring_certification"
	RiskRepeatedRetakes       RiskSignal = "repeated_retakes"
	RiskLimitedICUExperience  RiskSignal = "limited_icu_experience"
)

// RiskSignals lists every risk signal in reporting order.
var RiskSignals = []RiskSignal{
	RiskStalledActivity,
	RiskBelowBenchmarkGPA,
	RiskMissingPrerequisite,
	RiskApproachingDeadline,
	RiskExpiringCertification,
	RiskRepeatedRetakes,
	RiskLimitedICUExperience,
}

// IsValid reports whether r is one of the known risk signals.
func (r RiskSignal) IsValid() bool {
	for _, known := range RiskSignals {
		if r == known {
			return true
		}
	}
	return false
}

// SupportMode governs the tone and intensity of guidance shown to an applicant.
type SupportMode string

const (
	SupportLightTouch SupportMode = "light_touch"
	SupportEncourage  SupportMode = "encourage"
	SupportCoach      SupportMode = "coach"
	SupportIntensive  SupportMode = "intensive"
)

// SupportModes lists every support mode.
var SupportModes = []SupportMode{
	SupportLightTouch,
	SupportEncourage,
	SupportCoach,
	SupportIntensive,
}

// IsValid reports whether m is one of the known support modes.
func (m SupportMode) IsValid() bool {
	for _, known := range SupportModes {
		if m == known {
			return true
		}
	}
	return false
}

// Tier is the priority bucket of a next best step.
type Tier string

const (
	TierQuickWin Tier = "quick_win"
	TierModerate Tier = "moderate"
	TierLongTerm Tier = "long_term"
)

var tierRanks = map[Tier]int{
	TierQuickWin: 0,
	TierModerate: 1,
	TierLongTerm: 2,
}

// Rank returns the ordering position of the tier, -1 when unknown.
func (t Tier) Rank() int {
	if r, ok := tierRanks[t]; ok {
		return r
	}
	return -1
}

// IsValid reports whether t is one of the known tiers.
func (t Tier) IsValid() bool {
	_, ok := tierRanks[t]
	return ok
}

// ReadinessLevel is the qualitative band of a readiness score.
type ReadinessLevel string

const (
	LevelEmerging    ReadinessLevel = "Emerging"
	LevelDeveloping  ReadinessLevel = "Developing"
	LevelStrong      ReadinessLevel = "Strong"
	LevelExceptional ReadinessLevel = "Exceptional"
)

// LevelForScore maps a 0-100 composite score to its qualitative band.
func LevelForScore(score int) ReadinessLevel {
	switch {
	case score >= 80:
		return LevelExceptional
	case score >= 60:
		return LevelStrong
	case score >= 40:
		return LevelDeveloping
	default:
		return LevelEmerging
	}
}
