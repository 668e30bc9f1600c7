// Package config provides configuration loading and validation for the CLI, server and engine.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/jonathan/crna-guide/internal/types"
)

// weightTolerance absorbs float noise when checking that weight tables sum to 100.
const weightTolerance = 0.001

// Config is the process-wide configuration. It is loaded once at start-up and never mutated.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// AppConfig controls logging.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig controls the per-client token buckets in front of the API.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// DatabaseConfig holds the PostgreSQL connection URL for the snapshot store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the guidance cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// CatalogConfig points at an alternate step catalog. An empty Path uses the embedded default.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// EngineConfig holds every table the guidance engine reads: weights, benchmarks,
// thresholds and support-mode mappings.
type EngineConfig struct {
	Weights               map[types.Category]float64                   `mapstructure:"weights"`
	SubWeights            SubWeights                                   `mapstructure:"sub_weights"`
	Benchmarks            Benchmarks                                   `mapstructure:"benchmarks"`
	Thresholds            Thresholds                                   `mapstructure:"thresholds"`
	SeverityOrder         []types.SupportMode                          `mapstructure:"severity_order"`
	StageModes            map[types.ApplicationStage]types.SupportMode `mapstructure:"stage_modes"`
	SignalModes           map[types.RiskSignal]types.SupportMode       `mapstructure:"signal_modes"`
	RequiredPrerequisites []string                                     `mapstructure:"required_prerequisites"`
	MaxSteps              int                                          `mapstructure:"max_steps"`
}

// SubWeights holds the internal weights of each readiness category.
type SubWeights struct {
	Academic           AcademicWeights      `mapstructure:"academic"`
	Clinical           ClinicalWeights      `mapstructure:"clinical"`
	Shadowing          ShadowingWeights     `mapstructure:"shadowing"`
	LeadershipResearch LeadershipWeights    `mapstructure:"leadership_research"`
	Engagement         EngagementWeights    `mapstructure:"engagement"`
	Certifications     CertificationWeights `mapstructure:"certifications_exams"`
}

// AcademicWeights splits the academic category.
type AcademicWeights struct {
	OverallGPA    float64 `mapstructure:"overall_gpa"`
	ScienceGPA    float64 `mapstructure:"science_gpa"`
	Prerequisites float64 `mapstructure:"prerequisites"`
}

// Sum returns the total of the academic sub-weights.
func (w AcademicWeights) Sum() float64 { return w.OverallGPA + w.ScienceGPA + w.Prerequisites }

// ClinicalWeights splits the clinical category.
type ClinicalWeights struct {
	Devices     float64 `mapstructure:"devices"`
	Medications float64 `mapstructure:"medications"`
	Procedures  float64 `mapstructure:"procedures"`
	Populations float64 `mapstructure:"populations"`
	Pressors    float64 `mapstructure:"pressors"`
}

// Sum returns the total of the clinical sub-weights.
func (w ClinicalWeights) Sum() float64 {
	return w.Devices + w.Medications + w.Procedures + w.Populations + w.Pressors
}

// ShadowingWeights splits the shadowing category.
type ShadowingWeights struct {
	Hours     float64 `mapstructure:"hours"`
	Providers float64 `mapstructure:"providers"`
	Settings  float64 `mapstructure:"settings"`
}

// Sum returns the total of the shadowing sub-weights.
func (w ShadowingWeights) Sum() float64 { return w.Hours + w.Providers + w.Settings }

// LeadershipWeights splits the leadership/research category.
type LeadershipWeights struct {
	Leadership    float64 `mapstructure:"leadership"`
	Research      float64 `mapstructure:"research"`
	Presentations float64 `mapstructure:"presentations"`
}

// Sum returns the total of the leadership/research sub-weights.
func (w LeadershipWeights) Sum() float64 { return w.Leadership + w.Research + w.Presentations }

// EngagementWeights splits the engagement category.
type EngagementWeights struct {
	Events     float64 `mapstructure:"events"`
	Contacts   float64 `mapstructure:"contacts"`
	ForumPosts float64 `mapstructure:"forum_posts"`
}

// Sum returns the total of the engagement sub-weights.
func (w EngagementWeights) Sum() float64 { return w.Events + w.Contacts + w.ForumPosts }

// CertificationWeights splits the certifications/exams category.
type CertificationWeights struct {
	BLS  float64 `mapstructure:"bls"`
	ACLS float64 `mapstructure:"acls"`
	PALS float64 `mapstructure:"pals"`
	CCRN float64 `mapstructure:"ccrn"`
	GRE  float64 `mapstructure:"gre"`
}

// Sum returns the total of the certification sub-weights.
func (w CertificationWeights) Sum() float64 { return w.BLS + w.ACLS + w.PALS + w.CCRN + w.GRE }

// Benchmarks holds the targets each sub-rule is scored against.
type Benchmarks struct {
	GPAFloor           float64 `mapstructure:"gpa_floor"`
	GPATarget          float64 `mapstructure:"gpa_target"`
	GPABenchmark       float64 `mapstructure:"gpa_benchmark"`
	RetakePenalty      float64 `mapstructure:"retake_penalty"`
	DeviceTierTarget   float64 `mapstructure:"device_tier_target"`
	MedicationTarget   float64 `mapstructure:"medication_target"`
	ProcedureTarget    float64 `mapstructure:"procedure_target"`
	PopulationTarget   float64 `mapstructure:"population_target"`
	PressorTarget      float64 `mapstructure:"pressor_target"`
	ShadowingHours     float64 `mapstructure:"shadowing_hours"`
	ShadowingProviders float64 `mapstructure:"shadowing_providers"`
	ShadowingSettings  float64 `mapstructure:"shadowing_settings"`
	LeadershipRoles    float64 `mapstructure:"leadership_roles"`
	ResearchProjects   float64 `mapstructure:"research_projects"`
	Presentations      float64 `mapstructure:"presentations"`
	EventsAttended     float64 `mapstructure:"events_attended"`
	ProgramContacts    float64 `mapstructure:"program_contacts"`
	ForumPosts         float64 `mapstructure:"forum_posts"`
	GREFloor           float64 `mapstructure:"gre_floor"`
	GRETarget          float64 `mapstructure:"gre_target"`
	MinICUYears        float64 `mapstructure:"min_icu_years"`
}

// Thresholds holds the risk-signal windows.
type Thresholds struct {
	InactivityWindow time.Duration `mapstructure:"inactivity_window"`
	DeadlineWindow   time.Duration `mapstructure:"deadline_window"`
	CertExpiryWindow time.Duration `mapstructure:"cert_expiry_window"`
	RetakeThreshold  int           `mapstructure:"retake_threshold"`
}

const day = 24 * time.Hour

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		App: AppConfig{LogLevel: "info", LogFormat: "console"},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:         true,
				DefaultLimit:    1000,
				DefaultWindow:   time.Minute,
				CleanupInterval: 5 * time.Minute,
			},
		},
		Redis:  RedisConfig{CacheTTL: 15 * time.Minute},
		Engine: DefaultEngine(),
	}
}

// DefaultEngine returns the default engine tables.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		Weights: map[types.Category]float64{
			types.CategoryAcademic:           25,
			types.CategoryClinical:           20,
			types.CategoryShadowing:          15,
			types.CategoryLeadershipResearch: 15,
			types.CategoryEngagement:         15,
			types.CategoryCertifications:     10,
		},
		SubWeights: SubWeights{
			Academic:           AcademicWeights{OverallGPA: 35, ScienceGPA: 35, Prerequisites: 30},
			Clinical:           ClinicalWeights{Devices: 25, Medications: 20, Procedures: 25, Populations: 15, Pressors: 15},
			Shadowing:          ShadowingWeights{Hours: 60, Providers: 20, Settings: 20},
			LeadershipResearch: LeadershipWeights{Leadership: 50, Research: 35, Presentations: 15},
			Engagement:         EngagementWeights{Events: 40, Contacts: 35, ForumPosts: 25},
			Certifications:     CertificationWeights{BLS: 10, ACLS: 20, PALS: 15, CCRN: 35, GRE: 20},
		},
		Benchmarks: Benchmarks{
			GPAFloor:           2.5,
			GPATarget:          3.8,
			GPABenchmark:       3.0,
			RetakePenalty:      5,
			DeviceTierTarget:   9,
			MedicationTarget:   8,
			ProcedureTarget:    5,
			PopulationTarget:   4,
			PressorTarget:      3,
			ShadowingHours:     40,
			ShadowingProviders: 3,
			ShadowingSettings:  2,
			LeadershipRoles:    2,
			ResearchProjects:   1,
			Presentations:      1,
			EventsAttended:     4,
			ProgramContacts:    3,
			ForumPosts:         10,
			GREFloor:           260,
			GRETarget:          300,
			MinICUYears:        1,
		},
		Thresholds: Thresholds{
			InactivityWindow: 30 * day,
			DeadlineWindow:   45 * day,
			CertExpiryWindow: 60 * day,
			RetakeThreshold:  2,
		},
		SeverityOrder: []types.SupportMode{
			types.SupportLightTouch,
			types.SupportEncourage,
			types.SupportCoach,
			types.SupportIntensive,
		},
		StageModes: map[types.ApplicationStage]types.SupportMode{
			types.StageExploring:    types.SupportEncourage,
			types.StagePreparing:    types.SupportEncourage,
			types.StageApplying:     types.SupportCoach,
			types.StageInterviewing: types.SupportCoach,
			types.StageAdmitted:     types.SupportLightTouch,
			types.StageWaitlisted:   types.SupportEncourage,
			types.StageRejected:     types.SupportCoach,
		},
		SignalModes: map[types.RiskSignal]types.SupportMode{
			types.RiskStalledActivity:       types.SupportIntensive,
			types.RiskBelowBenchmarkGPA:     types.SupportCoach,
			types.RiskMissingPrerequisite:   types.SupportCoach,
			types.RiskApproachingDeadline:   types.SupportCoach,
			types.RiskRepeatedRetakes:       types.SupportCoach,
			types.RiskExpiringCertification: types.SupportEncourage,
			types.RiskLimitedICUExperience:  types.SupportEncourage,
		},
		RequiredPrerequisites: []string{
			"anatomy",
			"chemistry",
			"microbiology",
			"physiology",
			"statistics",
		},
		MaxSteps: 5,
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.DefaultLimit < 0 || rl.DefaultWindow <= 0) {
		return fmt.Errorf("config error: 'server.rate_limit' needs a non-negative limit and a positive window")
	}
	if c.Redis.CacheTTL < 0 {
		return fmt.Errorf("config error: 'redis.cache_ttl' must be non-negative")
	}
	return c.Engine.Validate()
}

// Validate checks weight conservation, the severity order and the mode tables.
func (e *EngineConfig) Validate() error {
	total := 0.0
	for _, cat := range types.Categories {
		w, ok := e.Weights[cat]
		if !ok {
			return fmt.Errorf("config error: missing weight for category '%s'", cat)
		}
		if w < 0 {
			return fmt.Errorf("config error: weight for category '%s' must be non-negative", cat)
		}
		total += w
	}
	for cat := range e.Weights {
		if !cat.IsValid() {
			return fmt.Errorf("config error: unknown category '%s' in weights", cat)
		}
	}
	if !sumsToHundred(total) {
		return fmt.Errorf("config error: category weights sum to %.3f, want 100", total)
	}

	subs := map[types.Category]float64{
		types.CategoryAcademic:           e.SubWeights.Academic.Sum(),
		types.CategoryClinical:           e.SubWeights.Clinical.Sum(),
		types.CategoryShadowing:          e.SubWeights.Shadowing.Sum(),
		types.CategoryLeadershipResearch: e.SubWeights.LeadershipResearch.Sum(),
		types.CategoryEngagement:         e.SubWeights.Engagement.Sum(),
		types.CategoryCertifications:     e.SubWeights.Certifications.Sum(),
	}
	for _, cat := range types.Categories {
		if !sumsToHundred(subs[cat]) {
			return fmt.Errorf("config error: '%s' sub-weights sum to %.3f, want 100", cat, subs[cat])
		}
	}

	if e.Benchmarks.GPATarget <= e.Benchmarks.GPAFloor {
		return fmt.Errorf("config error: 'gpa_target' must exceed 'gpa_floor'")
	}
	if e.Benchmarks.GRETarget <= e.Benchmarks.GREFloor {
		return fmt.Errorf("config error: 'gre_target' must exceed 'gre_floor'")
	}

	if e.Thresholds.InactivityWindow < 0 || e.Thresholds.DeadlineWindow < 0 || e.Thresholds.CertExpiryWindow < 0 {
		return fmt.Errorf("config error: threshold windows must be non-negative")
	}
	if e.Thresholds.RetakeThreshold < 1 {
		return fmt.Errorf("config error: 'retake_threshold' must be at least 1")
	}

	if len(e.SeverityOrder) != len(types.SupportModes) {
		return fmt.Errorf("config error: 'severity_order' must list all %d support modes exactly once", len(types.SupportModes))
	}
	seen := make(map[types.SupportMode]bool)
	for _, m := range e.SeverityOrder {
		if !m.IsValid() {
			return fmt.Errorf("config error: unknown support mode '%s' in severity_order", m)
		}
		if seen[m] {
			return fmt.Errorf("config error: duplicate support mode '%s' in severity_order", m)
		}
		seen[m] = true
	}

	for stage, mode := range e.StageModes {
		if !stage.IsValid() {
			return fmt.Errorf("config error: unknown stage '%s' in stage_modes", stage)
		}
		if !mode.IsValid() {
			return fmt.Errorf("config error: unknown support mode '%s' for stage '%s'", mode, stage)
		}
	}
	for signal, mode := range e.SignalModes {
		if !signal.IsValid() {
			return fmt.Errorf("config error: unknown risk signal '%s' in signal_modes", signal)
		}
		if !mode.IsValid() {
			return fmt.Errorf("config error: unknown support mode '%s' for signal '%s'", mode, signal)
		}
	}

	if e.MaxSteps < 0 {
		return fmt.Errorf("config error: 'max_steps' must be non-negative")
	}
	return nil
}

// Severity returns the position of mode in the severity order; unknown modes rank lowest.
func (e *EngineConfig) Severity(mode types.SupportMode) int {
	for i, m := range e.SeverityOrder {
		if m == mode {
			return i
		}
	}
	return -1
}

func sumsToHundred(total float64) bool {
	return math.Abs(total-100) <= weightTolerance
}
