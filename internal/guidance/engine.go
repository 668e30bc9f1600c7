package guidance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/readiness"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
)

// Engine computes guidance from snapshots. It holds only read-only configuration and
// the catalog, so one Engine may be shared by any number of goroutines.
type Engine struct {
	cfg     config.EngineConfig
	catalog *catalog.Catalog
	scorer  *readiness.Scorer
	rev     string
}

// New validates the configuration and builds an engine over the given catalog.
func New(cfg config.EngineConfig, cat *catalog.Catalog) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	rev, err := revision(cfg, cat)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		catalog: cat,
		scorer:  readiness.New(cfg),
		rev:     rev,
	}, nil
}

// revision fingerprints everything besides the snapshot that shapes a result.
func revision(cfg config.EngineConfig, cat *catalog.Catalog) (string, error) {
	data, err := json.Marshal(struct {
		Config  config.EngineConfig `json:"config"`
		Version string              `json:"version"`
		Steps   []catalog.EntrySpec `json:"steps"`
	}{cfg, cat.Version(), cat.Specs()})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint engine: %w", err)
	}
	sum := sha256.Sum256(data)
	return cat.Version() + "-" + hex.EncodeToString(sum[:6]), nil
}

// Revision identifies the catalog and configuration the engine computes with, as
// "<catalog version>-<hash>". Two engines with equal revisions give equal results.
func (e *Engine) Revision() string {
	return e.rev
}

// Catalog returns the catalog the engine ranks steps from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Scorer returns the engine's readiness scorer.
func (e *Engine) Scorer() *readiness.Scorer {
	return e.scorer
}

// Compute normalizes a raw snapshot and runs the full pipeline. The only error is a
// *snapshot.ValidationError for a snapshot without a user id.
func (e *Engine) Compute(raw *types.RawSnapshot) (*types.GuidanceState, error) {
	s, err := snapshot.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.ComputeNormalized(s), nil
}

// ComputeNormalized runs the pipeline on an already normalized snapshot.
func (e *Engine) ComputeNormalized(s types.UserSnapshot) *types.GuidanceState {
	stage := ClassifyStage(&s)
	signals := DetectRisks(&s, &e.cfg)
	mode := SelectSupportMode(stage, signals, &e.cfg)

	raised := make(map[types.RiskSignal]bool, len(signals))
	for _, sig := range signals {
		raised[sig] = true
	}
	facts := catalog.Facts{Snapshot: &s, Stage: stage, Signals: raised}
	steps := Rank(Qualify(e.catalog, facts), e.cfg.MaxSteps)

	return &types.GuidanceState{
		UserID:           s.UserID,
		ApplicationStage: stage,
		SupportMode:      mode,
		RiskSignals:      signals,
		NextBestSteps:    steps,
		Readiness:        e.scorer.Score(&s),
	}
}

// Readiness normalizes a raw snapshot and scores it without computing guidance.
func (e *Engine) Readiness(raw *types.RawSnapshot) (types.ReadinessScore, error) {
	s, err := snapshot.Normalize(raw)
	if err != nil {
		return types.ReadinessScore{}, err
	}
	return e.scorer.Score(&s), nil
}
