package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/crna-guide/internal/cache"
	"github.com/jonathan/crna-guide/internal/catalog"
	"github.com/jonathan/crna-guide/internal/metrics"
	"github.com/jonathan/crna-guide/internal/readiness"
	"github.com/jonathan/crna-guide/internal/server/middleware"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/jonathan/crna-guide/internal/types"
	"go.uber.org/zap"
)

// Computation sources, used as the duration metric label.
const (
	sourceRequest = "request"
	sourceStore   = "store"
)

// ReadinessResponse is the body of POST /v1/readiness.
type ReadinessResponse struct {
	Readiness  types.ReadinessScore `json:"readiness"`
	Priorities []readiness.Priority `json:"priorities"`
}

// CatalogResponse is the body of GET /v1/catalog.
type CatalogResponse struct {
	Version string              `json:"version"`
	Steps   []catalog.EntrySpec `json:"steps"`
}

// SnapshotResponse acknowledges a stored snapshot.
type SnapshotResponse struct {
	UserID   string               `json:"user_id"`
	Guidance *types.GuidanceState `json:"guidance"`
}

// handleGuidance computes guidance for the snapshot in the request body.
func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	raw, err := s.decodeSnapshot(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	state, err := s.compute(r.Context(), raw, sourceRequest)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, state)
}

// handleReadiness scores the snapshot in the request body and lists where points are cheapest.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	raw, err := s.decodeSnapshot(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	score, err := s.engine.Readiness(raw)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ReadinessResponse{
		Readiness:  score,
		Priorities: s.engine.Scorer().PriorityActions(score),
	})
}

// handleCatalog lists the steps the engine can recommend.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	cat := s.engine.Catalog()
	s.jsonResponse(w, http.StatusOK, CatalogResponse{
		Version: cat.Version(),
		Steps:   cat.Specs(),
	})
}

// handleUserGuidance computes guidance for a stored snapshot.
func (s *Server) handleUserGuidance(w http.ResponseWriter, r *http.Request) {
	userID, err := s.pathUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	raw, err := s.store.GetSnapshot(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if raw == nil {
		s.handleError(w, r, &ErrSnapshotNotFound{UserID: userID})
		return
	}

	state, err := s.compute(r.Context(), raw, sourceStore)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, state)
}

// handlePutSnapshot stores a snapshot for the user in the path and returns its guidance.
// A body without user_id takes the path id; a conflicting one is rejected.
func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := s.pathUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	raw, err := s.decodeSnapshot(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if raw.UserID == "" {
		raw.UserID = userID.String()
	}
	if bodyID, err := uuid.Parse(raw.UserID); err != nil || bodyID != userID {
		s.handleError(w, r, &ErrValidation{Field: "user_id", Message: "must match the user id in the path"})
		return
	}

	// Compute before storing so an invalid snapshot never reaches the store.
	state, err := s.engine.Compute(raw)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if _, err := s.store.SaveSnapshot(r.Context(), raw); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.invalidate(r, userID)

	s.jsonResponse(w, http.StatusOK, SnapshotResponse{UserID: userID.String(), Guidance: state})
}

// handleDeleteSnapshot removes a stored snapshot.
func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := s.pathUserID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	deleted, err := s.store.DeleteSnapshot(r.Context(), userID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if !deleted {
		s.handleError(w, r, &ErrSnapshotNotFound{UserID: userID})
		return
	}
	s.invalidate(r, userID)

	w.WriteHeader(http.StatusNoContent)
}

// compute returns guidance for raw, consulting the cache first when one is configured.
// Cache failures are logged and bypassed.
func (s *Server) compute(ctx context.Context, raw *types.RawSnapshot, source string) (*types.GuidanceState, error) {
	start := time.Now()
	log := s.logger.With(zap.String("request_id", middleware.GetRequestID(ctx)))

	var key string
	if s.cache == nil {
		s.metrics.ObserveCache(metrics.CacheBypass)
	} else if k, err := cache.Key(s.engine.Revision(), raw); err != nil {
		log.Warn("failed to derive cache key", zap.Error(err))
		s.metrics.ObserveCache(metrics.CacheError)
	} else {
		state, hit, err := s.cache.Get(ctx, k)
		switch {
		case err != nil:
			log.Warn("cache lookup failed", zap.Error(err))
			s.metrics.ObserveCache(metrics.CacheError)
		case hit:
			s.metrics.ObserveCache(metrics.CacheHit)
			return state, nil
		default:
			s.metrics.ObserveCache(metrics.CacheMiss)
		}
		key = k
	}

	state, err := s.engine.Compute(raw)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGuidance(source, state, time.Since(start))

	if key != "" {
		if err := s.cache.Set(ctx, key, state); err != nil {
			log.Warn("cache store failed", zap.Error(err))
		}
	}
	return state, nil
}

// invalidate drops cached guidance after a snapshot changes. Failures only log, since stale
// entries are keyed by content and can never be served for the new snapshot.
func (s *Server) invalidate(r *http.Request, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Invalidate(r.Context(), userID.String()); err != nil {
		s.logger.Warn("cache invalidation failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// decodeSnapshot reads a bounded body and decodes it against the snapshot schema.
func (s *Server) decodeSnapshot(w http.ResponseWriter, r *http.Request) (*types.RawSnapshot, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, &ErrValidation{Field: "body", Message: "snapshot is required"}
	}
	return snapshot.Decode(body)
}

// pathUserID parses the {id} segment and checks a store is configured.
func (s *Server) pathUserID(r *http.Request) (uuid.UUID, error) {
	if s.store == nil {
		return uuid.Nil, &ErrStoreUnavailable{}
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}
