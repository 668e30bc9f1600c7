package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/crna-guide/internal/snapshot"
)

// ErrSnapshotNotFound indicates no snapshot is stored for a user
type ErrSnapshotNotFound struct {
	UserID uuid.UUID
}

func (e *ErrSnapshotNotFound) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure outside the snapshot itself
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreUnavailable indicates the server runs without a snapshot store
type ErrStoreUnavailable struct{}

func (e *ErrStoreUnavailable) Error() string {
	return "snapshot store is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrSnapshotNotFound
		validation  *ErrValidation
		unavailable *ErrStoreUnavailable
		snapInvalid *snapshot.ValidationError
		snapLoad    *snapshot.LoadError
		tooLarge    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &snapInvalid), errors.As(err, &snapLoad):
		return http.StatusBadRequest
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorKind labels an error for the errors_total metric.
func errorKind(err error) string {
	var (
		snapInvalid *snapshot.ValidationError
		snapLoad    *snapshot.LoadError
	)
	switch {
	case errors.As(err, &snapInvalid):
		return "validation"
	case errors.As(err, &snapLoad):
		return "load"
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}
