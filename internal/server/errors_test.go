package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/stretchr/testify/assert"
)

func TestErrSnapshotNotFound(t *testing.T) {
	userID := uuid.New()
	err := &ErrSnapshotNotFound{UserID: userID}
	assert.Equal(t, "snapshot not found: "+userID.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.Equal(t, "not_found", errorKind(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "id", Message: "must be a UUID"}
	assert.Equal(t, "validation error: id - must be a UUID", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, "bad_request", errorKind(err))
}

func TestErrStoreUnavailable(t *testing.T) {
	err := &ErrStoreUnavailable{}
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
	assert.Equal(t, "unavailable", errorKind(err))
}

func TestHTTPStatus_SnapshotErrors(t *testing.T) {
	invalid := &snapshot.ValidationError{Field: "user_id", Message: "is required"}
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(invalid))
	assert.Equal(t, "validation", errorKind(invalid))

	wrapped := fmt.Errorf("compute: %w", invalid)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))

	load := &snapshot.LoadError{Message: "snapshot does not match schema"}
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(load))
	assert.Equal(t, "load", errorKind(load))
}

func TestHTTPStatus_Other(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(&http.MaxBytesError{Limit: 10}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, "internal", errorKind(errors.New("boom")))
}
