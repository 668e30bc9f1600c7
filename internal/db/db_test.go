package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserID(t *testing.T) {
	id := uuid.New()

	got, err := ParseUserID("  " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUserID("user-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid UUID")
}

func TestDecodeDocument_RowKeyWins(t *testing.T) {
	id := uuid.New()
	doc := []byte(`{"user_id": "someone-else", "academic": {"overall_gpa": 3.4}}`)

	raw, err := decodeDocument(id, doc)
	require.NoError(t, err)
	assert.Equal(t, id.String(), raw.UserID)
	require.NotNil(t, raw.Academic)
	assert.Equal(t, 3.4, raw.Academic.OverallGPA)
}

func TestDecodeDocument_Malformed(t *testing.T) {
	_, err := decodeDocument(uuid.New(), []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal snapshot")
}

func TestSchemaSQLEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS applicant_snapshots")
	assert.Contains(t, schemaSQL, "JSONB")
}
