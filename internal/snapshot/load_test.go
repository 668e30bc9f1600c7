package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/crna-guide/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{
		"user_id": "550e8400-e29b-41d4-a716-446655440000",
		"as_of": "2026-03-01T00:00:00Z",
		"academic": {"overall_gpa": 3.6, "science_gpa": 3.4},
		"certifications": [{"name": "BLS"}],
		"completed_actions": ["obtain-bls"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	raw, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", raw.UserID)
	require.NotNil(t, raw.AsOf)
	assert.Equal(t, 2026, raw.AsOf.Year())
	assert.Equal(t, 3.6, raw.Academic.OverallGPA)
	assert.Len(t, raw.Certifications, 1)
	assert.Equal(t, []string{"obtain-bls"}, raw.CompletedActions)
}

func TestLoadFile_NotFound(t *testing.T) {
	raw, err := LoadFile("/nonexistent/snapshot.json")
	assert.Nil(t, raw)
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestDecode_SchemaMismatch(t *testing.T) {
	raw, err := Decode([]byte(`{"user_id": "u", "engagement": {"events_attended": "lots"}}`))
	assert.Nil(t, raw)
	require.Error(t, err)

	var schemaErr *schemas.ValidationError
	assert.True(t, errors.As(err, &schemaErr), "schema failures should unwrap to the schema error")
	assert.Contains(t, err.Error(), "snapshot does not match schema")
}

func TestDecode_MissingUserIDIsNotALoadError(t *testing.T) {
	raw, err := Decode([]byte(`{"academic": {"overall_gpa": 3.1}}`))
	require.NoError(t, err)

	_, err = Normalize(raw)
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestDecode_NullSectionsAreDefaulted(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"null academic", `{"user_id": "u1", "academic": null}`},
		{"null shadowing", `{"user_id": "u1", "shadowing": null}`},
		{"null programs", `{"user_id": "u1", "programs": null}`},
		{"null gre", `{"user_id": "u1", "exams": {"gre": null}}`},
		{"null leaf values", `{"user_id": "u1", "as_of": null, "academic": {"overall_gpa": null, "prerequisites": [{"name": "chemistry", "grade": null}]}}`},
		{"null last activity", `{"user_id": "u1", "last_activity": {"clinical": null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Decode([]byte(tt.content))
			require.NoError(t, err)

			s, err := Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, "u1", s.UserID)
			assert.NotNil(t, s.Shadowing)
			assert.NotNil(t, s.Programs)
			assert.NotNil(t, s.Academic.Prerequisites)
			assert.Nil(t, s.Exams.GRE)
			assert.Empty(t, s.LastActivity)
		})
	}
}

func TestDecode_NullUserIDIsAValidationError(t *testing.T) {
	raw, err := Decode([]byte(`{"user_id": null}`))
	require.NoError(t, err)

	_, err = Normalize(raw)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "user_id", vErr.Field)

	var loadErr *LoadError
	assert.False(t, errors.As(err, &loadErr))
}

func TestDecode_NullArrayItemsRejected(t *testing.T) {
	_, err := Decode([]byte(`{"user_id": "u1", "programs": [null]}`))
	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}
