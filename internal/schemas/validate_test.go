package schemas

import (
	"os"
	"path/filepath"
	"testing"

	bundled "github.com/jonathan/crna-guide/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBytes_ValidSnapshot(t *testing.T) {
	doc := `{
		"user_id": "u-1",
		"as_of": "2026-03-01T00:00:00Z",
		"academic": {"overall_gpa": 3.4, "prerequisites": [{"name": "chemistry", "status": "completed", "retakes": 0}]},
		"shadowing": [{"hours": 8, "provider": "Dr. A", "setting": "OR"}],
		"last_activity": {"clinical": "2026-02-20T10:00:00Z"}
	}`

	err := ValidateBytes(bundled.Snapshot, []byte(doc))
	assert.NoError(t, err)
}

func TestValidateBytes_PartialSnapshotIsValid(t *testing.T) {
	// Missing fields are the normalizer's concern, not the schema's.
	err := ValidateBytes(bundled.Snapshot, []byte(`{}`))
	assert.NoError(t, err)
}

func TestValidateBytes_WrongType(t *testing.T) {
	doc := `{"user_id": "u-1", "academic": {"overall_gpa": "three point five"}}`

	err := ValidateBytes(bundled.Snapshot, []byte(doc))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.NotEmpty(t, validationErr.Errors)
	assert.Equal(t, "academic.overall_gpa", validationErr.Errors[0].Field)
	assert.Equal(t, bundled.Snapshot, validationErr.Schema)
}

func TestValidateBytes_BadTimestamp(t *testing.T) {
	doc := `{"user_id": "u-1", "last_activity": {"clinical": "last tuesday"}}`

	err := ValidateBytes(bundled.Snapshot, []byte(doc))
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestValidateBytes_MalformedJSON(t *testing.T) {
	err := ValidateBytes(bundled.Snapshot, []byte(`{ invalid json }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read JSON document")
}

func TestValidateBytes_UnknownSchema(t *testing.T) {
	err := ValidateBytes("nope.schema.json", []byte(`{}`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "schema not bundled")
}

func TestValidateValue_GuidanceState(t *testing.T) {
	valid := map[string]any{
		"user_id":           "u-1",
		"application_stage": "preparing",
		"support_mode":      "coach",
		"risk_signals":      []string{"stalled_activity"},
		"next_best_steps": []map[string]any{
			{"id": "obtain-acls", "rank": 1, "title": "Get ACLS", "tier": "quick_win"},
		},
		"readiness": map[string]any{
			"score":      42,
			"level":      "Developing",
			"categories": []map[string]any{{"category": "academic", "weight": 25, "score": 60}},
		},
	}
	assert.NoError(t, ValidateValue(bundled.GuidanceState, valid))

	valid["support_mode"] = "panic"
	err := ValidateValue(bundled.GuidanceState, valid)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestValidateJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_id": "u-1"}`), 0644))

	assert.NoError(t, ValidateJSON(bundled.Snapshot, path))
}

func TestValidateJSON_NonExistentJSON(t *testing.T) {
	err := ValidateJSON(bundled.Snapshot, "testdata/nonexistent_json.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: "snapshot.schema.json",
		Errors: []FieldError{
			{Field: "academic.overall_gpa", Message: "Invalid type"},
			{Field: "(root)", Message: "user_id is required"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation against snapshot.schema.json failed")
	assert.Contains(t, msg, "1. academic.overall_gpa: Invalid type")
	assert.Contains(t, msg, "2. (root): user_id is required")
}
