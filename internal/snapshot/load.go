package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/crna-guide/internal/schemas"
	"github.com/jonathan/crna-guide/internal/types"
	bundled "github.com/jonathan/crna-guide/schemas"
)

// LoadFile loads a raw snapshot from a JSON file
func LoadFile(path string) (*types.RawSnapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			Message: fmt.Sprintf("failed to read file %s", path),
			Cause:   err,
		}
	}
	return Decode(content)
}

// Decode checks a JSON document against the snapshot schema and unmarshals it.
// Shape errors (a string where a number belongs, a malformed timestamp) are load errors;
// a missing user id is left for Normalize to report.
func Decode(content []byte) (*types.RawSnapshot, error) {
	if err := schemas.ValidateBytes(bundled.Snapshot, content); err != nil {
		return nil, &LoadError{
			Message: "snapshot does not match schema",
			Cause:   err,
		}
	}

	var raw types.RawSnapshot
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, &LoadError{
			Message: "failed to unmarshal JSON",
			Cause:   err,
		}
	}
	return &raw, nil
}
