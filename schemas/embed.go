// Package schemas holds the JSON Schemas for snapshot input and guidance output.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	Snapshot      = "snapshot.schema.json"
	GuidanceState = "guidance_state.schema.json"
)
