package snapshot

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotJSONSchema describes the on-disk shape of snapshot.json.
// Embedding it as a string constant, rather than a checked-out
// schema-json/*.json file, keeps Store self-contained: it has no file
// to go missing out from under a project directory that didn't ask
// for one.
const snapshotJSONSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "schema"],
  "properties": {
    "version": { "type": "string" },
    "source_hash": { "type": "string" },
    "schema": {
      "type": "object",
      "required": ["tables"],
      "properties": {
        "tables": { "type": "array" },
        "enums": { "type": "array" },
        "domains": { "type": "array" },
        "composite_types": { "type": "array" },
        "sequences": { "type": "array" },
        "views": { "type": "array" },
        "functions": { "type": "array" },
        "triggers": { "type": "array" },
        "extensions": { "type": "array" },
        "search_path": { "type": "array" }
      }
    }
  }
}`

// ValidateSnapshotJSON checks raw JSON bytes against the snapshot
// shape before Store.Load trusts them enough to unmarshal into a
// Snapshot and hand its schema to the differ.
func ValidateSnapshotJSON(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(snapshotJSONSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate snapshot json: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("snapshot does not match expected shape: %s", strings.Join(msgs, "; "))
	}
	return nil
}
