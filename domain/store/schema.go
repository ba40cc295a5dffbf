package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fraudcore/engine/pkg/apperror"
)

// featureSchema enumerates the feature names and value shapes the store will
// accept in a simple_features or graph_features blob. An extractor producing
// anything outside this shape is a bug, not a transient condition, so
// validation failures surface as KindSchemaMismatch rather than being
// retried.
var featureSchema = &jsonschema.Schema{
	Type: "object",
	AdditionalProperties: &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"type": {
				Type: "string",
				Enum: []any{
					"integer", "number", "string", "boolean", "datetime",
					"integer_array", "number_array", "string_array", "boolean_array",
				},
			},
		},
		Required: []string{"type", "value"},
	},
}

var resolvedFeatureSchema *jsonschema.Resolved

func init() {
	resolved, err := featureSchema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("store: invalid feature schema: %v", err))
	}
	resolvedFeatureSchema = resolved
}

// ValidateFeatures checks that a features blob is a JSON object mapping
// feature names to {"type": ..., "value": ...} entries before it is
// persisted. It guards against an extractor change silently writing a shape
// scoring rules don't expect.
func ValidateFeatures(blob []byte) error {
	if len(blob) == 0 {
		return nil
	}

	var instance any
	if err := json.Unmarshal(blob, &instance); err != nil {
		return apperror.New(apperror.KindSchemaMismatch, "features blob is not valid JSON").WithInternal(err)
	}

	if err := resolvedFeatureSchema.Validate(instance); err != nil {
		return apperror.New(apperror.KindSchemaMismatch, "features blob does not match the expected shape").WithInternal(err)
	}
	return nil
}
