package processor

import (
	"encoding/json"

	"github.com/fraudcore/engine/domain/features"
)

// encodeFeatureSets marshals a pair of feature sets for storage; a nil or
// empty set is stored as "{}". A recalculation job that re-extracts only
// graph features never calls this, it calls encodeFeatureSet directly.
func encodeFeatureSets(simple, graph features.Set) ([]byte, []byte, error) {
	simpleJSON, err := encodeFeatureSet(simple)
	if err != nil {
		return nil, nil, err
	}
	graphJSON, err := encodeFeatureSet(graph)
	if err != nil {
		return nil, nil, err
	}
	return simpleJSON, graphJSON, nil
}

func encodeFeatureSet(set features.Set) ([]byte, error) {
	if set == nil {
		set = features.Set{}
	}
	return json.Marshal(set)
}

func decodeFeatureSet(blob []byte, out *features.Set) error {
	if len(blob) == 0 {
		*out = features.Set{}
		return nil
	}
	return json.Unmarshal(blob, out)
}
