package features

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSONShape(t *testing.T) {
	v := Int(42)
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "integer", raw["type"])
	assert.Equal(t, float64(42), raw["value"])
}

func TestMerge_GraphWinsOnCollision(t *testing.T) {
	simple := Set{"amount": Float(10), "only_simple": Bool(true)}
	graph := Set{"amount": Float(99), "only_graph": Str("x")}

	merged := Merge(simple, graph)
	assert.Equal(t, Float(99), merged["amount"])
	assert.Equal(t, Bool(true), merged["only_simple"])
	assert.Equal(t, Str("x"), merged["only_graph"])
	assert.Len(t, merged, 3)
}
