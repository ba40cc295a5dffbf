package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fraudcore/engine/domain/matching"
	"github.com/fraudcore/engine/domain/store"
)

type stubExtractor struct{}

func (stubExtractor) ExtractMatchingFields(payload []byte) ([]store.MatchingField, error) {
	return nil, nil
}
func (stubExtractor) ExtractSimpleFeatures(payload []byte) (Set, error) { return Set{}, nil }
func (stubExtractor) ExtractGraphFeatures(payload []byte, connected, direct []matching.ConnectedRow) (Set, error) {
	return Set{}, nil
}
func (stubExtractor) SchemaVersion() store.SchemaVersion { return store.SchemaVersion{Major: 1, Minor: 0} }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("order.v1")
	assert.False(t, ok)

	r.Register("order.v1", stubExtractor{})
	e, ok := r.Get("order.v1")
	assert.True(t, ok)
	assert.Equal(t, stubExtractor{}, e)
}
