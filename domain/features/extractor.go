package features

import (
	"github.com/fraudcore/engine/domain/matching"
	"github.com/fraudcore/engine/domain/store"
)

// Extractor derives matching fields and feature sets from one payload.
// Implementations are caller-supplied: the core ships no domain extractor,
// only this interface and the registry below.
//
// ExtractSimpleFeatures must be deterministic and side-effect-free.
// ExtractGraphFeatures must tolerate empty neighborhoods (a transaction
// with no connections still needs a valid, if sparse, graph feature set).
type Extractor interface {
	ExtractMatchingFields(payload []byte) ([]store.MatchingField, error)
	ExtractSimpleFeatures(payload []byte) (Set, error)
	ExtractGraphFeatures(payload []byte, connected, direct []matching.ConnectedRow) (Set, error)
	SchemaVersion() store.SchemaVersion
}

// Registry maps a payload discriminant (e.g. a "payload_type" field, or a
// single fixed key if the embedder only ever handles one payload shape) to
// the Extractor responsible for it. Registration happens once at process
// startup; the registry is read-only once workers start.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register binds discriminant to extractor. Calling Register twice for the
// same discriminant replaces the previous binding; this is only safe before
// workers start.
func (r *Registry) Register(discriminant string, extractor Extractor) {
	r.extractors[discriminant] = extractor
}

// Get returns the extractor bound to discriminant, and whether one exists.
func (r *Registry) Get(discriminant string) (Extractor, bool) {
	e, ok := r.extractors[discriminant]
	return e, ok
}
