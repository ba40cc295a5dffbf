// Package matching implements the attribute-keyed transaction graph: upsert
// of matching fields extracted from a payload, and bounded breadth-first
// traversal over the resulting hyperedges in payload-number space.
package matching

import (
	"time"
)

// ConnectedRow is one payload discovered during traversal, newest-version
// transaction id resolved for both itself and its parent in the BFS tree.
type ConnectedRow struct {
	TransactionID       int64
	ParentTransactionID int64
	Matcher             string
	Confidence          int
	Importance          int
	Depth               int
	CreatedAt           time.Time
}

// Threshold bounds how far apart two edge-context values may be for a
// candidate to pass the filter for one matcher. A nil field means that
// dimension is not checked for this matcher.
type Threshold struct {
	TimestampAlphaDays *int
	TimestampBetaDays  *int
	LocationAlphaM     *float64
	LocationBetaM      *float64
	LocationGammaM     *float64
	LocationDeltaM     *float64
}

// FilterConfig maps matcher name to the threshold that must hold for an edge
// using that matcher to pass. A matcher absent from the map passes
// unconditionally.
type FilterConfig map[string]Threshold

// Options bounds and filters a traversal. A nil pointer field means "use the
// package default"; MaxDepth additionally accepts an explicit very large
// value (math.MaxInt32) from a caller that wants traversal bounded only by
// Limit, mirroring a caller passing max_depth=NULL upstream.
type Options struct {
	MaxDepth *int
	// Limit bounds the total number of visited payloads, root included; the
	// root never appears in the returned rows, so at most Limit-1 rows come
	// back.
	Limit         *int
	MinConfidence *int
	FilterConfig  FilterConfig
}

const (
	DefaultMaxDepth      = 10
	DefaultLimit         = 1000
	DefaultMinConfidence = 0
)

// resolved is an Options with every field materialized to a concrete value.
type resolved struct {
	MaxDepth      int
	Limit         int
	MinConfidence int
	FilterConfig  FilterConfig
}

// Resolve fills unset fields with package defaults.
func (o Options) Resolve() resolved {
	r := resolved{MaxDepth: DefaultMaxDepth, Limit: DefaultLimit, MinConfidence: DefaultMinConfidence, FilterConfig: o.FilterConfig}
	if o.MaxDepth != nil {
		r.MaxDepth = *o.MaxDepth
	}
	if o.Limit != nil {
		r.Limit = *o.Limit
	}
	if o.MinConfidence != nil {
		r.MinConfidence = *o.MinConfidence
	}
	if r.FilterConfig == nil {
		r.FilterConfig = FilterConfig{}
	}
	return r
}

// edgeValues is the subset of store.EdgeCtx the filter logic reads, with
// ambiguity about which table side a field came from removed (MatchEdge's
// columns describe a payload, not a (parent, candidate) pair).
type edgeValues struct {
	datetimeAlpha *time.Time
	datetimeBeta  *time.Time
	longAlpha     *float64
	latAlpha      *float64
	longBeta      *float64
	latBeta       *float64
	longGamma     *float64
	latGamma      *float64
	longDelta     *float64
	latDelta      *float64
}
