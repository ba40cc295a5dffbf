package store

import "time"

// EdgeCtx carries the optional per-payload attributes attached to a match
// edge: a datetime pair and four geographic points, used later for
// post-hoc temporal/spatial traversal filters. Any field left nil is
// treated as absent by the filter, not as zero.
type EdgeCtx struct {
	DatetimeAlpha *time.Time
	DatetimeBeta  *time.Time

	LongAlpha *float64
	LatAlpha  *float64
	LongBeta  *float64
	LatBeta   *float64
	LongGamma *float64
	LatGamma  *float64
	LongDelta *float64
	LatDelta  *float64
}

// MatcherConfig is the confidence/importance pair a matcher name resolves
// to on first appearance of a (matcher, value) pair.
type MatcherConfig struct {
	Confidence int
	Importance int
}

// MatcherRegistry maps matcher name to its configuration. It is supplied by
// the embedding binary and is immutable once workers start.
type MatcherRegistry map[string]MatcherConfig

// DefaultMatcherConfig is used for any matcher absent from the registry.
var DefaultMatcherConfig = MatcherConfig{Confidence: 80, Importance: 50}

// Lookup resolves a matcher's configuration, falling back to
// DefaultMatcherConfig when the matcher is unregistered.
func (r MatcherRegistry) Lookup(matcher string) MatcherConfig {
	if cfg, ok := r[matcher]; ok {
		return cfg
	}
	return DefaultMatcherConfig
}

// SchemaVersion gates feature compatibility: a major mismatch between the
// stored and current extractor invalidates a features row.
type SchemaVersion struct {
	Major int
	Minor int
}

// MatchingField is one (matcher, value, context) triple a FeatureExtractor
// derives from a payload for graph upsert.
type MatchingField struct {
	Matcher string
	Value   string
	Ctx     EdgeCtx
}
