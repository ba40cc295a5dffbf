package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func days(t int) *int { return &t }
func metres(m float64) *float64 { return &m }
func at(y, m, d int) *time.Time {
	ts := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &ts
}
func coord(v float64) *float64 { return &v }

func TestPassesFilter_NoConfigPassesUnconditionally(t *testing.T) {
	ok := passesFilter("customer.email", edgeValues{}, edgeValues{}, FilterConfig{})
	assert.True(t, ok)
}

func TestPassesFilter_Temporal(t *testing.T) {
	config := FilterConfig{"customer.email": {TimestampAlphaDays: days(1)}}

	t.Run("within threshold passes", func(t *testing.T) {
		parent := edgeValues{datetimeAlpha: at(2024, 1, 1)}
		candidate := edgeValues{datetimeAlpha: at(2024, 1, 2)}
		assert.True(t, passesFilter("customer.email", parent, candidate, config))
	})

	t.Run("beyond threshold fails", func(t *testing.T) {
		parent := edgeValues{datetimeAlpha: at(2024, 1, 1)}
		candidate := edgeValues{datetimeAlpha: at(2024, 2, 15)}
		assert.False(t, passesFilter("customer.email", parent, candidate, config))
	})

	t.Run("either side null passes", func(t *testing.T) {
		parent := edgeValues{}
		candidate := edgeValues{datetimeAlpha: at(2024, 2, 15)}
		assert.True(t, passesFilter("customer.email", parent, candidate, config))
	})
}

func TestPassesFilter_Spatial(t *testing.T) {
	config := FilterConfig{"customer.email": {LocationAlphaM: metres(200)}}
	nycLong, nycLat := -73.9857, 40.7484
	laLong, laLat := -118.2437, 34.0522

	t.Run("nearby point passes", func(t *testing.T) {
		parent := edgeValues{longAlpha: coord(nycLong), latAlpha: coord(nycLat)}
		candidate := edgeValues{longAlpha: coord(nycLong), latAlpha: coord(40.74867)}
		assert.True(t, passesFilter("customer.email", parent, candidate, config))
	})

	t.Run("far point fails", func(t *testing.T) {
		parent := edgeValues{longAlpha: coord(nycLong), latAlpha: coord(nycLat)}
		candidate := edgeValues{longAlpha: coord(laLong), latAlpha: coord(laLat)}
		assert.False(t, passesFilter("customer.email", parent, candidate, config))
	})
}

func TestBetterCandidate_TieBreaks(t *testing.T) {
	high := adjacencyRow{Confidence: 90, Importance: 10, Matcher: "z"}
	low := adjacencyRow{Confidence: 50, Importance: 99, Matcher: "a"}
	assert.True(t, betterCandidate(high, low))
	assert.False(t, betterCandidate(low, high))

	sameConfidence := adjacencyRow{Confidence: 90, Importance: 50, Matcher: "a"}
	higherImportance := adjacencyRow{Confidence: 90, Importance: 60, Matcher: "z"}
	assert.True(t, betterCandidate(higherImportance, sameConfidence))

	tieOnBoth := adjacencyRow{Confidence: 90, Importance: 50, Matcher: "a"}
	alsoTied := adjacencyRow{Confidence: 90, Importance: 50, Matcher: "b"}
	assert.True(t, betterCandidate(tieOnBoth, alsoTied))
	assert.False(t, betterCandidate(alsoTied, tieOnBoth))
}

func TestOptions_Resolve_Defaults(t *testing.T) {
	r := Options{}.Resolve()
	assert.Equal(t, DefaultMaxDepth, r.MaxDepth)
	assert.Equal(t, DefaultLimit, r.Limit)
	assert.Equal(t, DefaultMinConfidence, r.MinConfidence)
	assert.NotNil(t, r.FilterConfig)
}

func TestOptions_Resolve_UnboundedMaxDepth(t *testing.T) {
	big := 1 << 30
	r := Options{MaxDepth: &big}.Resolve()
	assert.Equal(t, big, r.MaxDepth)
}
