package matching

import (
	"math"
	"time"
)

// passesFilter reports whether the edge between parentCtx and candidateCtx,
// carried by matcher, satisfies every threshold configured for that matcher.
// A matcher with no entry in config passes unconditionally. Within a
// configured matcher, a dimension passes if either side's value is absent,
// or if the two values differ by no more than the threshold.
func passesFilter(matcher string, parentCtx, candidateCtx edgeValues, config FilterConfig) bool {
	threshold, ok := config[matcher]
	if !ok {
		return true
	}

	if !passesTimestamp(threshold.TimestampAlphaDays, parentCtx.datetimeAlpha, candidateCtx.datetimeAlpha) {
		return false
	}
	if !passesTimestamp(threshold.TimestampBetaDays, parentCtx.datetimeBeta, candidateCtx.datetimeBeta) {
		return false
	}
	if !passesLocation(threshold.LocationAlphaM, parentCtx.longAlpha, parentCtx.latAlpha, candidateCtx.longAlpha, candidateCtx.latAlpha) {
		return false
	}
	if !passesLocation(threshold.LocationBetaM, parentCtx.longBeta, parentCtx.latBeta, candidateCtx.longBeta, candidateCtx.latBeta) {
		return false
	}
	if !passesLocation(threshold.LocationGammaM, parentCtx.longGamma, parentCtx.latGamma, candidateCtx.longGamma, candidateCtx.latGamma) {
		return false
	}
	if !passesLocation(threshold.LocationDeltaM, parentCtx.longDelta, parentCtx.latDelta, candidateCtx.longDelta, candidateCtx.latDelta) {
		return false
	}
	return true
}

func passesTimestamp(thresholdDays *int, a, b *time.Time) bool {
	if thresholdDays == nil || a == nil || b == nil {
		return true
	}
	diff := a.Sub(*b).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	return diff <= float64(*thresholdDays)
}

func passesLocation(thresholdM *float64, longA, latA, longB, latB *float64) bool {
	if thresholdM == nil || longA == nil || latA == nil || longB == nil || latB == nil {
		return true
	}
	return haversineMetres(*longA, *latA, *longB, *latB) <= math.Abs(*thresholdM)
}
