package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMetres(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		d := haversineMetres(-73.9857, 40.7484, -73.9857, 40.7484)
		assert.InDelta(t, 0, d, 0.01)
	})

	t.Run("nyc to roughly 30m away is small", func(t *testing.T) {
		// ~0.00027 degrees latitude is close to 30 metres.
		d := haversineMetres(-73.9857, 40.7484, -73.9857, 40.74867)
		assert.Less(t, d, 50.0)
	})

	t.Run("nyc to los angeles is large", func(t *testing.T) {
		d := haversineMetres(-73.9857, 40.7484, -118.2437, 34.0522)
		assert.Greater(t, d, 3_000_000.0)
	})
}
