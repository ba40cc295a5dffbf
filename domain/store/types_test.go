package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherRegistry_Lookup(t *testing.T) {
	registry := MatcherRegistry{
		"customer.email": {Confidence: 100, Importance: 90},
		"ip.address":      {Confidence: 70, Importance: 60},
	}

	t.Run("known matcher", func(t *testing.T) {
		cfg := registry.Lookup("customer.email")
		assert.Equal(t, 100, cfg.Confidence)
		assert.Equal(t, 90, cfg.Importance)
	})

	t.Run("unknown matcher falls back to default", func(t *testing.T) {
		cfg := registry.Lookup("device.fingerprint")
		assert.Equal(t, DefaultMatcherConfig, cfg)
	})

	t.Run("nil registry falls back to default", func(t *testing.T) {
		var registry MatcherRegistry
		assert.Equal(t, DefaultMatcherConfig, registry.Lookup("anything"))
	})
}
