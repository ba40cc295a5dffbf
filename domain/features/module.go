package features

import "go.uber.org/fx"

// Module provides an empty Registry; the embedding binary registers its own
// extractors into it during application startup. The reference
// cmd/server/main.go registers none.
var Module = fx.Module("features", fx.Provide(NewRegistry))
