package matching

import "go.uber.org/fx"

// Module wires the Engine into the fx graph.
var Module = fx.Module("matching", fx.Provide(NewEngine))
