package scoring

import "go.uber.org/fx"

// Module wires the default RuleEvaluator as the Scorer implementation.
// RuleEvaluator also satisfies processor.ChannelLister; the embedding binary
// binds that interface itself (see cmd/server/main.go) to avoid a scoring ->
// processor import cycle. Binaries that register their own Scorer should
// omit this module and provide their own fx.Provide(func() scoring.Scorer).
var Module = fx.Module("scoring",
	fx.Provide(
		NewRuleEvaluator,
		func(r *RuleEvaluator) Scorer { return r },
	),
)
