// Package jobs provides a generic polling worker harness shared by the
// processing-queue and recalculation-queue loops (the backfill producer runs
// on domain/scheduler instead). It has no opinion on what a "job" is; the caller's
// process function does the claiming and the work.
package jobs

import "go.uber.org/fx"

// Module is a library module: it has no providers of its own. Domain
// packages construct their own Worker instances around store-specific
// claim/finish logic.
var Module = fx.Module("jobs")
