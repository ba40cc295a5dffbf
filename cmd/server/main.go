// Package main provides the entry point for the fraud detection processing
// engine.
//
// @title Fraud Engine API
// @version 0.1.0
// @description Graph-matching fraud detection processing engine: durable
// @description job pipeline, feature extraction, and scoring over
// @description transactions linked by shared identifying attributes.
// @license.name Proprietary
// @host localhost:8080
// @BasePath /
// @schemes http
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/fraudcore/engine/domain/features"
	"github.com/fraudcore/engine/domain/health"
	"github.com/fraudcore/engine/domain/matching"
	"github.com/fraudcore/engine/domain/processor"
	"github.com/fraudcore/engine/domain/scheduler"
	"github.com/fraudcore/engine/domain/scoring"
	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/internal/config"
	"github.com/fraudcore/engine/internal/database"
	"github.com/fraudcore/engine/internal/migrate"
	"github.com/fraudcore/engine/internal/server"
	"github.com/fraudcore/engine/pkg/logger"
	"github.com/fraudcore/engine/pkg/tracing"
)

func main() {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Overload("../../.env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure
		logger.Module,
		config.Module,
		tracing.Module,
		database.Module,
		migrate.Module,
		server.Module,

		// Engine components, in dependency order
		store.Module,
		matching.Module,
		features.Module,
		scoring.Module,
		processor.Module,

		// Backfill producer
		scheduler.Module,

		// Operator-facing health/metrics surface
		health.Module,

		// The embedding binary's domain payload schema: the channel lister,
		// a default discriminant, and traversal config. No extractor is
		// registered here, so every payload is recorded as an extraction
		// fault until one is registered under "default". Replace this with
		// fx.Decorate or a wholly separate fx.Provide set to plug in real
		// payload types and matcher weights; the engine itself is payload-
		// agnostic.
		fx.Provide(
			func(r *scoring.RuleEvaluator) processor.ChannelLister { return r },
			defaultProcessorConfig,
			defaultDiscriminant,
		),
	).Run()
}

// defaultProcessorConfig supplies an empty matcher registry (every matcher
// falls back to store.DefaultMatcherConfig) and the traversal bounds from
// the processor's DEFAULT_MAX_DEPTH, DEFAULT_LIMIT and
// DEFAULT_MIN_CONFIDENCE settings. Embedding binaries override this
// provider with their own confidence/importance weighting per matcher.
func defaultProcessorConfig(cfg *config.Config) processor.Config {
	pc := cfg.Processor
	return processor.Config{
		MatcherRegistry: store.MatcherRegistry{},
		TraversalOpts: matching.Options{
			MaxDepth:      &pc.DefaultMaxDepth,
			Limit:         &pc.DefaultLimit,
			MinConfidence: &pc.DefaultMinConfidence,
		},
	}
}

// defaultDiscriminant routes every payload to a single "default" extractor.
// Embedding binaries supply their own Discriminant that inspects the
// payload's type field instead.
func defaultDiscriminant(payload []byte) (string, error) {
	return "default", nil
}
