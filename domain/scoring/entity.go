// Package scoring implements the Scorer capability set: mapping a channel's
// feature context to a total score and the rules that fired. It ships one
// default implementation, a struct-based predicate evaluator backed by the
// scoring_rules table; callers may register their own Scorer instead.
package scoring

import "github.com/uptrace/bun"

// Channel is a scoring configuration: which rules apply, whether it is
// currently evaluated during processing.
type Channel struct {
	bun.BaseModel `bun:"table:fraud.channels,alias:ch"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull,unique"`
	Active bool   `bun:"active,notnull"`
}

// ScoringRule is one predicate bound to a channel: if Field compared to
// Comparand via Operator is truthy, Score is accumulated and ID is recorded
// as a triggered rule.
type ScoringRule struct {
	bun.BaseModel `bun:"table:fraud.scoring_rules,alias:sr"`

	ID        int64    `bun:"id,pk,autoincrement"`
	ChannelID int64    `bun:"channel_id,notnull"`
	Field     string   `bun:"field,notnull"`
	Operator  Operator `bun:"operator,notnull"`
	Comparand []byte   `bun:"comparand,type:jsonb,notnull"`
	Score     int64    `bun:"score,notnull"`
	Active    bool     `bun:"active,notnull"`
}
