// Package store persists transactions, the match graph, features, scores,
// labels, and the two work queues. Every exported method here is the unit of
// atomicity the rest of the engine relies on: callers never need to wrap a
// single Store call in their own transaction.
package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Transaction is one version of a logical payload. Rows are immutable once
// written except for the handful of fields the processor is allowed to
// update in place (see MarkProcessed, MarkRecalculated, and the is_latest
// flip in InsertTransaction).
type Transaction struct {
	bun.BaseModel `bun:"table:fraud.transactions,alias:t"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	PayloadNumber      string     `bun:"payload_number,notnull"`
	TransactionVersion int        `bun:"transaction_version,notnull"`
	IsLatest           bool       `bun:"is_latest,notnull"`
	Payload            []byte     `bun:"payload,type:jsonb,notnull"`
	LabelID            *int64     `bun:"label_id"`
	Comment            *string    `bun:"comment"`
	LastScoringDate    *time.Time `bun:"last_scoring_date"`
	ProcessingComplete bool       `bun:"processing_complete,notnull"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:now()"`
}

// MatchNode is a distinct (matcher, value) tuple acting as a hyperedge over
// every payload that shares that attribute. Confidence/importance are set
// once, at creation, from the caller's matcher registry.
type MatchNode struct {
	bun.BaseModel `bun:"table:fraud.match_node,alias:mn"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Matcher    string `bun:"matcher,notnull"`
	Value      string `bun:"value,notnull"`
	Confidence int    `bun:"confidence,notnull"`
	Importance int    `bun:"importance,notnull"`
}

// MatchEdge joins a MatchNode to a payload_number, carrying the optional
// per-edge context used for temporal/spatial filtering during traversal.
// The primary key is (node_id, payload_number): context is recorded once
// per payload, not once per transaction version.
type MatchEdge struct {
	bun.BaseModel `bun:"table:fraud.match_node_transactions,alias:mnt"`

	NodeID        int64  `bun:"node_id,pk"`
	PayloadNumber string `bun:"payload_number,pk"`

	DatetimeAlpha *time.Time `bun:"datetime_alpha"`
	DatetimeBeta  *time.Time `bun:"datetime_beta"`

	LongAlpha *float64 `bun:"long_alpha"`
	LatAlpha  *float64 `bun:"lat_alpha"`
	LongBeta  *float64 `bun:"long_beta"`
	LatBeta   *float64 `bun:"lat_beta"`
	LongGamma *float64 `bun:"long_gamma"`
	LatGamma  *float64 `bun:"lat_gamma"`
	LongDelta *float64 `bun:"long_delta"`
	LatDelta  *float64 `bun:"lat_delta"`

	CreatedAt time.Time `bun:"created_at,notnull,default:now()"`
}

// Features is the row written once per (transaction_id, transaction_version)
// before any scoring event can reference it.
type Features struct {
	bun.BaseModel `bun:"table:fraud.features,alias:f"`

	TransactionID      int64  `bun:"transaction_id,pk"`
	TransactionVersion int    `bun:"transaction_version,pk"`
	SchemaVersionMajor int    `bun:"schema_version_major,notnull"`
	SchemaVersionMinor int    `bun:"schema_version_minor,notnull"`
	SimpleFeatures     []byte `bun:"simple_features,type:jsonb"`
	GraphFeatures      []byte `bun:"graph_features,type:jsonb,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:now()"`
}

// ScoringEvent is a per-channel score computed from a Features row. Events
// are append-only; the "current" score for a channel is its latest event.
type ScoringEvent struct {
	bun.BaseModel `bun:"table:fraud.scoring_events,alias:se"`

	ID            int64     `bun:"id,pk,autoincrement"`
	TransactionID int64     `bun:"transaction_id,notnull"`
	ChannelID     int64     `bun:"channel_id,notnull"`
	TotalScore    int64     `bun:"total_score,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:now()"`
}

// TriggeredRule names one rule that fired within a ScoringEvent.
type TriggeredRule struct {
	bun.BaseModel `bun:"table:fraud.triggered_rules,alias:tr"`

	ID             int64 `bun:"id,pk,autoincrement"`
	ScoringEventID int64 `bun:"scoring_events_id,notnull"`
	RuleID         int64 `bun:"rule_id,notnull"`
}

// Label is an operator-assigned outcome (e.g. "confirmed_fraud",
// "false_positive") a transaction can be tagged with via Transaction.LabelID.
type Label struct {
	bun.BaseModel `bun:"table:fraud.labels,alias:l"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()"`
}
