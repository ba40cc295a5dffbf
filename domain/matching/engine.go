package matching

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/pkg/apperror"
	"github.com/fraudcore/engine/pkg/logger"
	"github.com/fraudcore/engine/pkg/tracing"
)

// Engine upserts matching fields for a transaction and traverses the
// resulting graph of shared attributes.
type Engine struct {
	db  bun.IDB
	log *slog.Logger
}

// NewEngine constructs an Engine bound to a database handle.
func NewEngine(db bun.IDB, log *slog.Logger) *Engine {
	return &Engine{db: db, log: log.With(logger.Scope("matching"))}
}

// WithTx returns an Engine bound to an open transaction, for callers
// composing a traversal into a larger unit of work.
func (e *Engine) WithTx(tx bun.IDB) *Engine {
	return &Engine{db: tx, log: e.log}
}

// UpsertMatchingFields records the matcher/value/context triples an
// extractor derived from a payload, creating match nodes on first
// appearance and linking the payload to each. No graph recomputation
// happens here; the graph is implicit in the edge table.
func (e *Engine) UpsertMatchingFields(ctx context.Context, s *store.Store, registry store.MatcherRegistry, payloadNumber string, fields []store.MatchingField) error {
	for _, f := range fields {
		nodeID, err := s.UpsertMatchNode(ctx, registry, f.Matcher, f.Value)
		if err != nil {
			return err
		}
		if err := s.UpsertMatchEdge(ctx, nodeID, payloadNumber, f.Ctx); err != nil {
			return err
		}
	}
	return nil
}

// adjacencyRow is one raw joined row: an edge N connecting parent payload P
// (already in the current frontier) to candidate payload Q.
type adjacencyRow struct {
	CandidatePayloadNumber string    `bun:"candidate_payload_number"`
	CandidateTransactionID int64     `bun:"candidate_transaction_id"`
	ParentPayloadNumber    string    `bun:"parent_payload_number"`
	ParentTransactionID    int64     `bun:"parent_transaction_id"`
	Matcher                string    `bun:"matcher"`
	Confidence             int       `bun:"confidence"`
	Importance             int       `bun:"importance"`

	PDatetimeAlpha *time.Time `bun:"p_datetime_alpha"`
	PDatetimeBeta  *time.Time `bun:"p_datetime_beta"`
	PLongAlpha     *float64   `bun:"p_long_alpha"`
	PLatAlpha      *float64   `bun:"p_lat_alpha"`
	PLongBeta      *float64   `bun:"p_long_beta"`
	PLatBeta       *float64   `bun:"p_lat_beta"`
	PLongGamma     *float64   `bun:"p_long_gamma"`
	PLatGamma      *float64   `bun:"p_lat_gamma"`
	PLongDelta     *float64   `bun:"p_long_delta"`
	PLatDelta      *float64   `bun:"p_lat_delta"`

	QDatetimeAlpha *time.Time `bun:"q_datetime_alpha"`
	QDatetimeBeta  *time.Time `bun:"q_datetime_beta"`
	QLongAlpha     *float64   `bun:"q_long_alpha"`
	QLatAlpha      *float64   `bun:"q_lat_alpha"`
	QLongBeta      *float64   `bun:"q_long_beta"`
	QLatBeta       *float64   `bun:"q_lat_beta"`
	QLongGamma     *float64   `bun:"q_long_gamma"`
	QLatGamma      *float64   `bun:"q_lat_gamma"`
	QLongDelta     *float64   `bun:"q_long_delta"`
	QLatDelta      *float64   `bun:"q_lat_delta"`
}

const adjacencyQuery = `
SELECT
  mnt_q.payload_number AS candidate_payload_number,
  tq.id                AS candidate_transaction_id,
  mnt_p.payload_number AS parent_payload_number,
  tp.id                AS parent_transaction_id,
  mn.matcher           AS matcher,
  mn.confidence        AS confidence,
  mn.importance        AS importance,
  mnt_p.datetime_alpha AS p_datetime_alpha, mnt_p.datetime_beta AS p_datetime_beta,
  mnt_p.long_alpha AS p_long_alpha, mnt_p.lat_alpha AS p_lat_alpha,
  mnt_p.long_beta AS p_long_beta, mnt_p.lat_beta AS p_lat_beta,
  mnt_p.long_gamma AS p_long_gamma, mnt_p.lat_gamma AS p_lat_gamma,
  mnt_p.long_delta AS p_long_delta, mnt_p.lat_delta AS p_lat_delta,
  mnt_q.datetime_alpha AS q_datetime_alpha, mnt_q.datetime_beta AS q_datetime_beta,
  mnt_q.long_alpha AS q_long_alpha, mnt_q.lat_alpha AS q_lat_alpha,
  mnt_q.long_beta AS q_long_beta, mnt_q.lat_beta AS q_lat_beta,
  mnt_q.long_gamma AS q_long_gamma, mnt_q.lat_gamma AS q_lat_gamma,
  mnt_q.long_delta AS q_long_delta, mnt_q.lat_delta AS q_lat_delta
FROM fraud.match_node_transactions mnt_p
JOIN fraud.match_node mn ON mn.id = mnt_p.node_id
JOIN fraud.match_node_transactions mnt_q ON mnt_q.node_id = mn.id AND mnt_q.payload_number != mnt_p.payload_number
JOIN fraud.transactions tp ON tp.payload_number = mnt_p.payload_number AND tp.is_latest = true
JOIN fraud.transactions tq ON tq.payload_number = mnt_q.payload_number AND tq.is_latest = true
WHERE mnt_p.payload_number IN (?)
  AND mn.confidence >= ?
  AND mnt_q.payload_number != ?
  AND mnt_q.payload_number NOT IN (?)
`

// fetchAdjacency returns every raw (parent, candidate) edge for the current
// frontier in one query, applying only the confidence and self-exclusion
// filters; the temporal/spatial filter_config check happens in process.
func (e *Engine) fetchAdjacency(ctx context.Context, frontier []string, rootPayloadNumber string, visited map[string]bool, minConfidence int) ([]adjacencyRow, error) {
	excluded := make([]string, 0, len(visited)+1)
	for p := range visited {
		excluded = append(excluded, p)
	}
	// NOT IN (?) with an empty slice matches everything in bun; guard with a
	// sentinel value that can never collide with a real payload_number.
	if len(excluded) == 0 {
		excluded = []string{"\x00"}
	}

	var rows []adjacencyRow
	err := e.db.NewRaw(adjacencyQuery, bun.In(frontier), minConfidence, rootPayloadNumber, bun.In(excluded)).Scan(ctx, &rows)
	if err != nil && err != sql.ErrNoRows {
		return nil, apperror.Transient(err)
	}
	return rows, nil
}

// FindConnected performs bounded BFS from root, returning newly discovered
// payloads ordered confidence DESC, importance DESC, depth ASC,
// transaction_id ASC. The root itself is never included.
func (e *Engine) FindConnected(ctx context.Context, rootPayloadNumber string, opts Options) ([]ConnectedRow, error) {
	ctx, span := tracing.Start(ctx, "matching.find_connected",
		attribute.String("fraudcore.payload_number", rootPayloadNumber),
	)
	defer span.End()

	r := opts.Resolve()

	visited := map[string]bool{rootPayloadNumber: true}
	frontier := []string{rootPayloadNumber}
	var result []ConnectedRow

	for depth := 1; depth <= r.MaxDepth; depth++ {
		if len(visited) >= r.Limit {
			break
		}
		if len(frontier) == 0 {
			break
		}

		rows, err := e.fetchAdjacency(ctx, frontier, rootPayloadNumber, visited, r.MinConfidence)
		if err != nil {
			return nil, err
		}

		best := make(map[string]adjacencyRow)
		for _, row := range rows {
			if visited[row.CandidatePayloadNumber] {
				continue
			}
			parentCtx := edgeValuesFromRow(row, true)
			candidateCtx := edgeValuesFromRow(row, false)
			if !passesFilter(row.Matcher, parentCtx, candidateCtx, r.FilterConfig) {
				continue
			}

			current, ok := best[row.CandidatePayloadNumber]
			if !ok || betterCandidate(row, current) {
				best[row.CandidatePayloadNumber] = row
			}
		}

		if len(best) == 0 {
			break
		}

		// Sorted into traversal order before the truncating emit loop below,
		// so which candidates survive a mid-layer limit cutoff is determined
		// by (confidence, importance, matcher, payload) rather than Go's
		// randomized map iteration order.
		ordered := make([]adjacencyRow, 0, len(best))
		for _, row := range best {
			ordered = append(ordered, row)
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if a.Confidence != b.Confidence {
				return a.Confidence > b.Confidence
			}
			if a.Importance != b.Importance {
				return a.Importance > b.Importance
			}
			if a.Matcher != b.Matcher {
				return a.Matcher < b.Matcher
			}
			return a.CandidatePayloadNumber < b.CandidatePayloadNumber
		})

		nextFrontier := make([]string, 0, len(ordered))
		now := time.Now().UTC()
		for _, row := range ordered {
			if len(visited) >= r.Limit {
				break
			}
			visited[row.CandidatePayloadNumber] = true
			nextFrontier = append(nextFrontier, row.CandidatePayloadNumber)
			result = append(result, ConnectedRow{
				TransactionID:       row.CandidateTransactionID,
				ParentTransactionID: row.ParentTransactionID,
				Matcher:             row.Matcher,
				Confidence:          row.Confidence,
				Importance:          row.Importance,
				Depth:               depth,
				CreatedAt:           now,
			})
		}
		frontier = nextFrontier
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.TransactionID < b.TransactionID
	})

	// Limit bounds total visited payloads including root, so the cap on
	// emitted (non-root) rows is one less.
	if maxRows := r.Limit - 1; maxRows >= 0 && len(result) > maxRows {
		result = result[:maxRows]
	}
	return result, nil
}

// FindDirect returns only depth-1 rows, used where feature extraction does
// not need the full neighborhood.
func (e *Engine) FindDirect(ctx context.Context, rootPayloadNumber string, opts Options) ([]ConnectedRow, error) {
	directOpts := opts
	one := 1
	directOpts.MaxDepth = &one
	return e.FindConnected(ctx, rootPayloadNumber, directOpts)
}

// betterCandidate reports whether candidate should replace current as the
// surviving edge for a duplicate (parent-agnostic) Q: higher confidence
// wins, then higher importance, then matcher name ascending.
func betterCandidate(candidate, current adjacencyRow) bool {
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	if candidate.Importance != current.Importance {
		return candidate.Importance > current.Importance
	}
	return candidate.Matcher < current.Matcher
}

func edgeValuesFromRow(row adjacencyRow, parent bool) edgeValues {
	if parent {
		return edgeValues{
			datetimeAlpha: row.PDatetimeAlpha,
			datetimeBeta:  row.PDatetimeBeta,
			longAlpha:     row.PLongAlpha,
			latAlpha:      row.PLatAlpha,
			longBeta:      row.PLongBeta,
			latBeta:       row.PLatBeta,
			longGamma:     row.PLongGamma,
			latGamma:      row.PLatGamma,
			longDelta:     row.PLongDelta,
			latDelta:      row.PLatDelta,
		}
	}
	return edgeValues{
		datetimeAlpha: row.QDatetimeAlpha,
		datetimeBeta:  row.QDatetimeBeta,
		longAlpha:     row.QLongAlpha,
		latAlpha:      row.QLatAlpha,
		longBeta:      row.QLongBeta,
		latBeta:       row.QLatBeta,
		longGamma:     row.QLongGamma,
		latGamma:      row.QLatGamma,
		longDelta:     row.QLongDelta,
		latDelta:      row.QLatDelta,
	}
}
