// Package metrics holds the Prometheus collectors the processing engine
// updates as it runs. Scrape them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth is the number of unclaimed rows in a job queue, sampled on
	// every /api/metrics/jobs poll.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fraudcore_queue_depth",
		Help: "Number of unclaimed rows in a job queue.",
	}, []string{"queue"})

	// JobsProcessed counts every queue poll that claimed a row, by queue and
	// outcome (succeeded or failed). Polls that find the queue empty are not
	// counted.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudcore_jobs_processed_total",
		Help: "Total number of queue jobs processed, by queue and outcome.",
	}, []string{"queue", "outcome"})

	// ScoringEvents counts every channel scoring event written by the
	// processing and recalculation pipelines.
	ScoringEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudcore_scoring_events_total",
		Help: "Total number of channel scoring events written.",
	}, []string{"channel"})
)
