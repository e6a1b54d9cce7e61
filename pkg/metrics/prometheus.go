package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values used with the collectors below.
const (
	OutcomeAnnotated      = "annotated"
	OutcomeNoDetection    = "no_detection"
	OutcomeMultiDetection = "multi_detection"
	OutcomeUnreadable     = "unreadable"
	PlaceholderMissing    = "missing"
	PlaceholderMalformed  = "malformed"
	SequenceStatusOK      = "ok"
	SequenceStatusEmpty   = "empty"
	SequenceStatusFailed  = "failed"
	VisibilityVisible     = "1"
	VisibilityNotVisible  = "0"
)

var (
	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ballannotate_frames_total",
		Help: "Frames processed, by camera side and outcome",
	}, []string{"side", "outcome"})

	SequencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ballannotate_sequences_total",
		Help: "Camera-side sequences processed, by status",
	}, []string{"status"})

	SequenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ballannotate_sequence_duration_seconds",
		Help:    "Wall time spent on one sequence, aggregation included",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"side"})

	TableRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ballannotate_table_rows_total",
		Help: "Rows written to annotation tables, by visibility",
	}, []string{"visibility"})

	PlaceholdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ballannotate_placeholders_total",
		Help: "Not-visible placeholder rows, by cause",
	}, []string{"cause"})

	PublishedObjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ballannotate_published_objects_total",
		Help: "Annotation files uploaded to object storage",
	})
)
