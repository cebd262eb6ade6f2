package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdb_indexer_predictions_total",
		Help: "Predictions handed to the store, by outcome.",
	}, []string{"outcome"})

	dropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdb_indexer_predictions_dropped_total",
		Help: "Predictions discarded before writing, by reason.",
	}, []string{"reason"})

	itemsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdb_indexer_items_total",
		Help: "Items run through the classification pipeline.",
	})

	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classdb_indexer_task_duration_seconds",
		Help:    "Wall time of indexing tasks.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)
