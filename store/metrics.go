package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classdb_store_searches_total",
		Help: "Searches answered by the classification store, by outcome.",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classdb_store_search_duration_seconds",
		Help:    "Time spent answering a search, best-of included.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)

func observeSearch(start time.Time, err error) {
	searchDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	searchTotal.WithLabelValues(outcome).Inc()
}
