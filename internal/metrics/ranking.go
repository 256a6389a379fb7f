package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ranking pipeline metrics.
var (
	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobrank",
			Name:      "rankings_total",
			Help:      "Total number of ranking requests",
		},
		[]string{"status"}, // "ok" / "failed"
	)

	RankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jobrank",
			Name:      "ranking_duration_seconds",
			Help:      "Ranking request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobrank",
			Name:      "documents_total",
			Help:      "Documents processed by the ranking pipeline",
		},
		[]string{"format", "status"},
	)

	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobrank",
			Name:      "worker_sessions_total",
			Help:      "Ranking sessions consumed from the queue",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// RegisterRankingMetrics registers the pipeline collectors. Safe to call more than once.
func RegisterRankingMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RankingsTotal)
		prometheus.MustRegister(RankingDuration)
		prometheus.MustRegister(DocumentsTotal)
		prometheus.MustRegister(SessionsTotal)
	})
}
