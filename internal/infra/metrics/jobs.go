package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobsTotal,
		jobDurationSec,
		jobsClaimed,
	)
}

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_jobs_total",
			Help: "Count of personalization jobs by terminal status.",
		},
		[]string{"status"},
	)

	jobDurationSec = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "personalization_job_duration_seconds",
			Help:    "Wall-clock duration of a personalization job from claim to terminal state.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	jobsClaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personalization_jobs_claimed",
			Help: "Count of pending jobs claimed, by claim path (submit|poll).",
		},
		[]string{"path"},
	)
)

func IncJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

func ObserveJobDuration(seconds float64) {
	jobDurationSec.Observe(seconds)
}

func IncJobClaimed(path string) {
	jobsClaimed.WithLabelValues(path).Inc()
}
