package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "aimless"

	jobsSubmittedTotal = "jobs_submitted_total"
	statusPollsTotal   = "status_polls_total"
	pathsTotal         = "paths_total"
	currentPath        = "current_path"

	// Labels
	stepLabel    = "step"
	outcomeLabel = "outcome"
)

/**
* Metrics definition
**/
var jobsSubmittedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      jobsSubmittedTotal,
		Help:      "number of jobs handed to the scheduler",
	},
	[]string{stepLabel},
)

var statusPollsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      statusPollsTotal,
		Help:      "number of scheduler status queries",
	},
)

var pathsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      pathsTotal,
		Help:      "number of finished paths by outcome",
	},
	[]string{outcomeLabel},
)

var currentPathMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      currentPath,
		Help:      "path number currently being run",
	},
)

func IncreaseJobsSubmitted(step string) {
	jobsSubmittedMetric.With(prometheus.Labels{stepLabel: step}).Inc()
}

func IncreaseStatusPolls() {
	statusPollsMetric.Inc()
}

func IncreasePathsTotal(outcome string) {
	pathsMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func UpdateCurrentPath(pnum int) {
	currentPathMetric.Set(float64(pnum))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsSubmittedMetric)
	prometheus.MustRegister(statusPollsMetric)
	prometheus.MustRegister(pathsMetric)
	prometheus.MustRegister(currentPathMetric)
}
