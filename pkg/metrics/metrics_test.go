package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(jobsSubmittedMetric.WithLabelValues("dt"))
	IncreaseJobsSubmitted("dt")
	IncreaseJobsSubmitted("dt")
	assert.Equal(t, before+2, testutil.ToFloat64(jobsSubmittedMetric.WithLabelValues("dt")))

	polls := testutil.ToFloat64(statusPollsMetric)
	IncreaseStatusPolls()
	assert.Equal(t, polls+1, testutil.ToFloat64(statusPollsMetric))

	accepted := testutil.ToFloat64(pathsMetric.WithLabelValues("accepted"))
	IncreasePathsTotal("accepted")
	assert.Equal(t, accepted+1, testutil.ToFloat64(pathsMetric.WithLabelValues("accepted")))

	UpdateCurrentPath(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(currentPathMetric))
}
