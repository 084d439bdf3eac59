package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeError, Outcome(errors.New("boom")))
}

type recorder struct{ seconds float64 }

func (r *recorder) Observe(v float64) { r.seconds = v }

func TestSinceObservesElapsedSeconds(t *testing.T) {
	r := &recorder{}
	Since(r, time.Now().Add(-2*time.Second))
	assert.InDelta(t, 2, r.seconds, 0.5)
}

func TestCollectorsAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(Trainings.WithLabelValues("knn_test", OutcomeOK))
	Trainings.WithLabelValues("knn_test", OutcomeOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Trainings.WithLabelValues("knn_test", OutcomeOK)))

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "machines_models_trainings_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
