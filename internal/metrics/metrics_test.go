package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(queriesTotal.WithLabelValues(OutcomeInvalid))
	ObserveQuery(OutcomeInvalid, 0, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(queriesTotal.WithLabelValues(OutcomeInvalid)))
}

func TestObserveReload(t *testing.T) {
	ObserveReload(nil, 12, 10, time.Millisecond)
	assert.Equal(t, 12.0, testutil.ToFloat64(schoolsLoaded))
	assert.Equal(t, 10.0, testutil.ToFloat64(schoolsEstimated))

	failedBefore := testutil.ToFloat64(reloadsTotal.WithLabelValues(OutcomeError))
	ObserveReload(errors.New("read failed"), 0, 0, time.Millisecond)
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(reloadsTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(schoolsLoaded), "a failed reload keeps the gauges")
}
