package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("rUser", OutcomeOK, 5*time.Millisecond)
	m.ObserveOperation("rUser", OutcomeOK, 5*time.Millisecond)
	m.ObserveOperation("rUser", OutcomeAbsent, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("rUser", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("rUser", OutcomeAbsent)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationTime))
}

func TestObserveOperationNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("cUser", OutcomeError, time.Second)
	})
}
