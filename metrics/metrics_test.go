package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProvider_ObserveCycle(t *testing.T) {
	p := New(prometheus.NewRegistry())
	p.ObserveCycle(CycleSuccess, time.Second)
	p.ObserveCycle(CycleAborted, time.Second)
	p.ObserveCycle(CycleAborted, time.Second)
	p.ObserveCycle(CycleSkipped, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(p.cycles.WithLabelValues(CycleSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(p.cycles.WithLabelValues(CycleAborted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.cycles.WithLabelValues(CycleSkipped)))
	assert.Greater(t, testutil.ToFloat64(p.lastSuccess), float64(0))
}

func TestProvider_ObserveSource(t *testing.T) {
	p := New(prometheus.NewRegistry())
	p.ObserveSource("graphql", time.Millisecond, nil)
	p.ObserveSource("graphql", time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(p.sourceCalls.WithLabelValues("graphql", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.sourceCalls.WithLabelValues("graphql", "error")))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.NotPanics(t, func() {
		p.ObserveCycle(CycleSuccess, time.Second)
		p.ObserveSource("constant", time.Second, nil)
		p.ObserveRequest("/api/all", 200)
	})
}
