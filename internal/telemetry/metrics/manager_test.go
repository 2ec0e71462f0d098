package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	manager, registry := NewTestManagerAndRegistry()
	require.NotNil(t, manager)

	manager.CounterLogins.Inc()
	manager.CounterLogins.Inc()
	manager.CounterFailedLogins.Inc()
	manager.GaugeLifeSignal.Set(1)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	logins, ok := byName["backend_test_server_logins"]
	require.True(t, ok)
	assert.Equal(t, float64(2), logins.GetMetric()[0].GetCounter().GetValue())

	failedLogins, ok := byName["backend_test_server_logins_failed"]
	require.True(t, ok)
	assert.Equal(t, float64(1), failedLogins.GetMetric()[0].GetCounter().GetValue())

	lifeSignal, ok := byName["backend_test_server_life_signal"]
	require.True(t, ok)
	assert.Equal(t, float64(1), lifeSignal.GetMetric()[0].GetGauge().GetValue())
}
