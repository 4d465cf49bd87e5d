package callmanager_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/call_manager/pkg/call"
	"github.com/arzzra/call_manager/pkg/callmanager"
)

// gatherSum суммирует значения всех сэмплов метрики
func gatherSum(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var sum float64
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				sum += metric.GetCounter().GetValue()
			}
			if metric.GetGauge() != nil {
				sum += metric.GetGauge().GetValue()
			}
		}
		return sum
	}
	return 0
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := callmanager.NewMetricsObserver(reg)

	c := call.NewCall(call.DialParaInfo{
		CallID:   1,
		Number:   "+15551234",
		CallType: call.TypeCS,
	}, call.DirectionIn)

	obs.NewCallCreated(c)
	obs.CallStateUpdated(c, call.CallStatusUnknown, call.CallStatusIncoming)
	obs.CallStateUpdated(c, call.CallStatusIncoming, call.CallStatusDisconnected)
	obs.CallDestroyed(34)
	obs.CallEventUpdated(callmanager.CallEventInfo{EventID: callmanager.EventDialNoCarrier})

	assert.Equal(t, 1.0, gatherSum(t, reg, "telephony_call_manager_calls_created_total"))
	assert.Equal(t, 2.0, gatherSum(t, reg, "telephony_call_manager_call_state_transitions_total"))
	assert.Equal(t, 0.0, gatherSum(t, reg, "telephony_call_manager_calls_active"))
	assert.Equal(t, 1.0, gatherSum(t, reg, "telephony_call_manager_calls_destroyed_total"))
	assert.Equal(t, 1.0, gatherSum(t, reg, "telephony_call_manager_call_events_total"))
}

// TestManagerWithMetrics метрики подключаются как обычный наблюдатель
func TestManagerWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := callmanager.New(callmanager.Config{
		Core:              newFakeCore(),
		SlotCount:         1,
		EnableMetrics:     true,
		MetricsRegisterer: reg,
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Listener.ObserverCount())

	require.NoError(t, m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15551111",
		CallType: call.TypeCS,
		State:    call.CallStatusIncoming,
	}))
	assert.Equal(t, 1.0, gatherSum(t, reg, "telephony_call_manager_calls_created_total"))
	assert.Equal(t, 1.0, gatherSum(t, reg, "telephony_call_manager_calls_active"))
}
