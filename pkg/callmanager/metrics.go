package callmanager

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arzzra/call_manager/pkg/call"
)

// MetricsObserver наблюдатель, экспортирующий метрики вызовов в
// Prometheus. Регистрируется в рассылке наравне с внешними
// коллабораторами.
type MetricsObserver struct {
	callsCreated     *prometheus.CounterVec
	callsDestroyed   *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	callsActive      prometheus.Gauge
	callEvents       *prometheus.CounterVec
}

// NewMetricsObserver создает наблюдателя метрик. registerer nil
// означает реестр Prometheus по умолчанию.
func NewMetricsObserver(registerer prometheus.Registerer) *MetricsObserver {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &MetricsObserver{
		callsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telephony",
			Subsystem: "call_manager",
			Name:      "calls_created_total",
			Help:      "Количество созданных записей вызовов",
		}, []string{"call_type", "direction"}),
		callsDestroyed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telephony",
			Subsystem: "call_manager",
			Name:      "calls_destroyed_total",
			Help:      "Количество уничтоженных вызовов по коду причины",
		}, []string{"cause"}),
		stateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telephony",
			Subsystem: "call_manager",
			Name:      "call_state_transitions_total",
			Help:      "Переходы состояний вызовов",
		}, []string{"prior", "next"}),
		callsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "telephony",
			Subsystem: "call_manager",
			Name:      "calls_active",
			Help:      "Текущее количество живых записей вызовов",
		}),
		callEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telephony",
			Subsystem: "call_manager",
			Name:      "call_events_total",
			Help:      "Прикладные события вызовов",
		}, []string{"event"}),
	}
}

// NewCallCreated учитывает создание записи
func (m *MetricsObserver) NewCallCreated(c *call.Call) {
	m.callsCreated.WithLabelValues(c.CallType().String(), c.Direction().String()).Inc()
	m.callsActive.Inc()
}

// CallDestroyed учитывает уничтожение вызова
func (m *MetricsObserver) CallDestroyed(cause int32) {
	m.callsDestroyed.WithLabelValues(strconv.Itoa(int(cause))).Inc()
}

// CallStateUpdated учитывает переход состояния
func (m *MetricsObserver) CallStateUpdated(c *call.Call, prior, next call.TelCallState) {
	m.stateTransitions.WithLabelValues(prior.String(), next.String()).Inc()
	if next == call.CallStatusDisconnected {
		m.callsActive.Dec()
	}
}

// IncomingCallActivated учитывает ответ на входящий
func (m *MetricsObserver) IncomingCallActivated(c *call.Call) {
	m.callEvents.WithLabelValues("incoming_activated").Inc()
}

// IncomingCallHungUp учитывает отклонение входящего
func (m *MetricsObserver) IncomingCallHungUp(c *call.Call, sendSms bool, content string) {
	m.callEvents.WithLabelValues("incoming_hung_up").Inc()
}

// CallEventUpdated учитывает прикладное событие
func (m *MetricsObserver) CallEventUpdated(info CallEventInfo) {
	m.callEvents.WithLabelValues(info.EventID.String()).Inc()
}
