package callmanager

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arzzra/call_manager/pkg/call"
)

// Config явная конфигурация плоскости управления. Глобального
// неявного состояния нет: все зависимости передаются сюда, жизненный
// цикл компонентов ограничен жизненным циклом CallManager.
type Config struct {
	// Core нижний уровень (радио/IMS/OTT стек); обязателен
	Core CoreService

	// Audio аудио-коллаборатор; nil выключает звуковые побочные эффекты
	Audio AudioController

	// FilterProvider источник данных входящего фильтра; nil выключает
	// фильтрацию
	FilterProvider FilterDataProvider

	// SlotCount количество телефонных слотов; по умолчанию 1
	SlotCount int

	// MetricsRegisterer реестр Prometheus; nil включает реестр по
	// умолчанию, EnableMetrics false выключает метрики целиком
	EnableMetrics     bool
	MetricsRegisterer prometheus.Registerer
}

// CallManager собранная плоскость управления: реестр, политика,
// реконсилятор, командная поверхность, настройки и рассылка событий.
type CallManager struct {
	Registry *call.Registry
	Policy   *CallPolicy
	Listener *CallStateListener
	Control  *ControlManager
	Status   *StatusManager
	Settings *SettingsManager
	Filter   *IncomingFilterManager

	worker *RequestWorker
}

// New собирает плоскость управления по конфигурации
func New(cfg Config) (*CallManager, error) {
	if cfg.Core == nil {
		return nil, call.NewDependencyError("конфигурация без нижнего уровня")
	}

	registry := call.NewRegistry()
	policy := NewCallPolicy(registry, cfg.SlotCount)
	listener := NewCallStateListener()
	worker := NewRequestWorker()
	filter := NewIncomingFilterManager(cfg.FilterProvider)
	ids := call.NewIDAllocator()

	control := NewControlManager(registry, policy, listener, worker, cfg.Core, cfg.Audio)
	status := NewStatusManager(registry, listener, policy, cfg.Audio, filter, ids, control)
	settings := NewSettingsManager(policy, worker, cfg.Core)

	m := &CallManager{
		Registry: registry,
		Policy:   policy,
		Listener: listener,
		Control:  control,
		Status:   status,
		Settings: settings,
		Filter:   filter,
		worker:   worker,
	}
	if cfg.EnableMetrics {
		listener.AddOneObserver(NewMetricsObserver(cfg.MetricsRegisterer))
	}
	return m, nil
}

// Start запускает воркер запросов
func (m *CallManager) Start() {
	m.worker.Start()
}

// Stop останавливает воркер; оставшиеся в очереди команды теряются
func (m *CallManager) Stop() {
	m.worker.Stop()
}
