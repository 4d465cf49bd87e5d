// callctl демонстрационный сценарий плоскости управления вызовами:
// нижний уровень эмулируется и подтверждает команды асинхронными
// отчетами, как это делает настоящий радио-стек.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arzzra/call_manager/pkg/call"
	"github.com/arzzra/call_manager/pkg/callmanager"
)

func main() {
	var (
		slots   = flag.Int("slots", 1, "Количество телефонных слотов")
		metrics = flag.Bool("metrics", false, "Включить метрики Prometheus")
		debug   = flag.Bool("debug", false, "Подробный лог")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	core := newSimulatedCore()
	m, err := callmanager.New(callmanager.Config{
		Core:              core,
		SlotCount:         *slots,
		EnableMetrics:     *metrics,
		MetricsRegisterer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		slog.Error("сборка плоскости управления не удалась", slog.Any("error", err))
		os.Exit(1)
	}
	core.status = m.Status
	m.Listener.AddOneObserver(&printObserver{})
	m.Start()
	defer m.Stop()

	if err := runScenario(m, core); err != nil {
		slog.Error("сценарий не удался", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("сценарий завершен", slog.String("state", stateName(m.Control.GetCallState())))
}

// runScenario исходящий вызов, входящий во время разговора, слияние в
// конференцию и завершение
func runScenario(m *callmanager.CallManager, core *simulatedCore) error {
	slog.Info("набор исходящего вызова")
	if err := m.Control.DialCall("+15551234", callmanager.DialExtras{CallType: call.TypeCS}); err != nil {
		return err
	}
	core.waitIdle()

	slog.Info("входящий вызов во время разговора")
	if err := m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15555678",
		CallType: call.TypeCS,
		State:    call.CallStatusIncoming,
	}); err != nil {
		return err
	}
	incoming, ok := m.Registry.GetByNumber("+15555678")
	if !ok {
		return fmt.Errorf("запись входящего вызова не создана")
	}
	outgoing, ok := m.Registry.GetByNumber("+15551234")
	if !ok {
		return fmt.Errorf("запись исходящего вызова не создана")
	}
	core.track(outgoing.CallID(), outgoing.PhoneNumber(), outgoing.CallType())
	core.track(incoming.CallID(), incoming.PhoneNumber(), incoming.CallType())

	slog.Info("удержание активного и ответ на входящий")
	if err := m.Control.HoldCall(outgoing.CallID()); err != nil {
		return err
	}
	core.waitIdle()
	if err := m.Control.AnswerCall(incoming.CallID(), call.VideoStateVoice); err != nil {
		return err
	}
	core.waitIdle()

	slog.Info("слияние в конференцию")
	if err := m.Control.CombineConference(incoming.CallID()); err != nil {
		return err
	}
	core.waitIdle()

	slog.Info("участники конференции",
		slog.Any("call_ids", m.Control.GetCallIDListForConference(incoming.CallID())))

	slog.Info("завершение вызовов")
	for _, c := range []*call.Call{incoming, outgoing} {
		if err := m.Control.HangUpCall(c.CallID()); err != nil {
			return err
		}
		core.waitIdle()
	}
	return nil
}

func stateName(s call.CallStateToApp) string {
	switch s {
	case call.CallStateIdle:
		return "idle"
	case call.CallStateRinging:
		return "ringing"
	case call.CallStateOffhook:
		return "offhook"
	default:
		return "unknown"
	}
}

// printObserver печатает события вызовов
type printObserver struct{}

func (printObserver) NewCallCreated(c *call.Call) {
	slog.Info("создан вызов",
		slog.Int("call_id", c.CallID()),
		slog.String("number", c.PhoneNumber()),
		slog.String("direction", c.Direction().String()))
}

func (printObserver) CallDestroyed(cause int32) {
	slog.Info("вызов уничтожен", slog.Int("cause", int(cause)))
}

func (printObserver) CallStateUpdated(c *call.Call, prior, next call.TelCallState) {
	slog.Info("смена состояния",
		slog.Int("call_id", c.CallID()),
		slog.String("prior", prior.String()),
		slog.String("next", next.String()))
}

func (printObserver) IncomingCallActivated(c *call.Call) {
	slog.Info("входящий принят", slog.Int("call_id", c.CallID()))
}

func (printObserver) IncomingCallHungUp(c *call.Call, sendSms bool, content string) {
	slog.Info("входящий отклонен", slog.Int("call_id", c.CallID()))
}

func (printObserver) CallEventUpdated(info callmanager.CallEventInfo) {
	slog.Info("событие вызова", slog.String("event", info.EventID.String()))
}
