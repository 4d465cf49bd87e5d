package callmanager_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/call_manager/pkg/call"
	"github.com/arzzra/call_manager/pkg/callmanager"
)

func incomingReport(number string, callType call.CallType) call.DetailInfo {
	return call.DetailInfo{
		PhoneNum: number,
		CallType: callType,
		State:    call.CallStatusIncoming,
	}
}

// TestDialReportCreatesOutgoingCall подтверждение набора создает
// исходящую запись и ведет ее в активное состояние
func TestDialReportCreatesOutgoingCall(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Control.DialCall("+15551234", callmanager.DialExtras{
		AccountID: 0,
		CallType:  call.TypeCS,
	}))

	require.NoError(t, m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15551234",
		CallType: call.TypeCS,
		State:    call.CallStatusDialing,
	}))

	c, ok := m.Registry.GetByNumber("+15551234")
	require.True(t, ok)
	assert.Equal(t, call.DirectionOut, c.Direction())
	assert.Equal(t, call.CallStatusDialing, c.TelCallState())

	// Подтверждение освободило слот набора
	_, pending := m.Control.PendingDial()
	assert.False(t, pending)

	require.NoError(t, m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15551234",
		CallType: call.TypeCS,
		State:    call.CallStatusActive,
	}))
	assert.Equal(t, call.CallStatusActive, c.TelCallState())
	assert.Equal(t, call.CallRunningStateActive, c.RunningState())

	events := obs.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "created:+15551234", events[0])
	assert.Contains(t, events, "updated:dialing->active")
}

// TestDialingReportWithoutCommand отчет Dialing без команды набора
// отклоняется политикой
func TestDialingReportWithoutCommand(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)

	err := m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15551234",
		CallType: call.TypeCS,
		State:    call.CallStatusDialing,
	})
	require.Error(t, err)
	assert.True(t, call.IsCategory(err, call.ErrorCategoryPolicy))
	assert.False(t, m.Registry.HasCall())
}

// TestBatchReportTwoIncoming два новых входящих в одном пакете создают
// две записи в порядке отчета
func TestBatchReportTwoIncoming(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)
	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Status.HandleCallsReportInfo(0, []call.DetailInfo{
		incomingReport("+15551111", call.TypeCS),
		incomingReport("+15552222", call.TypeIMS),
	}))

	assert.Equal(t, 2, m.Registry.Count())
	events := obs.Events()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "created:+15551111", events[0])
	assert.Contains(t, events, "created:+15552222")
}

// TestBatchReportVanishedCall номер, пропавший из нового снимка,
// реконсилируется синтезированным Disconnected
func TestBatchReportVanishedCall(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)
	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Status.HandleCallsReportInfo(0, []call.DetailInfo{
		incomingReport("+15551111", call.TypeCS),
		incomingReport("+15559999", call.TypeCS),
	}))
	require.Equal(t, 2, m.Registry.Count())

	// Второй снимок без +15559999
	require.NoError(t, m.Status.HandleCallsReportInfo(0, []call.DetailInfo{
		incomingReport("+15551111", call.TypeCS),
	}))

	assert.Equal(t, 1, m.Registry.Count())
	_, ok := m.Registry.GetByNumber("+15559999")
	assert.False(t, ok)
	assert.Contains(t, obs.Events(), "updated:incoming->disconnected")
}

// TestBatchReportStateChange изменившееся состояние известного номера
// уходит в одиночный обработчик
func TestBatchReportStateChange(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)

	require.NoError(t, m.Status.HandleCallsReportInfo(0, []call.DetailInfo{
		incomingReport("+15551111", call.TypeCS),
	}))
	c, ok := m.Registry.GetByNumber("+15551111")
	require.True(t, ok)
	require.Equal(t, call.CallStatusIncoming, c.TelCallState())

	active := incomingReport("+15551111", call.TypeCS)
	active.State = call.CallStatusActive
	require.NoError(t, m.Status.HandleCallsReportInfo(0, []call.DetailInfo{active}))
	assert.Equal(t, call.CallStatusActive, c.TelCallState())
}

// TestDisconnectedRemovesRecord после disconnected запись недоступна
func TestDisconnectedRemovesRecord(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)

	require.NoError(t, m.Status.HandleCallReportInfo(incomingReport("+15551111", call.TypeCS)))
	c, ok := m.Registry.GetByNumber("+15551111")
	require.True(t, ok)
	callID := c.CallID()

	gone := incomingReport("+15551111", call.TypeCS)
	gone.State = call.CallStatusDisconnected
	require.NoError(t, m.Status.HandleCallReportInfo(gone))

	_, ok = m.Control.GetOneCallObject(callID)
	assert.False(t, ok)
}

// TestReportForUnknownNumber отчет о неизвестном номере дает
// восстановимую ошибку not-found, без паники
func TestReportForUnknownNumber(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)

	report := incomingReport("+15550000", call.TypeCS)
	report.State = call.CallStatusActive
	err := m.Status.HandleCallReportInfo(report)
	require.Error(t, err)
	assert.True(t, call.IsCategory(err, call.ErrorCategoryNotFound))
}

// TestWaitingHandledAsIncoming Waiting создает запись как входящий
func TestWaitingHandledAsIncoming(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)

	report := incomingReport("+15551111", call.TypeCS)
	report.State = call.CallStatusWaiting
	require.NoError(t, m.Status.HandleCallReportInfo(report))

	c, ok := m.Registry.GetByNumber("+15551111")
	require.True(t, ok)
	assert.Equal(t, call.CallStatusWaiting, c.TelCallState())
	assert.Equal(t, call.CallRunningStateRinging, c.RunningState())
}

// TestDisconnectedCauseNotifies причина разъединения рассылается без
// привязки к записи
func TestDisconnectedCauseNotifies(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)
	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Status.HandleDisconnectedCause(34))
	assert.Equal(t, []string{"destroyed"}, obs.Events())
}

// TestEventResultTranslation известное событие транслируется, неизвестное
// отбрасывается без ошибки
func TestEventResultTranslation(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	// Набор, чтобы слот хранил номер
	require.NoError(t, m.Control.DialCall("+15551234", callmanager.DialExtras{CallType: call.TypeCS}))

	require.NoError(t, m.Status.HandleEventResultReportInfo(callmanager.CellularCallEventInfo{
		EventType: callmanager.EventRequestResultType,
		EventID:   callmanager.ResultDialNoCarrier,
	}))
	assert.Contains(t, obs.Events(), "event:dial_no_carrier")

	// Неизвестный id: лог и отбрасывание
	before := len(obs.Events())
	require.NoError(t, m.Status.HandleEventResultReportInfo(callmanager.CellularCallEventInfo{
		EventType: callmanager.EventRequestResultType,
		EventID:   callmanager.RequestResultEventID(99),
	}))
	assert.Len(t, obs.Events(), before)

	// Неожиданный тип события: ошибка валидации
	err := m.Status.HandleEventResultReportInfo(callmanager.CellularCallEventInfo{
		EventType: callmanager.CellularCallEventType(7),
		EventID:   callmanager.ResultDialNoCarrier,
	})
	require.Error(t, err)
	assert.True(t, call.HasCode(err, call.CodeTypeUnexpected))
}

// eventInfoObserver фиксирует полные события вызовов
type eventInfoObserver struct {
	recordingObserver

	infoMu sync.Mutex
	infos  []callmanager.CallEventInfo
}

func (o *eventInfoObserver) CallEventUpdated(info callmanager.CallEventInfo) {
	o.infoMu.Lock()
	defer o.infoMu.Unlock()
	o.infos = append(o.infos, info)
}

func (o *eventInfoObserver) Infos() []callmanager.CallEventInfo {
	o.infoMu.Lock()
	defer o.infoMu.Unlock()
	out := make([]callmanager.CallEventInfo, len(o.infos))
	copy(out, o.infos)
	return out
}

// TestNoCarrierReleasesDialSlot событие "нет несущей" освобождает слот
// набора, следующий набор допустим
func TestNoCarrierReleasesDialSlot(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	require.NoError(t, m.Control.DialCall("+15551111", callmanager.DialExtras{CallType: call.TypeCS}))

	require.NoError(t, m.Status.HandleEventResultReportInfo(callmanager.CellularCallEventInfo{
		EventType: callmanager.EventRequestResultType,
		EventID:   callmanager.ResultDialNoCarrier,
	}))

	_, pending := m.Control.PendingDial()
	assert.False(t, pending)
	require.NoError(t, m.Control.DialCall("+15552222", callmanager.DialExtras{CallType: call.TypeCS}))
}

// TestNoCarrierEventAfterConfirm номер уходит в событие и после
// подтверждения набора
func TestNoCarrierEventAfterConfirm(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	obs := &eventInfoObserver{}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Control.DialCall("+15551234", callmanager.DialExtras{CallType: call.TypeCS}))
	require.NoError(t, m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "+15551234",
		CallType: call.TypeCS,
		State:    call.CallStatusDialing,
	}))
	_, pending := m.Control.PendingDial()
	require.False(t, pending)

	require.NoError(t, m.Status.HandleEventResultReportInfo(callmanager.CellularCallEventInfo{
		EventType: callmanager.EventRequestResultType,
		EventID:   callmanager.ResultDialNoCarrier,
	}))

	infos := obs.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, callmanager.EventDialNoCarrier, infos[0].EventID)
	assert.Equal(t, "+15551234", infos[0].PhoneNum)
}

// setupConference собирает конференцию из двух вызовов: главный активен,
// подчиненный привязан после подтверждения слияния
func setupConference(t *testing.T, m *callmanager.CallManager, core *fakeCore) (*call.Call, *call.Call) {
	t.Helper()
	require.NoError(t, m.Status.HandleCallReportInfo(incomingReport("+15551111", call.TypeCS)))
	mainCall, ok := m.Registry.GetByNumber("+15551111")
	require.True(t, ok)
	require.NoError(t, mainCall.SetTelCallState(call.CallStatusActive))

	require.NoError(t, m.Status.HandleCallReportInfo(incomingReport("+15552222", call.TypeCS)))
	sub, ok := m.Registry.GetByNumber("+15552222")
	require.True(t, ok)
	require.NoError(t, sub.SetTelCallState(call.CallStatusActive))
	require.NoError(t, sub.SetTelCallState(call.CallStatusHolding))

	require.NoError(t, m.Control.CombineConference(mainCall.CallID()))
	require.Eventually(t, func() bool {
		return core.OpCount() == 1
	}, time.Second, 10*time.Millisecond)

	active := incomingReport("+15552222", call.TypeCS)
	active.State = call.CallStatusActive
	require.NoError(t, m.Status.HandleCallReportInfo(active))
	require.Equal(t, []int{sub.CallID()}, mainCall.GetSubCallIDList())
	return mainCall, sub
}

// TestDisconnectedDetachesSubCall завершение подчиненного вызова
// отвязывает его от конференции, главный вызов продолжается
func TestDisconnectedDetachesSubCall(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	mainCall, sub := setupConference(t, m, core)

	gone := incomingReport("+15552222", call.TypeCS)
	gone.State = call.CallStatusDisconnected
	require.NoError(t, m.Status.HandleCallReportInfo(gone))

	_, ok := m.Registry.Get(sub.CallID())
	assert.False(t, ok)
	assert.Empty(t, mainCall.GetSubCallIDList())
	assert.Equal(t, call.CallStatusActive, mainCall.TelCallState())
}

// TestDisconnectedMainDissolvesConference завершение главного вызова
// распускает конференцию целиком, подчиненный остается вне конференции
func TestDisconnectedMainDissolvesConference(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	mainCall, sub := setupConference(t, m, core)

	gone := incomingReport("+15551111", call.TypeCS)
	gone.State = call.CallStatusDisconnected
	require.NoError(t, m.Status.HandleCallReportInfo(gone))

	_, ok := m.Registry.Get(mainCall.CallID())
	assert.False(t, ok)

	survivor, ok := m.Registry.Get(sub.CallID())
	require.True(t, ok)
	assert.Equal(t, call.ErrID, survivor.GetMainCallID())
	assert.Equal(t, call.TelConferenceIdle, survivor.ConferenceState())
	assert.Equal(t, call.CallStatusActive, survivor.TelCallState())
}

// TestOttEventTranslation OTT-событие транслируется с валидацией длины
func TestOttEventTranslation(t *testing.T) {
	m := newTestManager(newFakeCore(), nil)
	obs := &recordingObserver{name: "app"}
	m.Listener.AddOneObserver(obs)

	require.NoError(t, m.Status.HandleOttEventReportInfo(callmanager.OttCallEventInfo{
		OttCallEventID: callmanager.OttCallEventFunctionUnsupported,
		BundleName:     "com.example.voip",
	}))
	assert.Contains(t, obs.Events(), "event:ott_function_unsupported")

	// Слишком длинное имя приложения отклоняется, а не усекается
	long := make([]byte, call.MaxBundleNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	err := m.Status.HandleOttEventReportInfo(callmanager.OttCallEventInfo{
		OttCallEventID: callmanager.OttCallEventFunctionUnsupported,
		BundleName:     string(long),
	})
	require.Error(t, err)
	assert.True(t, call.IsCategory(err, call.ErrorCategorySerialization))
}

// TestIncomingFilterDefersCreation отложенная классификация задерживает
// создание записи до разрешения фильтра
func TestIncomingFilterDefersCreation(t *testing.T) {
	provider := &fakeFilterProvider{pending: map[string]bool{"+15557777": true}}
	m, err := callmanager.New(callmanager.Config{
		Core:           newFakeCore(),
		SlotCount:      1,
		FilterProvider: provider,
	})
	require.NoError(t, err)

	require.NoError(t, m.Status.HandleCallReportInfo(incomingReport("+15557777", call.TypeCS)))
	assert.False(t, m.Registry.HasCall(), "record must not exist until filter resolves")

	m.Filter.CompleteFilter("+15557777", true)
	c, ok := m.Registry.GetByNumber("+15557777")
	require.True(t, ok)
	assert.Equal(t, call.CallStatusIncoming, c.TelCallState())
}

// TestIncomingFilterBlocks номер из черного списка не создает запись
func TestIncomingFilterBlocks(t *testing.T) {
	provider := &fakeFilterProvider{blocked: []string{"+15558888"}}
	m, err := callmanager.New(callmanager.Config{
		Core:           newFakeCore(),
		SlotCount:      1,
		FilterProvider: provider,
	})
	require.NoError(t, err)

	err = m.Status.HandleCallReportInfo(incomingReport("+15558888", call.TypeCS))
	require.Error(t, err)
	assert.False(t, m.Registry.HasCall())
}

// TestIncomingDeniedDuringEmergency входящий отклоняется при экстренном
// вызове
func TestIncomingDeniedDuringEmergency(t *testing.T) {
	core := newFakeCore()
	m := newTestManager(core, nil)
	m.Start()
	defer m.Stop()

	require.NoError(t, m.Control.DialCall("911", callmanager.DialExtras{CallType: call.TypeCS}))
	require.NoError(t, m.Status.HandleCallReportInfo(call.DetailInfo{
		PhoneNum: "911",
		CallType: call.TypeCS,
		State:    call.CallStatusDialing,
	}))

	err := m.Status.HandleCallReportInfo(incomingReport("+15551111", call.TypeCS))
	require.Error(t, err)
	assert.True(t, call.IsCategory(err, call.ErrorCategoryPolicy))
}
