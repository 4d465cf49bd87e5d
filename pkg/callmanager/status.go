package callmanager

import (
	"log/slog"
	"sync"

	"github.com/arzzra/call_manager/pkg/call"
)

// DialSource доступ к слоту ожидающего набора. Реализуется плоскостью
// управления: реконсилятору нужны параметры последней команды набора,
// чтобы подтвержденный отчет Dialing унаследовал их, а неудавшийся набор
// освободил слот.
type DialSource interface {
	PendingDial() (call.DialParaInfo, bool)
	GetDialParaInfo() call.DialParaInfo
	ConfirmDial(callID int)
	FailDial()
}

// StatusManager реконсилирует асинхронные отчеты нижнего уровня с
// реестром вызовов: создает и уничтожает записи, ведет каждую через
// обработчик ее состояния и рассылает уведомления.
//
// Пакетная сверка идет по номеру телефона, а не по id вызова: нижний
// уровень не гарантирует стабильность индексов между отчетами.
// Известное ограничение: два одновременных вызова на один номер в
// рамках одного аккаунта неразличимы.
type StatusManager struct {
	registry   *call.Registry
	listener   *CallStateListener
	policy     *CallPolicy
	audio      AudioController
	filter     *IncomingFilterManager
	ids        *call.IDAllocator
	dialSource DialSource

	// Таблицы трансляции событий нижнего уровня в прикладные
	eventIDTransferMap    map[RequestResultEventID]CallAbilityEventID
	ottEventIDTransferMap map[OttCallEventID]CallAbilityEventID

	// Предыдущий снимок для пакетной сверки; принадлежит экземпляру,
	// а не глобальному состоянию
	snapshotMu   sync.Mutex
	prevSnapshot call.DetailsInfo
}

// NewStatusManager создает реконсилятор над общим реестром
func NewStatusManager(registry *call.Registry, listener *CallStateListener,
	policy *CallPolicy, audio AudioController, filter *IncomingFilterManager,
	ids *call.IDAllocator, dialSource DialSource) *StatusManager {

	s := &StatusManager{
		registry:              registry,
		listener:              listener,
		policy:                policy,
		audio:                 audio,
		filter:                filter,
		ids:                   ids,
		dialSource:            dialSource,
		eventIDTransferMap:    make(map[RequestResultEventID]CallAbilityEventID),
		ottEventIDTransferMap: make(map[OttCallEventID]CallAbilityEventID),
	}
	s.initCallBaseEvent()
	if filter != nil {
		filter.SetCompleteHandler(s.callFilterCompleteResult)
	}
	return s
}

// initCallBaseEvent заполняет таблицы трансляции событий
func (s *StatusManager) initCallBaseEvent() {
	s.eventIDTransferMap[ResultDialNoCarrier] = EventDialNoCarrier
	s.ottEventIDTransferMap[OttCallEventFunctionUnsupported] = EventOttFunctionUnsupported
}

// HandleCallReportInfo обрабатывает одиночный отчет о состоянии вызова,
// диспетчеризуя по состоянию. Ошибки обработчиков восстановимые:
// логируются и возвращаются наверх, паник нет.
func (s *StatusManager) HandleCallReportInfo(info call.DetailInfo) error {
	var err error
	switch info.State {
	case call.CallStatusActive:
		err = s.activeHandle(info)
	case call.CallStatusHolding:
		err = s.holdingHandle(info)
	case call.CallStatusDialing:
		err = s.dialingHandle(info)
	case call.CallStatusAlerting:
		err = s.alertHandle(info)
	case call.CallStatusIncoming:
		err = s.incomingHandle(info)
	case call.CallStatusWaiting:
		err = s.waitingHandle(info)
	case call.CallStatusDisconnected:
		err = s.disconnectedHandle(info)
	case call.CallStatusDisconnecting:
		err = s.disconnectingHandle(info)
	default:
		err = call.NewValidationError(call.CodeStateMismatch,
			"отчет с неизвестным состоянием %d", info.State)
	}
	if err != nil {
		slog.Error("обработка отчета не удалась",
			slog.String("state", info.State.String()),
			slog.String("number", info.PhoneNum),
			slog.Any("error", err))
	}
	return err
}

// HandleCallsReportInfo пакетная сверка: новый снимок вызовов одного
// слота сравнивается с предыдущим.
//
//  1. Отчет с известным номером и изменившимся состоянием уходит в
//     одиночный обработчик; с неизвестным номером трактуется как новый
//     вызов.
//  2. Для номера из предыдущего снимка, пропавшего из нового,
//     синтезируется отчет Disconnected: так реконсилируются вызовы,
//     молча исчезнувшие на нижнем уровне.
//  3. Новый снимок замещает предыдущий.
func (s *StatusManager) HandleCallsReportInfo(slotID int, reports []call.DetailInfo) error {
	s.snapshotMu.Lock()
	prev := s.prevSnapshot
	s.snapshotMu.Unlock()

	slog.Info("пакетный отчет о вызовах",
		slog.Int("slot", slotID),
		slog.Int("calls", len(reports)))

	for _, report := range reports {
		found := false
		for _, old := range prev.Calls {
			if report.PhoneNum == old.PhoneNum {
				found = true
				if report.State != old.State {
					_ = s.HandleCallReportInfo(report)
				}
				break
			}
		}
		if !found || len(prev.Calls) == 0 {
			_ = s.HandleCallReportInfo(report)
		}
	}

	for _, old := range prev.Calls {
		found := false
		for _, report := range reports {
			if old.PhoneNum == report.PhoneNum {
				found = true
				break
			}
		}
		if !found {
			old.State = call.CallStatusDisconnected
			_ = s.HandleCallReportInfo(old)
		}
	}

	s.snapshotMu.Lock()
	s.prevSnapshot = call.DetailsInfo{SlotID: slotID, Calls: reports}
	s.snapshotMu.Unlock()
	return nil
}

// HandleDisconnectedCause отчет о причине разъединения. Причина приходит
// отвязанной от конкретной записи, поэтому рассылается только код.
func (s *StatusManager) HandleDisconnectedCause(cause int32) error {
	if s.listener == nil {
		return call.NewDependencyError("рассылка наблюдателям не инициализирована")
	}
	s.listener.CallDestroyed(cause)
	return nil
}

// HandleEventResultReportInfo транслирует результат запроса сотового
// стека в прикладное событие. Неизвестные id логируются и отбрасываются.
func (s *StatusManager) HandleEventResultReportInfo(info CellularCallEventInfo) error {
	if info.EventType != EventRequestResultType {
		return call.NewValidationError(call.CodeTypeUnexpected,
			"неожиданный тип события, eventId: %d", info.EventID)
	}
	eventID, ok := s.eventIDTransferMap[info.EventID]
	if !ok {
		slog.Warn("неизвестное событие сотового стека, отброшено",
			slog.Int("event_id", int(info.EventID)))
		return nil
	}
	eventInfo := CallEventInfo{EventID: eventID}
	if eventID == EventDialNoCarrier {
		// Номер берется из дескриптора последнего набора независимо от
		// подтверждения: событие может прийти и после отчета Dialing
		para := s.dialSource.GetDialParaInfo()
		if len(para.Number) > call.MaxNumberLen {
			return call.NewSerializationError(
				"номер длиной %d не помещается в событие", len(para.Number))
		}
		eventInfo.PhoneNum = para.Number
		// Набор не состоялся, слот освобождается для следующей команды
		s.dialSource.FailDial()
	}
	s.listener.CallEventUpdated(eventInfo)
	return nil
}

// HandleOttEventReportInfo транслирует событие OTT-приложения
func (s *StatusManager) HandleOttEventReportInfo(info OttCallEventInfo) error {
	eventID, ok := s.ottEventIDTransferMap[info.OttCallEventID]
	if !ok {
		slog.Warn("неизвестное OTT-событие, отброшено",
			slog.Int("event_id", int(info.OttCallEventID)))
		return nil
	}
	if len(info.BundleName) > call.MaxBundleNameLen {
		return call.NewSerializationError(
			"bundleName длиной %d не помещается в событие", len(info.BundleName))
	}
	s.listener.CallEventUpdated(CallEventInfo{
		EventID:    eventID,
		BundleName: info.BundleName,
	})
	return nil
}

// dialingHandle подтверждение исходящего набора
func (s *StatusManager) dialingHandle(info call.DetailInfo) error {
	pending, ok := s.dialSource.PendingDial()
	if !ok || !pending.IsDialing {
		return call.NewPolicyError(call.CodeStateMismatch,
			"отчет Dialing без команды набора, номер %s", info.PhoneNum)
	}
	if err := s.policy.NumberLegalityCheck(info.PhoneNum); err != nil {
		return err
	}
	c, err := s.createNewCall(info, call.DirectionOut)
	if err != nil {
		return err
	}
	if err := c.DialingProcess(); err != nil {
		_ = s.registry.Remove(c.CallID())
		return err
	}
	s.listener.NewCallCreated(c)
	s.dialSource.ConfirmDial(c.CallID())
	return s.updateCallState(c, call.CallStatusDialing)
}

// incomingHandle новый входящий вызов
func (s *StatusManager) incomingHandle(info call.DetailInfo) error {
	if err := s.policy.IncomingHandlePolicy(info); err != nil {
		return err
	}
	// CS и IMS вызовы проходят классификацию черным списком; решение
	// может быть отложено, тогда запись создаст обработчик фильтра
	if info.CallType == call.TypeCS || info.CallType == call.TypeIMS {
		result, err := s.incomingFilterPolicy(info)
		if err != nil {
			return err
		}
		if result == FilterPending {
			slog.Info("создание записи отложено до разрешения фильтра",
				slog.String("number", info.PhoneNum))
			return nil
		}
	}
	return s.acceptIncoming(info)
}

// waitingHandle обрабатывается как входящий: Waiting лишь означает
// занятую линию
func (s *StatusManager) waitingHandle(info call.DetailInfo) error {
	return s.incomingHandle(info)
}

// incomingFilterPolicy прогоняет вызов через входящий фильтр
func (s *StatusManager) incomingFilterPolicy(info call.DetailInfo) (FilterResult, error) {
	if s.filter == nil {
		return FilterAllow, call.NewDependencyError("входящий фильтр не инициализирован")
	}
	if s.filter.IsFirstIncoming() {
		s.filter.UpdateIncomingFilterData()
	}
	return s.filter.DoIncomingFilter(info)
}

// callFilterCompleteResult отложенное создание записи после разрешения
// фильтра в пользу вызова
func (s *StatusManager) callFilterCompleteResult(info call.DetailInfo) {
	if err := s.acceptIncoming(info); err != nil {
		slog.Error("создание записи после фильтра не удалось",
			slog.String("number", info.PhoneNum),
			slog.Any("error", err))
	}
}

// acceptIncoming создает запись входящего вызова и уведомляет наблюдателей
func (s *StatusManager) acceptIncoming(info call.DetailInfo) error {
	c, err := s.createNewCall(info, call.DirectionIn)
	if err != nil {
		return err
	}
	s.listener.NewCallCreated(c)
	if err := s.updateCallState(c, info.State); err != nil {
		return err
	}
	if s.filter != nil {
		if err := s.filter.FilterResultsDispose(c); err != nil {
			slog.Error("обработка результатов фильтра не удалась", slog.Any("error", err))
		}
	}
	return nil
}

// activeHandle вызов стал активным: возможно, это завершение слияния
// в конференцию
func (s *StatusManager) activeHandle(info call.DetailInfo) error {
	c, ok := s.registry.GetByNumber(info.PhoneNum)
	if !ok {
		return call.NewNotFoundError(call.CodeCallNotFound,
			"нет записи для номера %s", info.PhoneNum)
	}
	if mainID, err := c.LaunchConference(); err == nil {
		if mainCall, ok := s.registry.Get(mainID); ok {
			mainCall.PromoteToMain()
			mainCall.AddSubCall(c.CallID())
			mainCall.SetTelConferenceState(call.TelConferenceActive)
		}
	}
	if err := s.updateCallState(c, call.CallStatusActive); err != nil {
		return err
	}
	s.toSpeakerPhone(c)
	if s.audio != nil {
		s.audio.SetVolumeAudible()
	}
	return nil
}

// holdingHandle вызов поставлен на удержание
func (s *StatusManager) holdingHandle(info call.DetailInfo) error {
	c, ok := s.registry.GetByNumber(info.PhoneNum)
	if !ok {
		return call.NewNotFoundError(call.CodeCallNotFound,
			"нет записи для номера %s", info.PhoneNum)
	}
	// Удержание главного вызова выводит конференцию из активного режима
	if err := c.HoldConference(); err == nil {
		slog.Debug("конференция переведена в режим удержания",
			slog.Int("call_id", c.CallID()))
	}
	return s.updateCallState(c, call.CallStatusHolding)
}

// alertHandle удаленная сторона оповещена о вызове
func (s *StatusManager) alertHandle(info call.DetailInfo) error {
	c, ok := s.registry.GetByNumber(info.PhoneNum)
	if !ok {
		return call.NewNotFoundError(call.CodeCallNotFound,
			"нет записи для номера %s", info.PhoneNum)
	}
	if err := s.updateCallState(c, call.CallStatusAlerting); err != nil {
		return err
	}
	s.toSpeakerPhone(c)
	s.turnOffMute(c)
	if s.audio != nil {
		s.audio.SetVolumeAudible()
	}
	return nil
}

// disconnectingHandle началось завершение вызова; запись еще не удаляется
func (s *StatusManager) disconnectingHandle(info call.DetailInfo) error {
	c, ok := s.registry.GetByNumber(info.PhoneNum)
	if !ok {
		return call.NewNotFoundError(call.CodeCallNotFound,
			"нет записи для номера %s", info.PhoneNum)
	}
	return s.updateCallState(c, call.CallStatusDisconnecting)
}

// disconnectedHandle вызов завершен: отвязка от конференции, уведомление
// и удаление из реестра, ровно один раз
func (s *StatusManager) disconnectedHandle(info call.DetailInfo) error {
	c, ok := s.registry.GetByNumber(info.PhoneNum)
	if !ok {
		return call.NewNotFoundError(call.CodeCallNotFound,
			"нет записи для номера %s", info.PhoneNum)
	}
	if mainID, err := c.ExitConference(); err == nil {
		if mainCall, ok := s.registry.Get(mainID); ok {
			mainCall.RemoveSubCall(c.CallID())
		}
	} else if c.GetMainCallID() == c.CallID() {
		// Завершился главный вызов: распускаем конференцию целиком
		for _, subID := range c.GetSubCallIDList() {
			if sub, ok := s.registry.Get(subID); ok {
				sub.DropConferenceRelation()
			}
		}
		c.DropConferenceRelation()
	}
	if err := s.updateCallState(c, call.CallStatusDisconnected); err != nil {
		return err
	}
	return s.registry.Remove(c.CallID())
}

// updateCallState переводит запись в новое состояние и рассылает смену.
// Повторная установка текущего состояния не ошибка.
func (s *StatusManager) updateCallState(c *call.Call, next call.TelCallState) error {
	prior := c.TelCallState()
	if err := c.SetTelCallState(next); err != nil && !call.HasCode(err, call.CodeNotNewState) {
		return err
	}
	s.listener.CallStateUpdated(c, prior, next)
	return nil
}

// toSpeakerPhone включает громкую связь, если вызов ее запрашивал.
// На стадии набора переключение не выполняется.
func (s *StatusManager) toSpeakerPhone(c *call.Call) {
	if s.audio == nil {
		return
	}
	if c.RunningState() == call.CallRunningStateDialing {
		return
	}
	if c.IsSpeakerphoneOn() {
		if err := s.audio.SetAudioDevice(DeviceSpeaker); err != nil {
			slog.Error("переключение на громкую связь не удалось", slog.Any("error", err))
			return
		}
		c.SetSpeakerphoneOn(false)
	}
}

// turnOffMute экстренные вызовы всегда слышны
func (s *StatusManager) turnOffMute(c *call.Call) {
	if s.audio == nil {
		return
	}
	if c.IsEmergency() || s.registry.HasEmergencyCall() {
		_ = s.audio.SetMute(false)
	} else {
		_ = s.audio.SetMute(true)
	}
}

// createNewCall создает запись вызова и вставляет ее в реестр
func (s *StatusManager) createNewCall(info call.DetailInfo, dir call.CallDirection) (*call.Call, error) {
	para := s.packParaInfo(info, dir)
	c := call.NewCall(para, dir)
	if err := s.registry.Insert(c); err != nil {
		return nil, err
	}
	return c, nil
}

// packParaInfo собирает параметры записи из отчета; для исходящего
// вызова подмешиваются сохраненные параметры команды набора
func (s *StatusManager) packParaInfo(info call.DetailInfo, dir call.CallDirection) call.DialParaInfo {
	para := call.DialParaInfo{
		Number:     info.PhoneNum,
		CallID:     s.ids.Next(),
		Index:      info.Index,
		VideoState: call.VideoStateVoice,
		AccountID:  info.AccountID,
		CallType:   info.CallType,
		CallState:  info.State,
		BundleName: info.BundleName,
		DialType:   call.DialCarrierType,
	}
	if dir == call.DirectionOut {
		if pending, ok := s.dialSource.PendingDial(); ok {
			para.IsEcc = pending.IsEcc
			para.DialType = pending.DialType
			para.VideoState = pending.VideoState
			if para.BundleName == "" {
				para.BundleName = pending.BundleName
			}
		}
	}
	return para
}
