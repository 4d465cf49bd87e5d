package callmanager

import (
	"log/slog"
	"sync"

	"github.com/arzzra/call_manager/pkg/call"
)

// DialExtras параметры команды набора
type DialExtras struct {
	AccountID  int
	VideoState call.VideoStateType
	DialScene  call.DialScene
	DialType   call.DialType
	CallType   call.CallType
	BundleName string
}

// ControlManager командная поверхность плоскости управления.
//
// Каждая команда проверяется политикой, при отказе сразу возвращается
// конкретная ошибка без побочных эффектов. Принятая команда уходит
// нижнему уровню через воркер запросов; подтверждение придет позже
// асинхронным отчетом через StatusManager. Запросы чтения ходят в
// реестр синхронно.
type ControlManager struct {
	registry *call.Registry
	policy   *CallPolicy
	listener *CallStateListener
	worker   *RequestWorker
	core     CoreService
	audio    AudioController

	// Единственный слот ожидающего набора: не более одного
	// незавершенного исходящего набора на процесс
	dialMu      sync.Mutex
	dialSrcInfo call.DialParaInfo
}

// NewControlManager создает плоскость управления над общим реестром
func NewControlManager(registry *call.Registry, policy *CallPolicy,
	listener *CallStateListener, worker *RequestWorker,
	core CoreService, audio AudioController) *ControlManager {

	cm := &ControlManager{
		registry: registry,
		policy:   policy,
		listener: listener,
		worker:   worker,
		core:     core,
		audio:    audio,
	}
	cm.dialSrcInfo.CallID = call.ErrID
	return cm
}

// checkCore быстрый отказ при неинициализированном нижнем уровне
func (cm *ControlManager) checkCore() error {
	if cm.core == nil {
		return call.NewDependencyError("нижний уровень не инициализирован")
	}
	return nil
}

// DialCall начинает исходящий набор. Принятие команды не ждет
// подтверждения нижнего уровня.
func (cm *ControlManager) DialCall(number string, extras DialExtras) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.NumberLegalityCheck(number); err != nil {
		return err
	}
	isEcc, err := IsEmergencyNumber(number, extras.AccountID)
	if err != nil {
		// Неудавшаяся классификация не запрещает набор, только лишает
		// вызов экстренных привилегий
		slog.Warn("классификация экстренного номера не удалась",
			slog.String("number", number),
			slog.Any("error", err))
		isEcc = false
	}
	if err := cm.policy.DialPolicy(number, extras, isEcc); err != nil {
		return err
	}

	// Занимаем слот ожидающего набора
	cm.dialMu.Lock()
	if cm.dialSrcInfo.IsDialing {
		cm.dialMu.Unlock()
		return call.NewPolicyError(call.CodeDialAlreadyPending,
			"набор %s уже ожидает подтверждения", cm.dialSrcInfo.Number)
	}
	cm.dialSrcInfo = call.DialParaInfo{
		CallID:     call.ErrID,
		Number:     number,
		IsDialing:  true,
		IsEcc:      isEcc,
		CallType:   extras.CallType,
		AccountID:  extras.AccountID,
		DialType:   extras.DialType,
		VideoState: extras.VideoState,
		BundleName: extras.BundleName,
	}
	para := cm.dialSrcInfo
	cm.dialMu.Unlock()

	if err := cm.worker.Submit("dial", func() error {
		if err := cm.core.Dial(para); err != nil {
			// Неудавшаяся пересылка не должна навсегда занять слот
			cm.clearPendingDial()
			return err
		}
		return nil
	}); err != nil {
		cm.clearPendingDial()
		return err
	}
	return nil
}

// PendingDial возвращает параметры незавершенного набора
func (cm *ControlManager) PendingDial() (call.DialParaInfo, bool) {
	cm.dialMu.Lock()
	defer cm.dialMu.Unlock()
	return cm.dialSrcInfo, cm.dialSrcInfo.IsDialing
}

// GetDialParaInfo возвращает дескриптор последнего набора, включая уже
// подтвержденный; для диагностики и журнала вызовов
func (cm *ControlManager) GetDialParaInfo() call.DialParaInfo {
	cm.dialMu.Lock()
	defer cm.dialMu.Unlock()
	return cm.dialSrcInfo
}

// ConfirmDial освобождает слот набора после подтверждения нижним уровнем
func (cm *ControlManager) ConfirmDial(callID int) {
	cm.dialMu.Lock()
	defer cm.dialMu.Unlock()
	cm.dialSrcInfo.CallID = callID
	cm.dialSrcInfo.IsDialing = false
}

// FailDial освобождает слот набора, когда нижний уровень сообщил о
// неудаче набора (нет несущей и подобное)
func (cm *ControlManager) FailDial() {
	cm.clearPendingDial()
}

// clearPendingDial освобождает слот набора при сбое команды
func (cm *ControlManager) clearPendingDial() {
	cm.dialMu.Lock()
	defer cm.dialMu.Unlock()
	cm.dialSrcInfo.IsDialing = false
}

// AnswerCall отвечает на входящий вызов
func (cm *ControlManager) AnswerCall(callID int, videoState call.VideoStateType) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.AnswerCallPolicy(callID, videoState); err != nil {
		return err
	}
	c, ok := cm.registry.Get(callID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	return cm.worker.Submit("answer", func() error {
		if err := cm.core.Answer(callID, videoState); err != nil {
			return err
		}
		c.SetVideoState(videoState)
		cm.listener.IncomingCallActivated(c)
		return nil
	})
}

// RejectCall отклоняет входящий вызов, опционально с SMS
func (cm *ControlManager) RejectCall(callID int, sendSms bool, content string) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.RejectCallPolicy(callID); err != nil {
		return err
	}
	if sendSms && content == "" {
		return call.NewValidationError(call.CodePhoneNumberEmpty,
			"пустой текст SMS при отклонении")
	}
	c, ok := cm.registry.Get(callID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	return cm.worker.Submit("reject", func() error {
		if err := cm.core.Reject(callID, sendSms, content); err != nil {
			return err
		}
		cm.listener.IncomingCallHungUp(c, sendSms, content)
		return nil
	})
}

// HangUpCall завершает вызов
func (cm *ControlManager) HangUpCall(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.HangUpPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("hangup", func() error {
		return cm.core.HangUp(callID)
	})
}

// HoldCall ставит вызов на удержание
func (cm *ControlManager) HoldCall(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.HoldCallPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("hold", func() error {
		return cm.core.Hold(callID)
	})
}

// UnHoldCall снимает вызов с удержания
func (cm *ControlManager) UnHoldCall(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.UnHoldCallPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("unhold", func() error {
		return cm.core.UnHold(callID)
	})
}

// SwitchCall меняет местами активный и удерживаемый вызовы
func (cm *ControlManager) SwitchCall(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.SwitchCallPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("switch", func() error {
		return cm.core.SwitchCall(callID)
	})
}

// CombineConference сливает активный и удерживаемый вызовы в конференцию.
// Удерживаемые вызовы того же типа помечаются целями слияния: связывание
// завершит реконсилятор, когда нижний уровень переведет их в активное
// состояние.
func (cm *ControlManager) CombineConference(mainCallID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.CombineConferencePolicy(mainCallID); err != nil {
		return err
	}
	mainCall, ok := cm.registry.Get(mainCallID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"главный вызов %d не найден", mainCallID).WithCallID(mainCallID)
	}
	holding := cm.registry.List(func(c *call.Call) bool {
		return c.CallType() == mainCall.CallType() && c.TelCallState() == call.CallStatusHolding
	})
	for _, c := range holding {
		c.MarkConferencePending(mainCallID)
	}
	return cm.worker.Submit("combine_conference", func() error {
		return cm.core.CombineConference(mainCallID)
	})
}

// SeparateConference отделяет подчиненный вызов от конференции
func (cm *ControlManager) SeparateConference(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.SeparateConferencePolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("separate_conference", func() error {
		return cm.core.SeparateConference(callID)
	})
}

// JoinConference приглашает номера в конференцию
func (cm *ControlManager) JoinConference(callID int, numberList []string) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.InviteToConferencePolicy(callID, numberList); err != nil {
		return err
	}
	return cm.worker.Submit("join_conference", func() error {
		return cm.core.JoinConference(callID, numberList)
	})
}

// StartDtmf начинает передачу DTMF. Команда мутирует запись напрямую
// и пересылается нижнему уровню.
func (cm *ControlManager) StartDtmf(callID int, digit rune) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	c, ok := cm.registry.Get(callID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	if err := c.StartDtmf(digit); err != nil {
		return err
	}
	return cm.worker.Submit("start_dtmf", func() error {
		return cm.core.StartDtmf(callID, digit)
	})
}

// StopDtmf останавливает передачу DTMF
func (cm *ControlManager) StopDtmf(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	c, ok := cm.registry.Get(callID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	if err := c.StopDtmf(); err != nil {
		return err
	}
	return cm.worker.Submit("stop_dtmf", func() error {
		return cm.core.StopDtmf(callID)
	})
}

// StartRtt включает текст реального времени на IMS-вызове
func (cm *ControlManager) StartRtt(callID int, msg string) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.StartRttPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("start_rtt", func() error {
		return cm.core.StartRtt(callID, msg)
	})
}

// StopRtt выключает текст реального времени
func (cm *ControlManager) StopRtt(callID int) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.StopRttPolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("stop_rtt", func() error {
		return cm.core.StopRtt(callID)
	})
}

// UpdateImsCallMode меняет режим медиа IMS-вызова
func (cm *ControlManager) UpdateImsCallMode(callID int, mode ImsCallMode) error {
	if err := cm.checkCore(); err != nil {
		return err
	}
	if err := cm.policy.UpdateCallMediaModePolicy(callID); err != nil {
		return err
	}
	return cm.worker.Submit("update_ims_call_mode", func() error {
		return cm.core.UpdateImsCallMode(callID, mode)
	})
}

// GetCallState возвращает агрегированное состояние телефонии
func (cm *ControlManager) GetCallState() call.CallStateToApp {
	if !cm.registry.HasCall() {
		return call.CallStateIdle
	}
	if cm.registry.HasRingingCall() {
		return call.CallStateRinging
	}
	return call.CallStateOffhook
}

// HasCall возвращает true, если есть хотя бы один вызов
func (cm *ControlManager) HasCall() bool {
	return cm.registry.HasCall()
}

// IsNewCallAllowed возвращает true, если новый вызов сейчас допустим
func (cm *ControlManager) IsNewCallAllowed() bool {
	return cm.registry.IsNewCallAllowed()
}

// IsRinging возвращает true, если есть звонящий вызов
func (cm *ControlManager) IsRinging() bool {
	return cm.registry.HasRingingCall()
}

// HasEmergency возвращает true, если идет экстренный вызов
func (cm *ControlManager) HasEmergency() bool {
	return cm.registry.HasEmergencyCall()
}

// GetOneCallObject возвращает запись вызова по id
func (cm *ControlManager) GetOneCallObject(callID int) (*call.Call, bool) {
	return cm.registry.Get(callID)
}

// GetMainCallID возвращает id главного вызова конференции
func (cm *ControlManager) GetMainCallID(callID int) int {
	c, ok := cm.registry.Get(callID)
	if !ok {
		return call.ErrID
	}
	return c.GetMainCallID()
}

// GetSubCallIDList возвращает подчиненные вызовы конференции
func (cm *ControlManager) GetSubCallIDList(callID int) []int {
	c, ok := cm.registry.Get(callID)
	if !ok {
		return nil
	}
	return c.GetSubCallIDList()
}

// GetCallIDListForConference возвращает всех участников конференции
func (cm *ControlManager) GetCallIDListForConference(callID int) []int {
	c, ok := cm.registry.Get(callID)
	if !ok {
		return nil
	}
	return c.GetCallIDListForConference()
}

// SetMuted управляет микрофоном через аудио-коллаборатора
func (cm *ControlManager) SetMuted(mute bool) error {
	if cm.audio == nil {
		return call.NewDependencyError("аудио-коллаборатор не инициализирован")
	}
	return cm.audio.SetMute(mute)
}

// MuteRinger глушит звонок входящего вызова
func (cm *ControlManager) MuteRinger() error {
	if cm.audio == nil {
		return call.NewDependencyError("аудио-коллаборатор не инициализирован")
	}
	return cm.audio.MuteRinger()
}

// SetAudioDevice переключает устройство вывода звука
func (cm *ControlManager) SetAudioDevice(device AudioDevice) error {
	if cm.audio == nil {
		return call.NewDependencyError("аудио-коллаборатор не инициализирован")
	}
	return cm.audio.SetAudioDevice(device)
}
