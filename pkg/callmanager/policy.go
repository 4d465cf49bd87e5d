package callmanager

import (
	"github.com/arzzra/call_manager/pkg/call"
)

// CallPolicy чистые проверки допустимости операций над текущим
// множеством вызовов. Никаких мутаций: только разрешение или отказ
// с конкретной ошибкой.
type CallPolicy struct {
	registry  *call.Registry
	slotCount int
}

// NewCallPolicy создает политику над реестром
func NewCallPolicy(registry *call.Registry, slotCount int) *CallPolicy {
	if slotCount <= 0 {
		slotCount = 1
	}
	return &CallPolicy{registry: registry, slotCount: slotCount}
}

// NumberLegalityCheck проверяет номер: непустой и не длиннее лимита.
// Слишком длинный ввод отклоняется, а не усекается.
func (p *CallPolicy) NumberLegalityCheck(number string) error {
	if number == "" {
		return call.NewValidationError(call.CodePhoneNumberEmpty, "пустой номер телефона")
	}
	if len(number) > call.MaxNumberLen {
		return call.NewValidationError(call.CodeNumberOutOfRange,
			"длина номера %d превышает лимит %d", len(number), call.MaxNumberLen)
	}
	return nil
}

// IsValidSlotID проверяет идентификатор слота
func (p *CallPolicy) IsValidSlotID(slotID int) bool {
	return slotID >= 0 && slotID < p.slotCount
}

// SlotPolicy общая проверка для операций уровня слота: состояния
// вызовов не требуется, только валидный слот
func (p *CallPolicy) SlotPolicy(slotID int) error {
	if !p.IsValidSlotID(slotID) {
		return call.NewValidationError(call.CodeInvalidSlotID, "недопустимый слот %d", slotID)
	}
	return nil
}

// DialPolicy решает, допустим ли сейчас исходящий набор
func (p *CallPolicy) DialPolicy(number string, extras DialExtras, isEcc bool) error {
	if err := p.SlotPolicy(extras.AccountID); err != nil {
		return err
	}
	switch extras.DialScene {
	case call.DialSceneNormal, call.DialScenePrivileged, call.DialSceneEmergency:
	default:
		return call.NewValidationError(call.CodeUnsupportedDialScene,
			"неизвестный сценарий набора %d", extras.DialScene)
	}
	// Экстренный вызов разрешен всегда, остальные только при свободной линии
	if !isEcc && !p.registry.IsNewCallAllowed() {
		return call.NewPolicyError(call.CodeStateMismatch,
			"новый вызов сейчас недопустим")
	}
	return nil
}

// getAliveCall возвращает живую запись по callId либо конкретный отказ
func (p *CallPolicy) getAliveCall(callID int) (*call.Call, error) {
	c, ok := p.registry.Get(callID)
	if !ok {
		return nil, call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	if !c.IsAliveState() {
		return nil, call.NewPolicyError(call.CodeStateMismatch,
			"вызов %d в состоянии %s, операция недопустима", callID, c.TelCallState()).WithCallID(callID)
	}
	return c, nil
}

// AnswerCallPolicy отвечать можно только на звонящий вызов
func (p *CallPolicy) AnswerCallPolicy(callID int, videoState call.VideoStateType) error {
	c, err := p.getAliveCall(callID)
	if err != nil {
		return err
	}
	if c.RunningState() != call.CallRunningStateRinging {
		return call.NewPolicyError(call.CodeStateMismatch,
			"вызов %d не звонит, ответ невозможен", callID).WithCallID(callID)
	}
	switch videoState {
	case call.VideoStateVoice, call.VideoStateVideo:
		return nil
	default:
		return call.NewValidationError(call.CodeStateMismatch,
			"неизвестный режим медиа %d", videoState)
	}
}

// RejectCallPolicy отклонять можно только звонящий вызов
func (p *CallPolicy) RejectCallPolicy(callID int) error {
	c, err := p.getAliveCall(callID)
	if err != nil {
		return err
	}
	if c.RunningState() != call.CallRunningStateRinging {
		return call.NewPolicyError(call.CodeStateMismatch,
			"вызов %d не звонит, отклонение невозможно", callID).WithCallID(callID)
	}
	return nil
}

// HangUpPolicy завершать можно любой живой вызов
func (p *CallPolicy) HangUpPolicy(callID int) error {
	_, err := p.getAliveCall(callID)
	return err
}

// HoldCallPolicy на удержание ставится только активный вызов
func (p *CallPolicy) HoldCallPolicy(callID int) error {
	c, err := p.getAliveCall(callID)
	if err != nil {
		return err
	}
	if c.TelCallState() != call.CallStatusActive {
		return call.NewPolicyError(call.CodeStateMismatch,
			"вызов %d не активен, удержание невозможно", callID).WithCallID(callID)
	}
	return nil
}

// UnHoldCallPolicy снимается с удержания только удерживаемый вызов
func (p *CallPolicy) UnHoldCallPolicy(callID int) error {
	c, err := p.getAliveCall(callID)
	if err != nil {
		return err
	}
	if c.TelCallState() != call.CallStatusHolding {
		return call.NewPolicyError(call.CodeStateMismatch,
			"вызов %d не на удержании", callID).WithCallID(callID)
	}
	return nil
}

// SwitchCallPolicy перестановка требует живого вызова
func (p *CallPolicy) SwitchCallPolicy(callID int) error {
	_, err := p.getAliveCall(callID)
	return err
}

// DtmfPolicy DTMF допустим только на живом вызове
func (p *CallPolicy) DtmfPolicy(callID int) error {
	_, err := p.getAliveCall(callID)
	return err
}

// CombineConferencePolicy условия слияния в конференцию: главный вызов
// активен, есть удерживаемый вызов того же типа, лимит участников не
// превышен
func (p *CallPolicy) CombineConferencePolicy(mainCallID int) error {
	mainCall, ok := p.registry.Get(mainCallID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"главный вызов %d не найден", mainCallID).WithCallID(mainCallID)
	}
	if mainCall.TelCallState() != call.CallStatusActive {
		return call.NewPolicyError(call.CodeStateMismatch,
			"главный вызов %d должен быть активен", mainCallID).WithCallID(mainCallID)
	}
	if !p.registry.Exists(mainCall.CallType(), call.CallStatusHolding) {
		return call.NewPolicyError(call.CodeStateMismatch,
			"нет удерживаемого вызова типа %s для слияния", mainCall.CallType()).WithCallID(mainCallID)
	}
	return mainCall.CanCombineConference()
}

// SeparateConferencePolicy условия отделения от конференции
func (p *CallPolicy) SeparateConferencePolicy(callID int) error {
	c, ok := p.registry.Get(callID)
	if !ok {
		return call.NewNotFoundError(call.CodeInvalidCallID,
			"вызов %d не найден", callID).WithCallID(callID)
	}
	return c.CanSeparateConference()
}

// InviteToConferencePolicy проверка приглашения номеров в конференцию
func (p *CallPolicy) InviteToConferencePolicy(callID int, numberList []string) error {
	if _, err := p.getAliveCall(callID); err != nil {
		return err
	}
	if len(numberList) == 0 {
		return call.NewValidationError(call.CodePhoneNumberEmpty, "пустой список номеров")
	}
	for _, number := range numberList {
		if err := p.NumberLegalityCheck(number); err != nil {
			return err
		}
	}
	return nil
}

// StartRttPolicy RTT доступен только на живом IMS-вызове
func (p *CallPolicy) StartRttPolicy(callID int) error {
	c, err := p.getAliveCall(callID)
	if err != nil {
		return err
	}
	if c.CallType() != call.TypeIMS {
		return call.NewPolicyError(call.CodeStateMismatch,
			"RTT доступен только для IMS-вызовов, вызов %d типа %s", callID, c.CallType()).WithCallID(callID)
	}
	return nil
}

// StopRttPolicy условия остановки RTT совпадают с условиями запуска
func (p *CallPolicy) StopRttPolicy(callID int) error {
	return p.StartRttPolicy(callID)
}

// UpdateCallMediaModePolicy смена режима медиа только для IMS
func (p *CallPolicy) UpdateCallMediaModePolicy(callID int) error {
	return p.StartRttPolicy(callID)
}

// IncomingHandlePolicy решает, допустим ли новый входящий вызов:
// реестр не переполнен и активный экстренный вызов не прерывается
func (p *CallPolicy) IncomingHandlePolicy(info call.DetailInfo) error {
	if err := p.NumberLegalityCheck(info.PhoneNum); err != nil {
		return err
	}
	if p.registry.HasEmergencyCall() {
		return call.NewPolicyError(call.CodeStateMismatch,
			"входящий вызов отклонен: идет экстренный вызов")
	}
	if !p.registry.IsNewCallAllowed() {
		return call.NewPolicyError(call.CodeStateMismatch,
			"входящий вызов отклонен: новый вызов сейчас недопустим")
	}
	return nil
}
