package call

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// StateChangeHandler обработчик смены состояния вызова
type StateChangeHandler func(prior, next TelCallState)

// Call представляет одну запись вызова в реестре.
//
// Запись создается реконсилятором при первом отчете нижнего уровня,
// мутируется реконсилятором (отчеты о состоянии) и плоскостью управления
// (DTMF, конференции) и удаляется из реестра при переходе в disconnected.
type Call struct {
	// Идентификация вызова
	callID      int
	phoneNumber string
	accountID   int
	index       int
	bundleName  string

	// Классификация
	callType   CallType
	direction  CallDirection
	videoState VideoStateType
	dialType   DialType
	isEcc      bool

	// Текущие флаги
	dtmfActive     bool
	speakerphoneOn bool

	// Участие в конференции
	conferenceState TelConferenceState
	mainCallID      int          // id главного вызова; 0, если вне конференции
	subCallIDs      map[int]bool // заполнено только у главного вызова
	pendingMainID   int          // запрошенное слияние, еще не подтвержденное

	// Время жизни
	createdAt time.Time

	// FSM для управления состояниями
	stateMachine *fsm.FSM

	// Обработчик смены состояния
	stateChangeHandler StateChangeHandler

	// Мьютекс для синхронизации
	mu sync.RWMutex
}

// NewCall создает новую запись вызова из параметров набора
func NewCall(para DialParaInfo, dir CallDirection) *Call {
	c := &Call{
		callID:      para.CallID,
		phoneNumber: para.Number,
		accountID:   para.AccountID,
		index:       para.Index,
		bundleName:  para.BundleName,
		callType:    para.CallType,
		direction:   dir,
		videoState:  para.VideoState,
		dialType:    para.DialType,
		isEcc:       para.IsEcc,
		subCallIDs:  make(map[int]bool),
		createdAt:   time.Now(),
	}

	// Инициализируем FSM
	c.initStateMachine()

	return c
}

// initStateMachine инициализирует конечный автомат состояний вызова.
// Таблица переходов закрыта: обработчик отчетов не может выставить
// состояние вне этих ребер.
func (c *Call) initStateMachine() {
	c.stateMachine = fsm.NewFSM(
		CallStatusUnknown.String(),
		fsm.Events{
			// Подтверждение исходящего набора
			{Name: "dialing", Src: []string{"unknown"}, Dst: "dialing"},
			// Новый входящий вызов
			{Name: "incoming", Src: []string{"unknown"}, Dst: "incoming"},
			// Входящий при уже занятой линии
			{Name: "waiting", Src: []string{"unknown"}, Dst: "waiting"},
			// Удаленная сторона оповещена
			{Name: "alerting", Src: []string{"dialing"}, Dst: "alerting"},
			// Разговор установлен или снят с удержания
			{Name: "active", Src: []string{"dialing", "alerting", "incoming", "waiting", "holding"}, Dst: "active"},
			// Поставлен на удержание
			{Name: "holding", Src: []string{"active"}, Dst: "holding"},
			// Начато завершение
			{Name: "disconnecting",
				Src: []string{"dialing", "incoming", "waiting", "alerting", "active", "holding"},
				Dst: "disconnecting"},
			// Вызов завершен
			{Name: "disconnected",
				Src: []string{"unknown", "dialing", "incoming", "waiting", "alerting", "active", "holding", "disconnecting"},
				Dst: "disconnected"},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				c.handleStateChange(e)
			},
		},
	)
}

// handleStateChange обрабатывает изменение состояния
func (c *Call) handleStateChange(e *fsm.Event) {
	c.mu.RLock()
	handler := c.stateChangeHandler
	c.mu.RUnlock()

	if handler != nil {
		handler(stringToTelCallState(e.Src), stringToTelCallState(e.Dst))
	}
}

// stringToTelCallState преобразует строку состояния FSM в TelCallState
func stringToTelCallState(state string) TelCallState {
	for s, name := range telCallStateNames {
		if name == state {
			return s
		}
	}
	return CallStatusUnknown
}

// SetStateChangeHandler устанавливает обработчик смены состояния
func (c *Call) SetStateChangeHandler(handler StateChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateChangeHandler = handler
}

// CallID возвращает идентификатор вызова
func (c *Call) CallID() int {
	return c.callID
}

// PhoneNumber возвращает номер вызова
func (c *Call) PhoneNumber() string {
	return c.phoneNumber
}

// AccountID возвращает идентификатор слота/аккаунта
func (c *Call) AccountID() int {
	return c.accountID
}

// Index возвращает индекс вызова у нижнего уровня
func (c *Call) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// BundleName возвращает имя приложения-инициатора (только OTT)
func (c *Call) BundleName() string {
	return c.bundleName
}

// CallType возвращает тип вызова
func (c *Call) CallType() CallType {
	return c.callType
}

// Direction возвращает направление вызова
func (c *Call) Direction() CallDirection {
	return c.direction
}

// VideoState возвращает режим медиа
func (c *Call) VideoState() VideoStateType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.videoState
}

// SetVideoState устанавливает режим медиа
func (c *Call) SetVideoState(state VideoStateType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videoState = state
}

// IsEmergency возвращает признак экстренного вызова
func (c *Call) IsEmergency() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isEcc
}

// CreatedAt возвращает время создания записи
func (c *Call) CreatedAt() time.Time {
	return c.createdAt
}

// TelCallState возвращает текущее состояние вызова
func (c *Call) TelCallState() TelCallState {
	return stringToTelCallState(c.stateMachine.Current())
}

// RunningState возвращает укрупненное состояние вызова
func (c *Call) RunningState() CallRunningState {
	return RunningStateOf(c.TelCallState())
}

// IsAliveState возвращает true, если вызов еще жив
func (c *Call) IsAliveState() bool {
	return c.TelCallState().IsAlive()
}

// SetTelCallState переводит вызов в новое состояние по таблице переходов.
// Повторная установка текущего состояния возвращает CodeNotNewState;
// вызывающая сторона решает, считать ли это ошибкой.
func (c *Call) SetTelCallState(next TelCallState) error {
	prior := c.TelCallState()
	if prior == next {
		return NewStateError(CodeNotNewState,
			"вызов %d уже в состоянии %s", c.callID, next).WithCallID(c.callID)
	}
	if err := c.stateMachine.Event(context.Background(), next.String()); err != nil {
		return NewStateError(CodeIllegalTransition,
			"недопустимый переход %s -> %s", prior, next).WithCallID(c.callID).WithCause(err)
	}
	return nil
}

// DtmfActive возвращает признак активной передачи DTMF
func (c *Call) DtmfActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dtmfActive
}

// StartDtmf начинает передачу DTMF-символа
func (c *Call) StartDtmf(digit rune) error {
	if !c.IsAliveState() {
		return NewPolicyError(CodeStateMismatch,
			"DTMF недоступен в состоянии %s", c.TelCallState()).WithCallID(c.callID)
	}
	if !isValidDtmfDigit(digit) {
		return NewValidationError(CodeStateMismatch,
			"недопустимый DTMF-символ %q", digit).WithCallID(c.callID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dtmfActive = true
	return nil
}

// StopDtmf останавливает передачу DTMF
func (c *Call) StopDtmf() error {
	if !c.IsAliveState() {
		return NewPolicyError(CodeStateMismatch,
			"DTMF недоступен в состоянии %s", c.TelCallState()).WithCallID(c.callID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dtmfActive = false
	return nil
}

// isValidDtmfDigit проверяет символ DTMF
func isValidDtmfDigit(digit rune) bool {
	switch {
	case digit >= '0' && digit <= '9':
		return true
	case digit == '*' || digit == '#':
		return true
	case digit >= 'A' && digit <= 'D':
		return true
	default:
		return false
	}
}

// IsSpeakerphoneOn возвращает признак запрошенной громкой связи
func (c *Call) IsSpeakerphoneOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speakerphoneOn
}

// SetSpeakerphoneOn устанавливает признак громкой связи
func (c *Call) SetSpeakerphoneOn(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speakerphoneOn = on
}

// DialingProcess выполняет проверку начала набора с учетом типа вызова
func (c *Call) DialingProcess() error {
	switch c.callType {
	case TypeCS:
		return c.csDialingProcess()
	case TypeIMS:
		return c.imsDialingProcess()
	case TypeOTT:
		return c.ottDialingProcess()
	default:
		return NewValidationError(CodeStateMismatch, "неизвестный тип вызова %d", c.callType)
	}
}
