package call

// TelCallState состояние вызова, как его сообщает нижний уровень
type TelCallState int

const (
	CallStatusUnknown TelCallState = iota
	CallStatusDialing
	CallStatusIncoming
	CallStatusWaiting
	CallStatusAlerting
	CallStatusActive
	CallStatusHolding
	CallStatusDisconnecting
	CallStatusDisconnected
)

var telCallStateNames = map[TelCallState]string{
	CallStatusUnknown:       "unknown",
	CallStatusDialing:       "dialing",
	CallStatusIncoming:      "incoming",
	CallStatusWaiting:       "waiting",
	CallStatusAlerting:      "alerting",
	CallStatusActive:        "active",
	CallStatusHolding:       "holding",
	CallStatusDisconnecting: "disconnecting",
	CallStatusDisconnected:  "disconnected",
}

func (s TelCallState) String() string {
	if name, ok := telCallStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsAlive возвращает true, если в этом состоянии вызов еще жив
// (можно отправлять DTMF, ставить на удержание и т.д.)
func (s TelCallState) IsAlive() bool {
	switch s {
	case CallStatusDisconnecting, CallStatusDisconnected, CallStatusUnknown:
		return false
	default:
		return true
	}
}

// CallRunningState укрупненная классификация состояния для UI и аудио
type CallRunningState int

const (
	CallRunningStateIdle CallRunningState = iota
	CallRunningStateRinging
	CallRunningStateDialing
	CallRunningStateActive
	CallRunningStateHold
)

func (s CallRunningState) String() string {
	names := []string{"idle", "ringing", "dialing", "active", "hold"}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// RunningStateOf выводит укрупненное состояние из состояния нижнего уровня
func RunningStateOf(s TelCallState) CallRunningState {
	switch s {
	case CallStatusIncoming, CallStatusWaiting:
		return CallRunningStateRinging
	case CallStatusDialing, CallStatusAlerting:
		return CallRunningStateDialing
	case CallStatusActive:
		return CallRunningStateActive
	case CallStatusHolding:
		return CallRunningStateHold
	default:
		return CallRunningStateIdle
	}
}

// CallType тип стека, через который идет вызов
type CallType int

const (
	TypeCS CallType = iota // канальная коммутация
	TypeIMS
	TypeOTT
)

func (t CallType) String() string {
	names := []string{"cs", "ims", "ott"}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// CallDirection направление вызова
type CallDirection int

const (
	DirectionIn CallDirection = iota
	DirectionOut
)

func (d CallDirection) String() string {
	if d == DirectionOut {
		return "out"
	}
	return "in"
}

// VideoStateType режим медиа вызова
type VideoStateType int

const (
	VideoStateVoice VideoStateType = iota
	VideoStateVideo
)

// TelConferenceState состояние участия вызова в конференции
type TelConferenceState int

const (
	TelConferenceIdle TelConferenceState = iota
	TelConferenceActive
	TelConferenceHolding
	TelConferenceDisconnecting
	TelConferenceDisconnected
)

// DialType способ набора номера
type DialType int

const (
	DialCarrierType DialType = iota
	DialVoiceMailType
	DialOttType
)

// DialScene сценарий набора (обычный вызов, привилегированный, экстренный)
type DialScene int

const (
	DialSceneNormal DialScene = iota
	DialScenePrivileged
	DialSceneEmergency
)

// CallStateToApp агрегированное состояние телефонии для приложений
type CallStateToApp int

const (
	CallStateUnknown CallStateToApp = iota - 1
	CallStateIdle
	CallStateRinging
	CallStateOffhook
)

// ErrID недействительный идентификатор вызова
const ErrID = -1

// MaxNumberLen максимальная длина телефонного номера; более длинный
// ввод отклоняется, а не усекается
const MaxNumberLen = 30

// MaxBundleNameLen максимальная длина имени приложения-инициатора при
// упаковке события для передачи через границу процесса
const MaxBundleNameLen = 100

// DetailInfo отчет нижнего уровня об одном вызове
type DetailInfo struct {
	Index       int
	PhoneNum    string
	BundleName  string
	AccountID   int
	CallType    CallType
	VideoState  VideoStateType
	State       TelCallState
	VoiceDomain int
}

// DetailsInfo пакетный отчет нижнего уровня обо всех вызовах одного слота
type DetailsInfo struct {
	SlotID int
	Calls  []DetailInfo
}

// DialParaInfo параметры набора, сохраненные до подтверждения от нижнего уровня
type DialParaInfo struct {
	CallID     int
	Number     string
	Index      int
	IsDialing  bool
	IsEcc      bool
	CallType   CallType
	AccountID  int
	DialType   DialType
	VideoState VideoStateType
	BundleName string
	CallState  TelCallState
}
