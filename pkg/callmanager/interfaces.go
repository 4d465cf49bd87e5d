package callmanager

import (
	"github.com/arzzra/call_manager/pkg/call"
)

// CoreService интерфейс нижнего уровня (радио/IMS/OTT стек).
// Все методы запускаются из воркера запросов, подтверждение приходит
// позже асинхронным отчетом через StatusManager. Потерю соединения с
// нижним уровнем обрабатывает транспортный коллаборатор; здесь каждая
// команда может вернуть ошибку класса DEPENDENCY.
type CoreService interface {
	Dial(para call.DialParaInfo) error
	Answer(callID int, videoState call.VideoStateType) error
	Reject(callID int, sendSms bool, content string) error
	HangUp(callID int) error
	Hold(callID int) error
	UnHold(callID int) error
	SwitchCall(callID int) error
	CombineConference(mainCallID int) error
	SeparateConference(callID int) error
	JoinConference(callID int, numberList []string) error
	StartDtmf(callID int, digit rune) error
	StopDtmf(callID int) error
	StartRtt(callID int, msg string) error
	StopRtt(callID int) error
	UpdateImsCallMode(callID int, mode ImsCallMode) error

	// Настройки на уровне слота
	GetCallWaiting(slotID int) error
	SetCallWaiting(slotID int, activate bool) error
	GetCallRestriction(slotID int, restrictionType CallRestrictionType) error
	SetCallRestriction(slotID int, info CallRestrictionInfo) error
	GetCallTransferInfo(slotID int, transferType CallTransferType) error
	SetCallTransferInfo(slotID int, info CallTransferInfo) error
	GetImsConfig(slotID int, item ImsConfigItem) error
	SetImsConfig(slotID int, item ImsConfigItem, value string) error
	GetImsFeatureValue(slotID int, featureType FeatureType) error
	SetImsFeatureValue(slotID int, featureType FeatureType, value int) error
	EnableImsSwitch(slotID int) error
	DisableImsSwitch(slotID int) error
	IsImsSwitchEnabled(slotID int) error
	SetLteEnhanceMode(slotID int, value bool) error
	GetLteEnhanceMode(slotID int) error
}

// AudioController интерфейс аудио-коллаборатора. Машина маршрутизации
// звука живет вне плоскости управления, сюда приходят только команды
// побочных эффектов от обработчиков состояний.
type AudioController interface {
	SetVolumeAudible()
	SetMute(mute bool) error
	MuteRinger() error
	SetAudioDevice(device AudioDevice) error
}

// AudioDevice устройство вывода звука
type AudioDevice int

const (
	DeviceEarpiece AudioDevice = iota
	DeviceSpeaker
	DeviceWiredHeadset
	DeviceBluetoothSco
)

// ImsCallMode режим медиа IMS-вызова
type ImsCallMode int

const (
	ImsCallModeAudioOnly ImsCallMode = iota
	ImsCallModeSendOnly
	ImsCallModeReceiveOnly
	ImsCallModeSendReceive
	ImsCallModeVideoPaused
)

// CallRestrictionType тип запрета вызовов
type CallRestrictionType int

const (
	RestrictionAllIncoming CallRestrictionType = iota
	RestrictionAllOutgoing
	RestrictionInternational
	RestrictionRoamingIncoming
)

// CallRestrictionInfo параметры запрета вызовов
type CallRestrictionInfo struct {
	RestrictionType CallRestrictionType
	Password        string
	Activate        bool
}

// CallTransferType условие переадресации
type CallTransferType int

const (
	TransferUnconditional CallTransferType = iota
	TransferBusy
	TransferNoReply
	TransferNotReachable
)

// CallTransferInfo параметры переадресации
type CallTransferInfo struct {
	TransferType CallTransferType
	TransferNum  string
	Enable       bool
}

// ImsConfigItem настраиваемый параметр IMS
type ImsConfigItem int

const (
	ImsConfigVideoQuality ImsConfigItem = iota
	ImsConfigLtePreference
)

// FeatureType переключаемая возможность IMS
type FeatureType int

const (
	FeatureVoice FeatureType = iota
	FeatureVideo
	FeatureSs
)

// CallStateObserver интерфейс внешнего коллаборатора, получающего
// уведомления о событиях вызовов. Порядок доставки фиксирован порядком
// регистрации в CallStateListener.
type CallStateObserver interface {
	NewCallCreated(c *call.Call)
	CallDestroyed(cause int32)
	CallStateUpdated(c *call.Call, prior, next call.TelCallState)
	IncomingCallActivated(c *call.Call)
	IncomingCallHungUp(c *call.Call, sendSms bool, content string)
	CallEventUpdated(info CallEventInfo)
}
