package callmanager

// RequestResultEventID результат запроса, сообщаемый сотовым стеком
type RequestResultEventID int

const (
	ResultDialNoCarrier RequestResultEventID = iota
	ResultDialSendFailed
	ResultHoldFailed
)

// CellularCallEventType тип события сотового стека
type CellularCallEventType int

const (
	EventRequestResultType CellularCallEventType = iota
)

// CellularCallEventInfo событие сотового стека
type CellularCallEventInfo struct {
	EventType CellularCallEventType
	EventID   RequestResultEventID
}

// OttCallEventID событие OTT-приложения
type OttCallEventID int

const (
	OttCallEventFunctionUnsupported OttCallEventID = iota
)

// OttCallEventInfo событие OTT-приложения
type OttCallEventInfo struct {
	OttCallEventID OttCallEventID
	BundleName     string
}

// CallAbilityEventID событие, видимое прикладному уровню
type CallAbilityEventID int

const (
	EventUnknown CallAbilityEventID = iota
	EventDialNoCarrier
	EventOttFunctionUnsupported
)

func (e CallAbilityEventID) String() string {
	names := []string{"unknown", "dial_no_carrier", "ott_function_unsupported"}
	if int(e) < len(names) {
		return names[e]
	}
	return "unknown"
}

// CallEventInfo событие вызова для рассылки наблюдателям
type CallEventInfo struct {
	EventID    CallAbilityEventID
	PhoneNum   string
	BundleName string
}
