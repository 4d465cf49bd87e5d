package main

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arzzra/call_manager/pkg/call"
	"github.com/arzzra/call_manager/pkg/callmanager"
)

// задержка эмулируемого радио-стека
const simulatedLatency = 10 * time.Millisecond

// simulatedCore эмулирует радио-стек: каждая команда подтверждается
// асинхронным отчетом о состоянии с небольшой задержкой
type simulatedCore struct {
	status *callmanager.StatusManager

	mu      sync.Mutex
	numbers map[int]string // callID -> номер
	types   map[int]call.CallType
	pending sync.WaitGroup
}

func newSimulatedCore() *simulatedCore {
	return &simulatedCore{
		numbers: make(map[int]string),
		types:   make(map[int]call.CallType),
	}
}

// waitIdle дожидается доставки всех запланированных отчетов
func (s *simulatedCore) waitIdle() {
	s.pending.Wait()
	// Отчеты ставятся из горутин воркера, даем им осесть
	time.Sleep(simulatedLatency)
	s.pending.Wait()
}

// report планирует асинхронный отчет о состоянии
func (s *simulatedCore) report(number string, callType call.CallType, states ...call.TelCallState) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		for _, state := range states {
			time.Sleep(simulatedLatency)
			if err := s.status.HandleCallReportInfo(call.DetailInfo{
				PhoneNum: number,
				CallType: callType,
				State:    state,
			}); err != nil {
				slog.Error("эмулятор: отчет отклонен",
					slog.String("number", number),
					slog.String("state", state.String()),
					slog.Any("error", err))
				return
			}
		}
	}()
}

// lookup возвращает номер и тип вызова, запомненные при первом отчете
func (s *simulatedCore) lookup(callID int) (string, call.CallType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	number, ok := s.numbers[callID]
	return number, s.types[callID], ok
}

// track привязывает callID к номеру; записи создает реконсилятор,
// поэтому привязка делается после появления записи в реестре
func (s *simulatedCore) track(callID int, number string, callType call.CallType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numbers[callID] = number
	s.types[callID] = callType
}

func (s *simulatedCore) Dial(para call.DialParaInfo) error {
	s.report(para.Number, para.CallType,
		call.CallStatusDialing, call.CallStatusAlerting, call.CallStatusActive)
	return nil
}

func (s *simulatedCore) Answer(callID int, videoState call.VideoStateType) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusActive)
	}
	return nil
}

func (s *simulatedCore) Reject(callID int, sendSms bool, content string) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusDisconnected)
	}
	return nil
}

func (s *simulatedCore) HangUp(callID int) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusDisconnecting, call.CallStatusDisconnected)
	}
	return nil
}

func (s *simulatedCore) Hold(callID int) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusHolding)
	}
	return nil
}

func (s *simulatedCore) UnHold(callID int) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusActive)
	}
	return nil
}

func (s *simulatedCore) SwitchCall(callID int) error { return nil }

func (s *simulatedCore) CombineConference(mainCallID int) error {
	// Нижний уровень переводит удерживаемые вызовы в активное состояние,
	// связывание завершает реконсилятор
	s.mu.Lock()
	defer s.mu.Unlock()
	for callID, number := range s.numbers {
		if callID != mainCallID {
			s.report(number, s.types[callID], call.CallStatusActive)
		}
	}
	return nil
}

func (s *simulatedCore) SeparateConference(callID int) error {
	if number, callType, ok := s.lookup(callID); ok {
		s.report(number, callType, call.CallStatusHolding)
	}
	return nil
}

func (s *simulatedCore) JoinConference(callID int, numberList []string) error { return nil }

func (s *simulatedCore) StartDtmf(callID int, digit rune) error { return nil }
func (s *simulatedCore) StopDtmf(callID int) error              { return nil }
func (s *simulatedCore) StartRtt(callID int, msg string) error  { return nil }
func (s *simulatedCore) StopRtt(callID int) error               { return nil }
func (s *simulatedCore) UpdateImsCallMode(callID int, mode callmanager.ImsCallMode) error {
	return nil
}

func (s *simulatedCore) GetCallWaiting(slotID int) error                { return nil }
func (s *simulatedCore) SetCallWaiting(slotID int, activate bool) error { return nil }
func (s *simulatedCore) GetCallRestriction(slotID int, restrictionType callmanager.CallRestrictionType) error {
	return nil
}
func (s *simulatedCore) SetCallRestriction(slotID int, info callmanager.CallRestrictionInfo) error {
	return nil
}
func (s *simulatedCore) GetCallTransferInfo(slotID int, transferType callmanager.CallTransferType) error {
	return nil
}
func (s *simulatedCore) SetCallTransferInfo(slotID int, info callmanager.CallTransferInfo) error {
	return nil
}
func (s *simulatedCore) GetImsConfig(slotID int, item callmanager.ImsConfigItem) error { return nil }
func (s *simulatedCore) SetImsConfig(slotID int, item callmanager.ImsConfigItem, value string) error {
	return nil
}
func (s *simulatedCore) GetImsFeatureValue(slotID int, featureType callmanager.FeatureType) error {
	return nil
}
func (s *simulatedCore) SetImsFeatureValue(slotID int, featureType callmanager.FeatureType, value int) error {
	return nil
}
func (s *simulatedCore) EnableImsSwitch(slotID int) error           { return nil }
func (s *simulatedCore) DisableImsSwitch(slotID int) error          { return nil }
func (s *simulatedCore) IsImsSwitchEnabled(slotID int) error        { return nil }
func (s *simulatedCore) SetLteEnhanceMode(slotID int, v bool) error { return nil }
func (s *simulatedCore) GetLteEnhanceMode(slotID int) error         { return nil }
