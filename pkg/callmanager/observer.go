package callmanager

import (
	"log/slog"
	"sync"

	"github.com/arzzra/call_manager/pkg/call"
)

// CallStateListener рассылает события вызовов упорядоченному списку
// наблюдателей. Порядок регистрации совпадает с порядком доставки и
// значим: поздние наблюдатели (журнал вызовов) полагаются на то, что
// ранние (аудио) уже отреагировали.
//
// Паника или сбой одного наблюдателя изолируется: он логируется и
// пропускается, рассылка остальным продолжается.
type CallStateListener struct {
	observers []CallStateObserver
	mu        sync.RWMutex
}

// NewCallStateListener создает рассылку без наблюдателей
func NewCallStateListener() *CallStateListener {
	return &CallStateListener{}
}

// AddOneObserver регистрирует наблюдателя в конец списка
func (l *CallStateListener) AddOneObserver(observer CallStateObserver) {
	if observer == nil {
		slog.Error("попытка зарегистрировать nil-наблюдателя")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, observer)
}

// ObserverCount возвращает количество зарегистрированных наблюдателей
func (l *CallStateListener) ObserverCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.observers)
}

// snapshot возвращает копию списка, чтобы не держать мьютекс на время
// вызова наблюдателей
func (l *CallStateListener) snapshot() []CallStateObserver {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]CallStateObserver, len(l.observers))
	copy(out, l.observers)
	return out
}

// deliver вызывает fn для каждого наблюдателя, изолируя паники
func (l *CallStateListener) deliver(event string, fn func(CallStateObserver)) {
	for i, observer := range l.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("наблюдатель аварийно завершился, пропускаем",
						slog.String("event", event),
						slog.Int("observer", i),
						slog.Any("panic", r))
				}
			}()
			fn(observer)
		}()
	}
}

// NewCallCreated рассылает событие создания вызова
func (l *CallStateListener) NewCallCreated(c *call.Call) {
	l.deliver("new_call_created", func(o CallStateObserver) {
		o.NewCallCreated(c)
	})
}

// CallDestroyed рассылает событие уничтожения вызова с кодом причины
func (l *CallStateListener) CallDestroyed(cause int32) {
	l.deliver("call_destroyed", func(o CallStateObserver) {
		o.CallDestroyed(cause)
	})
}

// CallStateUpdated рассылает смену состояния вызова
func (l *CallStateListener) CallStateUpdated(c *call.Call, prior, next call.TelCallState) {
	l.deliver("call_state_updated", func(o CallStateObserver) {
		o.CallStateUpdated(c, prior, next)
	})
}

// IncomingCallActivated рассылает ответ на входящий вызов
func (l *CallStateListener) IncomingCallActivated(c *call.Call) {
	l.deliver("incoming_call_activated", func(o CallStateObserver) {
		o.IncomingCallActivated(c)
	})
}

// IncomingCallHungUp рассылает отклонение входящего вызова
func (l *CallStateListener) IncomingCallHungUp(c *call.Call, sendSms bool, content string) {
	l.deliver("incoming_call_hung_up", func(o CallStateObserver) {
		o.IncomingCallHungUp(c, sendSms, content)
	})
}

// CallEventUpdated рассылает событие вызова
func (l *CallStateListener) CallEventUpdated(info CallEventInfo) {
	l.deliver("call_event_updated", func(o CallStateObserver) {
		o.CallEventUpdated(info)
	})
}
