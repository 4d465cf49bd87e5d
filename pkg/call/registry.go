package call

import (
	"sort"
	"sync"
)

// Registry владеет множеством живых записей вызовов.
//
// Все мутации и чтения для политик проходят через один мьютекс.
// Компонентам запрещено удерживать ссылку на запись через вызов,
// который может повторно войти в реестр.
type Registry struct {
	// Хранилище записей по callId
	calls map[int]*Call

	// Индекс по номеру для быстрого поиска
	numberIndex map[string]int // phoneNumber -> callId

	// Мьютекс для синхронизации
	mu sync.RWMutex
}

// Предел одновременных вызовов в реестре
const maxCallCount = 6

// NewRegistry создает новый реестр вызовов
func NewRegistry() *Registry {
	return &Registry{
		calls:       make(map[int]*Call),
		numberIndex: make(map[string]int),
	}
}

// Insert добавляет запись в реестр
func (r *Registry) Insert(c *Call) error {
	if c == nil {
		return NewDependencyError("попытка вставить nil-запись в реестр")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.calls[c.CallID()]; exists {
		return NewValidationError(CodeInvalidCallID,
			"вызов с id %d уже есть в реестре", c.CallID()).WithCallID(c.CallID())
	}
	r.calls[c.CallID()] = c
	r.numberIndex[c.PhoneNumber()] = c.CallID()
	return nil
}

// Remove удаляет запись из реестра по callId
func (r *Registry) Remove(callID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, exists := r.calls[callID]
	if !exists {
		return NewNotFoundError(CodeInvalidCallID,
			"вызов %d не найден в реестре", callID).WithCallID(callID)
	}
	delete(r.calls, callID)
	if id, ok := r.numberIndex[c.PhoneNumber()]; ok && id == callID {
		delete(r.numberIndex, c.PhoneNumber())
	}
	return nil
}

// Get возвращает запись по callId
func (r *Registry) Get(callID int) (*Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[callID]
	return c, ok
}

// GetByNumber возвращает запись по номеру телефона
func (r *Registry) GetByNumber(number string) (*Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.numberIndex[number]
	if !ok {
		return nil, false
	}
	c, ok := r.calls[id]
	return c, ok
}

// Exists проверяет наличие вызова указанного типа в указанном состоянии
func (r *Registry) Exists(callType CallType, state TelCallState) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.calls {
		if c.CallType() == callType && c.TelCallState() == state {
			return true
		}
	}
	return false
}

// List возвращает записи, удовлетворяющие предикату, в порядке callId
func (r *Registry) List(pred func(*Call) bool) []*Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Call
	for _, c := range r.calls {
		if pred == nil || pred(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallID() < out[j].CallID() })
	return out
}

// GetByRunningState возвращает первый вызов в указанном укрупненном состоянии
func (r *Registry) GetByRunningState(state CallRunningState) (*Call, bool) {
	calls := r.List(func(c *Call) bool { return c.RunningState() == state })
	if len(calls) == 0 {
		return nil, false
	}
	return calls[0], true
}

// Count возвращает количество живых записей
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

// HasCall возвращает true, если в реестре есть хотя бы один вызов
func (r *Registry) HasCall() bool {
	return r.Count() > 0
}

// HasRingingCall возвращает true, если есть звонящий вызов
func (r *Registry) HasRingingCall() bool {
	_, ok := r.GetByRunningState(CallRunningStateRinging)
	return ok
}

// HasEmergencyCall возвращает true, если есть живой экстренный вызов
func (r *Registry) HasEmergencyCall() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.calls {
		if c.IsEmergency() && c.IsAliveState() {
			return true
		}
	}
	return false
}

// IsNewCallAllowed решает, допустим ли сейчас новый вызов: реестр не
// переполнен и нет вызова в переходном состоянии
func (r *Registry) IsNewCallAllowed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.calls) >= maxCallCount {
		return false
	}
	for _, c := range r.calls {
		switch c.TelCallState() {
		case CallStatusDialing, CallStatusAlerting, CallStatusDisconnecting:
			return false
		}
	}
	return true
}
