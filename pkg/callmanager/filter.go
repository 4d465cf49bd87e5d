package callmanager

import (
	"log/slog"
	"sync"

	"github.com/arzzra/call_manager/pkg/call"
)

// FilterResult итог классификации входящего номера
type FilterResult int

const (
	// Пропустить: создать запись и звонить
	FilterAllow FilterResult = iota
	// Заблокировать: запись не создается
	FilterBlock
	// Решение отложено: запись будет создана после разрешения фильтра
	FilterPending
)

// FilterDataProvider внешний источник списков фильтрации (база контактов,
// антиспам). Может классифицировать асинхронно, вернув FilterPending.
type FilterDataProvider interface {
	LoadBlocked() []string
	Classify(number string) FilterResult
}

// IncomingFilterManager классифицирует входящие CS/IMS вызовы по
// черному списку до создания записи. Данные загружаются лениво при
// первом входящем.
type IncomingFilterManager struct {
	provider FilterDataProvider

	mu        sync.Mutex
	loaded    bool
	blocklist map[string]bool
	pending   map[string]call.DetailInfo

	// Обработчик отложенного создания записи
	completeHandler func(info call.DetailInfo)
}

// NewIncomingFilterManager создает фильтр. provider может быть nil,
// тогда черный список пуст и все вызовы пропускаются.
func NewIncomingFilterManager(provider FilterDataProvider) *IncomingFilterManager {
	return &IncomingFilterManager{
		provider:  provider,
		blocklist: make(map[string]bool),
		pending:   make(map[string]call.DetailInfo),
	}
}

// SetCompleteHandler устанавливает обработчик, вызываемый когда
// отложенная классификация разрешилась в пользу вызова
func (f *IncomingFilterManager) SetCompleteHandler(handler func(info call.DetailInfo)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeHandler = handler
}

// IsFirstIncoming возвращает true, пока данные фильтра не загружены
func (f *IncomingFilterManager) IsFirstIncoming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loaded
}

// UpdateIncomingFilterData загружает списки фильтрации
func (f *IncomingFilterManager) UpdateIncomingFilterData() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocklist = make(map[string]bool)
	if f.provider != nil {
		for _, number := range f.provider.LoadBlocked() {
			f.blocklist[number] = true
		}
	}
	f.loaded = true
	slog.Debug("данные входящего фильтра загружены",
		slog.Int("blocked", len(f.blocklist)))
}

// DoIncomingFilter классифицирует входящий вызов. FilterPending
// означает, что запись создавать рано: фильтр сам дернет обработчик
// завершения, когда классификация разрешится.
func (f *IncomingFilterManager) DoIncomingFilter(info call.DetailInfo) (FilterResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocklist[info.PhoneNum] {
		slog.Info("входящий вызов заблокирован фильтром",
			slog.String("number", info.PhoneNum))
		return FilterBlock, call.NewPolicyError(call.CodeStateMismatch,
			"номер %s в черном списке", info.PhoneNum)
	}
	if f.provider != nil {
		if result := f.provider.Classify(info.PhoneNum); result != FilterAllow {
			if result == FilterPending {
				f.pending[info.PhoneNum] = info
				return FilterPending, nil
			}
			return FilterBlock, call.NewPolicyError(call.CodeStateMismatch,
				"номер %s отклонен классификатором", info.PhoneNum)
		}
	}
	return FilterAllow, nil
}

// CompleteFilter разрешает отложенную классификацию. При allowed
// вызывается обработчик завершения с сохраненным отчетом.
func (f *IncomingFilterManager) CompleteFilter(number string, allowed bool) {
	f.mu.Lock()
	info, ok := f.pending[number]
	delete(f.pending, number)
	handler := f.completeHandler
	f.mu.Unlock()

	if !ok {
		slog.Warn("разрешение фильтра для неизвестного номера",
			slog.String("number", number))
		return
	}
	if !allowed {
		slog.Info("отложенная классификация отклонила вызов",
			slog.String("number", number))
		return
	}
	if handler != nil {
		handler(info)
	}
}

// FilterResultsDispose завершает обработку результатов фильтра после
// создания записи
func (f *IncomingFilterManager) FilterResultsDispose(c *call.Call) error {
	if c == nil {
		return call.NewDependencyError("нет записи для завершения фильтрации")
	}
	slog.Debug("результаты фильтра обработаны",
		slog.Int("call_id", c.CallID()),
		slog.String("number", c.PhoneNumber()))
	return nil
}
