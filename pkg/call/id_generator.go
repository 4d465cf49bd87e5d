package call

import "sync/atomic"

// IDAllocator выдает уникальные в рамках процесса идентификаторы вызовов.
// Счетчик монотонный, поэтому id никогда не переиспользуется, пока на него
// ссылается какая-либо запись как на главный или подчиненный вызов.
type IDAllocator struct {
	next int64
}

// NewIDAllocator создает новый генератор идентификаторов
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next возвращает следующий идентификатор, начиная с 1
func (a *IDAllocator) Next() int {
	return int(atomic.AddInt64(&a.next, 1))
}
