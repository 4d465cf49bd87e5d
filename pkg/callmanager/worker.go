package callmanager

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/arzzra/call_manager/pkg/call"
)

// request одна принятая команда, ожидающая отправки нижнему уровню
type request struct {
	id string // trace id для сопоставления логов
	op string
	fn func() error
}

// RequestWorker пересылает принятые команды нижнему уровню на отдельной
// горутине, чтобы прием команды не блокировался на I/O нижнего уровня.
//
// Повторов нет: неудачная пересылка логируется один раз и теряется,
// вызывающая сторона уже получила подтверждение приема. Отмены
// выполняющегося запроса тоже нет; "stop"-операции это новые команды.
type RequestWorker struct {
	queue  chan request
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// Размер очереди воркера; при переполнении команда отклоняется сразу,
// а не блокирует вызывающего
const requestQueueSize = 64

// NewRequestWorker создает воркер с пустой очередью
func NewRequestWorker() *RequestWorker {
	return &RequestWorker{
		queue: make(chan request, requestQueueSize),
	}
}

// Start запускает горутину обработки очереди
func (w *RequestWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.started = true
	w.wg.Add(1)
	go w.serve(ctx)
}

// Stop останавливает воркер и дожидается завершения горутины.
// Оставшиеся в очереди запросы не пересылаются.
func (w *RequestWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// Submit ставит команду в очередь на пересылку. Возвращает ошибку сразу,
// если воркер не запущен или очередь переполнена.
func (w *RequestWorker) Submit(op string, fn func() error) error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return call.NewDependencyError("воркер запросов не запущен")
	}
	req := request{id: uuid.NewString(), op: op, fn: fn}
	select {
	case w.queue <- req:
		slog.Debug("команда принята в очередь",
			slog.String("op", op),
			slog.String("request_id", req.id))
		return nil
	default:
		return call.NewDependencyError("очередь команд переполнена, операция %s отклонена", op)
	}
}

// serve цикл обработки очереди
func (w *RequestWorker) serve(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.queue:
			if err := req.fn(); err != nil {
				// Один отчет об ошибке, без повторов
				slog.Error("пересылка команды нижнему уровню не удалась",
					slog.String("op", req.op),
					slog.String("request_id", req.id),
					slog.Any("error", err))
			}
		}
	}
}
