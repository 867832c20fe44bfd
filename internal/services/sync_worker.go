package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agamariel/cafetrack/internal/events"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrSyncQueueFull - очередь записи переполнена, задача отброшена.
	ErrSyncQueueFull = errors.New("sync queue is full")
	// ErrSyncStopped - воркер уже остановлен, задача не будет записана.
	ErrSyncStopped = errors.New("sync worker is stopped")
)

const (
	defaultSyncRetries = 3
	defaultSyncBackoff = 200 * time.Millisecond
	drainTimeout       = 5 * time.Second
)

// SyncWorker в фоне переносит изменения из памяти в постоянное хранилище
// и после успешной записи публикует события. Откатов нет: при ошибке
// состояние в памяти остаётся как есть, ошибка уходит в лог и в OnFailure.
type SyncWorker struct {
	storage   storage.OrderStorage
	publisher events.Publisher
	tasks     chan SyncTask
	done      chan struct{}
	retries   uint64
	backoff   time.Duration
	logger    *slog.Logger
	now       func() time.Time
	onFailure func(task SyncTask, err error)

	mu      sync.RWMutex
	stopped bool
}

func NewSyncWorker(orderStorage storage.OrderStorage, publisher events.Publisher, buffer int, logger *slog.Logger) *SyncWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{
		storage:   orderStorage,
		publisher: publisher,
		tasks:     make(chan SyncTask, buffer),
		done:      make(chan struct{}),
		retries:   defaultSyncRetries,
		backoff:   defaultSyncBackoff,
		logger:    logger,
		now:       time.Now,
	}
}

// OnFailure задаёт обработчик неудачной записи.
func (w *SyncWorker) OnFailure(fn func(task SyncTask, err error)) {
	w.onFailure = fn
}

// Enqueue ставит задачу в очередь без ожидания. После остановки воркера
// задачи не принимаются и уходят в OnFailure.
func (w *SyncWorker) Enqueue(task SyncTask) bool {
	if err := w.offer(task); err != nil {
		w.fail(task, err)
		return false
	}
	return true
}

func (w *SyncWorker) offer(task SyncTask) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrSyncStopped
	}
	select {
	case w.tasks <- task:
		return nil
	default:
		return ErrSyncQueueFull
	}
}

// Start запускает воркер в отдельной горутине. ctx только останавливает цикл:
// начатая запись доводится до конца, оставшиеся задачи дописываются
// с ограничением по времени, после чего закрывается Done().
func (w *SyncWorker) Start(ctx context.Context) {
	writeCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				w.stop()
				w.drain()
				return
			case task := <-w.tasks:
				w.handle(writeCtx, task)
			}
		}
	}()
}

// Done закрывается после остановки воркера.
func (w *SyncWorker) Done() <-chan struct{} {
	return w.done
}

// stop закрывает приём задач. Всё, что попало в очередь до этого, дописывает drain.
func (w *SyncWorker) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

func (w *SyncWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case task := <-w.tasks:
			w.handle(ctx, task)
		default:
			return
		}
	}
}

func (w *SyncWorker) handle(ctx context.Context, task SyncTask) {
	if err := w.process(ctx, task); err != nil {
		w.fail(task, err)
		return
	}
	w.publish(ctx, task)
}

func (w *SyncWorker) process(ctx context.Context, task SyncTask) error {
	if len(task.Orders) == 0 {
		return nil
	}

	b := retry.WithMaxRetries(w.retries, retry.NewExponential(w.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := w.write(ctx, task)
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (w *SyncWorker) write(ctx context.Context, task SyncTask) error {
	switch task.Op {
	case SyncUpsert:
		return w.storage.Save(ctx, task.Orders[0])
	case SyncBatch:
		return w.storage.SaveBatch(ctx, task.Orders)
	case SyncDelete:
		err := w.storage.Delete(ctx, task.Orders[0].ID)
		// заказ мог так и не дойти до хранилища
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown sync op %q", task.Op)
}

func (w *SyncWorker) publish(ctx context.Context, task SyncTask) {
	if task.Event == "" {
		return
	}
	at := w.now()
	evs := make([]events.Event, 0, len(task.Orders))
	for _, o := range task.Orders {
		evs = append(evs, events.NewEvent(task.Event, o, at))
	}
	if err := w.publisher.Publish(ctx, evs...); err != nil {
		w.logger.Warn("event publish failed", slog.String("type", string(task.Event)), slog.Any("err", err))
	}
}

func (w *SyncWorker) fail(task SyncTask, err error) {
	attrs := []any{slog.String("op", string(task.Op)), slog.Any("err", err)}
	if len(task.Orders) == 1 {
		attrs = append(attrs, slog.Int64("order_id", task.Orders[0].ID))
	} else {
		attrs = append(attrs, slog.Int("orders", len(task.Orders)))
	}
	w.logger.Error("order sync failed", attrs...)

	if w.onFailure != nil {
		w.onFailure(task, err)
	}
}
