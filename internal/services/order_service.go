package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agamariel/cafetrack/internal/analytics"
	"github.com/agamariel/cafetrack/internal/events"
	"github.com/agamariel/cafetrack/internal/lifecycle"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/agamariel/cafetrack/internal/storage"
)

// OrderService определяет интерфейс работы с заказами.
type OrderService interface {
	Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	CreateWithin(ctx context.Context, req models.CreateOrderRequest, maxActive int) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	Advance(ctx context.Context, id int64) (*models.Order, error)
	MarkPaid(ctx context.Context, id int64) (*models.Order, error)
	Rename(ctx context.Context, id int64, name string) (*models.Order, error)
	SetCategory(ctx context.Context, id int64, category string) (*models.Order, error)
	AddComment(ctx context.Context, id int64, text string) (*models.Order, error)
	Cancel(ctx context.Context, id int64) error
	Active(ctx context.Context, location string) []*models.Order
	History(ctx context.Context, location string, class models.CategoryClass) []*models.Order
	CountActive(ctx context.Context, location string) int
	Summarize(ctx context.Context, f analytics.Filter) (*analytics.Stats, error)
	Import(ctx context.Context, records []models.Record) (*models.ImportResponse, error)
	Load(ctx context.Context) error
	DefaultLocation() string
}

// OrderServiceImpl реализует OrderService. Источник истины - OrderStore в памяти:
// операция сначала применяется к нему, затем запись уходит в Syncer.
type OrderServiceImpl struct {
	store           *storage.OrderStore
	durable         storage.OrderStorage
	syncer          Syncer
	defaultLocation string
	logger          *slog.Logger
	now             func() time.Time
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(store *storage.OrderStore, durable storage.OrderStorage, syncer Syncer, defaultLocation string, logger *slog.Logger) *OrderServiceImpl {
	if defaultLocation == "" {
		defaultLocation = models.DefaultLocation
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderServiceImpl{
		store:           store,
		durable:         durable,
		syncer:          syncer,
		defaultLocation: defaultLocation,
		logger:          logger,
		now:             time.Now,
	}
}

// Create регистрирует вход гостя.
func (s *OrderServiceImpl) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	return s.CreateWithin(ctx, req, 0)
}

// CreateWithin регистрирует вход гостя, если на точке меньше maxActive незавершённых заказов.
// Иначе возвращает storage.ErrActiveLimit. maxActive <= 0 не ограничивает.
func (s *OrderServiceImpl) CreateWithin(ctx context.Context, req models.CreateOrderRequest, maxActive int) (*models.Order, error) {
	category := models.DefaultCategory
	if req.Category != "" {
		c, ok := models.ParseCategory(req.Category)
		if !ok {
			return nil, fmt.Errorf("%w %q", lifecycle.ErrUnknownCategory, req.Category)
		}
		category = c
	}
	location := req.Location
	if location == "" {
		location = s.defaultLocation
	}

	now := s.now()
	order, err := s.store.CreateWithin(maxActive, func(id int64) *models.Order {
		return lifecycle.New(id, location, category, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", slog.Int64("order_id", order.ID), slog.String("location", order.Location))
	s.sync(SyncUpsert, events.TypeCreated, order)
	return order, nil
}

// Get возвращает заказ по id.
func (s *OrderServiceImpl) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.Get(id)
}

// Advance переводит заказ на следующий шаг.
func (s *OrderServiceImpl) Advance(ctx context.Context, id int64) (*models.Order, error) {
	now := s.now()
	return s.update(id, events.TypeAdvanced, func(o *models.Order) error {
		return lifecycle.Advance(o, now)
	})
}

// MarkPaid фиксирует оплату без смены статуса.
func (s *OrderServiceImpl) MarkPaid(ctx context.Context, id int64) (*models.Order, error) {
	now := s.now()
	return s.update(id, events.TypePaid, func(o *models.Order) error {
		return lifecycle.MarkPaid(o, now)
	})
}

// Rename меняет имя заказа.
func (s *OrderServiceImpl) Rename(ctx context.Context, id int64, name string) (*models.Order, error) {
	return s.update(id, events.TypeRenamed, func(o *models.Order) error {
		lifecycle.Rename(o, name)
		return nil
	})
}

// SetCategory меняет категорию заказа в очереди.
func (s *OrderServiceImpl) SetCategory(ctx context.Context, id int64, category string) (*models.Order, error) {
	return s.update(id, events.TypeCategoryChanged, func(o *models.Order) error {
		return lifecycle.SetCategory(o, category)
	})
}

// AddComment добавляет комментарий.
func (s *OrderServiceImpl) AddComment(ctx context.Context, id int64, text string) (*models.Order, error) {
	now := s.now()
	return s.update(id, events.TypeCommented, func(o *models.Order) error {
		return lifecycle.AddComment(o, text, now)
	})
}

// Cancel удаляет заказ из очереди. Подтверждение запрашивается на уровне выше.
func (s *OrderServiceImpl) Cancel(ctx context.Context, id int64) error {
	removed, err := s.store.Remove(id, lifecycle.CanCancel)
	if err != nil {
		return err
	}
	s.logger.Info("order cancelled", slog.Int64("order_id", id))
	s.sync(SyncDelete, events.TypeCancelled, removed)
	return nil
}

// Active возвращает незавершённые заказы точки.
func (s *OrderServiceImpl) Active(ctx context.Context, location string) []*models.Order {
	return lifecycle.ActiveView(s.store.Snapshot(), location)
}

// History возвращает завершённые заказы точки.
func (s *OrderServiceImpl) History(ctx context.Context, location string, class models.CategoryClass) []*models.Order {
	return lifecycle.HistoryView(s.store.Snapshot(), location, class)
}

// CountActive возвращает число незавершённых заказов точки.
func (s *OrderServiceImpl) CountActive(ctx context.Context, location string) int {
	if location == "" {
		location = s.defaultLocation
	}
	return s.store.CountActive(location)
}

// Summarize считает статистику по снимку коллекции.
func (s *OrderServiceImpl) Summarize(ctx context.Context, f analytics.Filter) (*analytics.Stats, error) {
	if f.DefaultLocation == "" {
		f.DefaultLocation = s.defaultLocation
	}
	return analytics.Summarize(s.store.Snapshot(), f)
}

// Import добавляет записи в старом формате. Невалидные записи и занятые id пропускаются.
func (s *OrderServiceImpl) Import(ctx context.Context, records []models.Record) (*models.ImportResponse, error) {
	resp := &models.ImportResponse{}
	imported := make([]*models.Order, 0, len(records))

	for _, rec := range records {
		order, err := rec.Order(s.defaultLocation)
		if err != nil {
			s.logger.Warn("import record skipped", slog.Int64("order_id", rec.ID), slog.Any("err", err))
			resp.Skipped++
			continue
		}
		if err := s.store.Insert(order); err != nil {
			if !errors.Is(err, storage.ErrOrderAlreadyExists) {
				return nil, err
			}
			resp.Skipped++
			continue
		}
		imported = append(imported, order)
	}

	resp.Imported = len(imported)
	if len(imported) > 0 {
		s.syncBatch(events.TypeImported, imported)
	}
	s.logger.Info("orders imported", slog.Int("imported", resp.Imported), slog.Int("skipped", resp.Skipped))
	return resp, nil
}

// Load заполняет коллекцию из постоянного хранилища. Вызывается при старте.
func (s *OrderServiceImpl) Load(ctx context.Context) error {
	if s.durable == nil {
		return nil
	}
	orders, err := s.durable.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	for _, o := range orders {
		if o.Location == "" {
			o.Location = s.defaultLocation
		}
		s.store.Put(o)
	}
	s.logger.Info("orders loaded", slog.Int("count", len(orders)))
	return nil
}

// DefaultLocation возвращает точку, которая подставляется запросам без локации.
func (s *OrderServiceImpl) DefaultLocation() string {
	return s.defaultLocation
}

func (s *OrderServiceImpl) update(id int64, event events.Type, mutate func(o *models.Order) error) (*models.Order, error) {
	order, err := s.store.Update(id, mutate)
	if err != nil {
		return nil, err
	}
	s.sync(SyncUpsert, event, order)
	return order, nil
}

func (s *OrderServiceImpl) sync(op SyncOp, event events.Type, order *models.Order) {
	if s.syncer == nil {
		return
	}
	s.syncer.Enqueue(SyncTask{Op: op, Orders: []*models.Order{order}, Event: event})
}

func (s *OrderServiceImpl) syncBatch(event events.Type, orders []*models.Order) {
	if s.syncer == nil {
		return
	}
	s.syncer.Enqueue(SyncTask{Op: SyncBatch, Orders: orders, Event: event})
}
