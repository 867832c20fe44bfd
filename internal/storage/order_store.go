package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/agamariel/cafetrack/internal/lifecycle"
	"github.com/agamariel/cafetrack/internal/models"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order already exists")
	ErrActiveLimit        = errors.New("active order limit reached")
)

// OrderStore - рабочая коллекция заказов в памяти. Все изменения применяются здесь
// сразу, запись в постоянное хранилище идёт следом и асинхронно.
// Наружу отдаются только копии.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[int64]*models.Order
}

// NewOrderStore создаёт хранилище, заполненное переданными заказами.
func NewOrderStore(orders ...*models.Order) *OrderStore {
	s := &OrderStore{orders: make(map[int64]*models.Order, len(orders))}
	for _, o := range orders {
		s.orders[o.ID] = o.Clone()
	}
	return s
}

// Create выделяет следующий id и сохраняет заказ, построенный build.
func (s *OrderStore) Create(build func(id int64) *models.Order) *models.Order {
	o, _ := s.CreateWithin(0, build)
	return o
}

// CreateWithin работает как Create, но сохраняет заказ, только пока на его точке
// меньше limit незавершённых заказов. Подсчёт и вставка идут под одной блокировкой.
// limit <= 0 не ограничивает.
func (s *OrderStore) CreateWithin(limit int, build func(id int64) *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.listLocked()
	o := build(lifecycle.NextID(list))
	if limit > 0 && lifecycle.CountActive(list, o.Location) >= limit {
		return nil, ErrActiveLimit
	}
	s.orders[o.ID] = o
	return o.Clone(), nil
}

// Put вставляет или заменяет заказ целиком.
func (s *OrderStore) Put(o *models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// Insert добавляет заказ, если id ещё свободен.
func (s *OrderStore) Insert(o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return ErrOrderAlreadyExists
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

// Get возвращает копию заказа.
func (s *OrderStore) Get(id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Update применяет mutate к копии заказа и сохраняет её, только если mutate не вернул ошибку.
// Так отклонённая операция никогда не меняет заказ.
func (s *OrderStore) Update(id int64, mutate func(o *models.Order) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.orders[id] = next
	return next.Clone(), nil
}

// Remove удаляет заказ, если guard разрешает.
func (s *OrderStore) Remove(id int64, guard func(o *models.Order) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if guard != nil {
		if err := guard(o); err != nil {
			return nil, err
		}
	}
	delete(s.orders, id)
	return o.Clone(), nil
}

// Snapshot возвращает копии всех заказов, упорядоченные по id.
func (s *OrderStore) Snapshot() []*models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.listLocked()
	out := make([]*models.Order, len(list))
	for i, o := range list {
		out[i] = o.Clone()
	}
	return out
}

// CountActive возвращает число незавершённых заказов точки.
func (s *OrderStore) CountActive(location string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lifecycle.CountActive(s.listLocked(), location)
}

// Len возвращает размер коллекции.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *OrderStore) listLocked() []*models.Order {
	list := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
