// Package events публикует события жизненного цикла заказа во внешний брокер.
// События отправляются только после успешной записи в постоянное хранилище.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/google/uuid"
)

// Type - тип события.
type Type string

const (
	TypeCreated         Type = "order.created"
	TypeAdvanced        Type = "order.advanced"
	TypePaid            Type = "order.paid"
	TypeRenamed         Type = "order.renamed"
	TypeCategoryChanged Type = "order.category_changed"
	TypeCommented       Type = "order.commented"
	TypeCancelled       Type = "order.cancelled"
	TypeImported        Type = "order.imported"
)

// Event - сообщение о смене состояния заказа.
type Event struct {
	ID         uuid.UUID     `json:"event_id"`
	Type       Type          `json:"type"`
	OrderID    int64         `json:"order_id"`
	Location   string        `json:"location"`
	Status     models.Status `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
	// Order - снимок заказа в формате хранения.
	Order *models.Record `json:"order,omitempty"`
}

// NewEvent строит событие по снимку заказа.
func NewEvent(t Type, o *models.Order, at time.Time) Event {
	rec := models.NewRecord(o)
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OrderID:    o.ID,
		Location:   o.Location,
		Status:     o.Status,
		OccurredAt: at.UTC(),
		Order:      &rec,
	}
}

// RoutingKey - ключ маршрутизации вида order.advanced.main.
func (e Event) RoutingKey() string {
	location := e.Location
	if location == "" {
		location = models.DefaultLocation
	}
	return string(e.Type) + "." + location
}

// Encode сериализует событие в JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher отправляет события в брокер.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

func (NopPublisher) Close() error { return nil }
