package models

import (
	"time"
)

// DefaultLocation подставляется в записи без локации (данные до появления нескольких точек).
const DefaultLocation = "main"

// Order представляет заказ одного гостя от входа до расчёта.
type Order struct {
	ID          int64
	Name        string
	Category    Category
	Location    string
	Status      Status
	EnteredAt   time.Time
	OrderedAt   *time.Time
	PaidAt      *time.Time
	DeliveredAt *time.Time
	Comments    Comments
}

// IsActive сообщает, что заказ ещё не завершён.
func (o *Order) IsActive() bool {
	return o.Status != StatusDone
}

// At возвращает отметку времени или nil, если она ещё не проставлена.
func (o *Order) At(m Mark) *time.Time {
	switch m {
	case MarkEntered:
		if o.EnteredAt.IsZero() {
			return nil
		}
		return &o.EnteredAt
	case MarkOrdered:
		return o.OrderedAt
	case MarkPaid:
		return o.PaidAt
	case MarkDelivered:
		return o.DeliveredAt
	}
	return nil
}

// Stamp проставляет отметку, только если она пуста. Возвращает true, если отметка изменилась.
func (o *Order) Stamp(m Mark, t time.Time) bool {
	if o.At(m) != nil {
		return false
	}
	switch m {
	case MarkEntered:
		o.EnteredAt = t
	case MarkOrdered:
		o.OrderedAt = &t
	case MarkPaid:
		o.PaidAt = &t
	case MarkDelivered:
		o.DeliveredAt = &t
	default:
		return false
	}
	return true
}

// Clone возвращает глубокую копию заказа.
func (o *Order) Clone() *Order {
	c := *o
	c.OrderedAt = cloneTime(o.OrderedAt)
	c.PaidAt = cloneTime(o.PaidAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	if o.Comments != nil {
		c.Comments = make(Comments, len(o.Comments))
		for i, cm := range o.Comments {
			c.Comments[i] = Comment{Text: cm.Text, At: cloneTime(cm.At)}
		}
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// CreateOrderRequest - запрос на создание заказа (гость вошёл).
type CreateOrderRequest struct {
	Location string `json:"location"`
	Category string `json:"category"`
}

// RenameRequest - запрос на смену имени.
type RenameRequest struct {
	Name string `json:"name"`
}

// CategoryRequest - запрос на смену категории.
type CategoryRequest struct {
	Category string `json:"category"`
}

// CommentRequest - запрос на добавление комментария.
type CommentRequest struct {
	Text string `json:"text"`
}

// CommentResponse DTO комментария.
type CommentResponse struct {
	Text      string  `json:"text"`
	Timestamp *string `json:"timestamp"`
}

// OrderResponse DTO заказа для слоя отображения.
type OrderResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Category    string             `json:"category"`
	Location    string             `json:"location"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"status_label"`
	NextAction  string             `json:"next_action,omitempty"`
	Progress    []StepState        `json:"progress"`
	EnteredAt   string             `json:"entered_at"`
	OrderedAt   *string            `json:"ordered_at,omitempty"`
	PaidAt      *string            `json:"paid_at,omitempty"`
	DeliveredAt *string            `json:"delivered_at,omitempty"`
	Elapsed     string             `json:"elapsed,omitempty"`
	Total       string             `json:"total,omitempty"`
	Breakdown   []SegmentShare     `json:"breakdown,omitempty"`
	Comments    []*CommentResponse `json:"comments"`
}

// ActiveCountResponse - число активных заказов точки и лимит.
type ActiveCountResponse struct {
	Location string `json:"location"`
	Active   int    `json:"active"`
	Limit    int    `json:"limit"`
}

// ImportResponse - итог импорта старых записей.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
