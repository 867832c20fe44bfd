package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMalformedRecord = errors.New("malformed order record")

// Record - форма заказа при сохранении и синхронизации. Время - миллисекунды Unix.
// Поле Tag читается из старых записей, где категория называлась тегом.
type Record struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	Location    string   `json:"location,omitempty"`
	EnteredAt   *int64   `json:"enteredAt"`
	OrderedAt   *int64   `json:"orderedAt"`
	PaidAt      *int64   `json:"paidAt"`
	DeliveredAt *int64   `json:"deliveredAt"`
	Status      string   `json:"status"`
	Comments    Comments `json:"comments"`
}

// NewRecord строит запись из заказа.
func NewRecord(o *Order) Record {
	entered := o.EnteredAt.UnixMilli()
	comments := o.Comments
	if comments == nil {
		comments = Comments{}
	}
	return Record{
		ID:          o.ID,
		Name:        o.Name,
		Category:    string(o.Category),
		Location:    o.Location,
		EnteredAt:   &entered,
		OrderedAt:   toMillis(o.OrderedAt),
		PaidAt:      toMillis(o.PaidAt),
		DeliveredAt: toMillis(o.DeliveredAt),
		Status:      string(o.Status),
		Comments:    comments,
	}
}

// Order восстанавливает заказ из записи. Пустая локация заменяется на defaultLocation,
// пустая категория - на DefaultCategory.
func (r Record) Order(defaultLocation string) (*Order, error) {
	if r.ID <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrMalformedRecord)
	}
	if r.EnteredAt == nil {
		return nil, fmt.Errorf("%w: order %d has no enteredAt", ErrMalformedRecord, r.ID)
	}
	status := Status(r.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: order %d has unknown status %q", ErrMalformedRecord, r.ID, r.Status)
	}

	raw := r.Category
	if raw == "" {
		raw = r.Tag
	}
	category := DefaultCategory
	if strings.TrimSpace(raw) != "" {
		c, ok := ParseCategory(raw)
		if !ok {
			return nil, fmt.Errorf("%w: order %d has unknown category %q", ErrMalformedRecord, r.ID, raw)
		}
		category = c
	}
	if !RouteFor(category).Contains(status) {
		return nil, fmt.Errorf("%w: status %q is not on the %s path", ErrMalformedRecord, status, category)
	}

	location := r.Location
	if location == "" {
		location = defaultLocation
	}

	return &Order{
		ID:          r.ID,
		Name:        r.Name,
		Category:    category,
		Location:    location,
		Status:      status,
		EnteredAt:   time.UnixMilli(*r.EnteredAt),
		OrderedAt:   fromMillis(r.OrderedAt),
		PaidAt:      fromMillis(r.PaidAt),
		DeliveredAt: fromMillis(r.DeliveredAt),
		Comments:    r.Comments,
	}, nil
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// fromMillis считает ноль отсутствующей отметкой, как и исходные данные.
func fromMillis(ms *int64) *time.Time {
	if ms == nil || *ms == 0 {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}
