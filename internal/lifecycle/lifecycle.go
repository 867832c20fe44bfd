// Package lifecycle реализует конечный автомат заказа.
// Все функции синхронные, не делают ввода-вывода и получают текущее время параметром.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRejectedEdit      = errors.New("rejected edit")

	ErrCategoryLocked  = fmt.Errorf("%w: category can only change while the order is queued", ErrRejectedEdit)
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", ErrRejectedEdit)
	ErrBlankComment    = fmt.Errorf("%w: comment text is blank", ErrRejectedEdit)
	ErrAlreadyPaid     = fmt.Errorf("%w: payment is already recorded", ErrRejectedEdit)
	ErrPaymentEarly    = fmt.Errorf("%w: payment cannot be marked at this stage", ErrRejectedEdit)
	ErrNotCancelable   = fmt.Errorf("%w: only queued orders can be cancelled", ErrRejectedEdit)
)

// New создаёт заказ в начальном статусе queue.
func New(id int64, location string, category models.Category, now time.Time) *models.Order {
	if category == "" {
		category = models.DefaultCategory
	}
	if location == "" {
		location = models.DefaultLocation
	}
	return &models.Order{
		ID:        id,
		Category:  category,
		Location:  location,
		Status:    models.StatusQueue,
		EnteredAt: now,
		Comments:  models.Comments{},
	}
}

// Advance переводит заказ на следующий шаг маршрута его категории и проставляет отметку шага.
// Для завершённого заказа возвращает ErrInvalidTransition, заказ при этом не меняется.
// Отметка, уже проставленная через MarkPaid, не перезаписывается.
func Advance(o *models.Order, now time.Time) error {
	route := models.RouteFor(o.Category)
	step, ok := route.Step(o.Status)
	if !ok {
		if o.Status == models.StatusDone {
			return fmt.Errorf("%w: order %d is already done", ErrInvalidTransition, o.ID)
		}
		return fmt.Errorf("%w: no step from %q for %s orders", ErrInvalidTransition, o.Status, route.Class)
	}

	o.Stamp(step.Stamp, now)
	o.Status = step.Next
	return nil
}

// MarkPaid фиксирует оплату без смены статуса. Разрешено только в статусе
// Route.SidePayment, где paidAt идёт после всех уже проставленных отметок;
// на маршрутах с этапом оплаты paidAt ставит сам переход.
func MarkPaid(o *models.Order, now time.Time) error {
	if o.PaidAt != nil {
		return ErrAlreadyPaid
	}
	route := models.RouteFor(o.Category)
	if route.SidePayment == "" || o.Status != route.SidePayment {
		return fmt.Errorf("%w: order %d is %s", ErrPaymentEarly, o.ID, o.Status)
	}
	o.Stamp(models.MarkPaid, now)
	return nil
}

// Rename заменяет имя в любом статусе.
func Rename(o *models.Order, name string) {
	o.Name = name
}

// SetCategory меняет категорию, пока заказ в очереди.
func SetCategory(o *models.Order, raw string) error {
	if o.Status != models.StatusQueue {
		return ErrCategoryLocked
	}
	category, ok := models.ParseCategory(raw)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownCategory, raw)
	}
	o.Category = category
	return nil
}

// AddComment дописывает комментарий в конец ленты.
func AddComment(o *models.Order, text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankComment
	}
	at := now
	o.Comments = append(o.Comments, models.Comment{Text: text, At: &at})
	return nil
}

// CanCancel проверяет, что заказ можно удалить.
func CanCancel(o *models.Order) error {
	if o.Status != models.StatusQueue {
		return ErrNotCancelable
	}
	return nil
}

// NextAction возвращает подпись кнопки следующего шага или пустую строку для завершённого заказа.
func NextAction(o *models.Order) string {
	step, ok := models.RouteFor(o.Category).Step(o.Status)
	if !ok {
		return ""
	}
	return step.Action
}
