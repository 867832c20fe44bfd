package lifecycle

import (
	"sort"

	"github.com/agamariel/cafetrack/internal/models"
)

// NextID возвращает максимальный id коллекции плюс один, или 1 для пустой коллекции.
func NextID(orders []*models.Order) int64 {
	var maxID int64
	for _, o := range orders {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	return maxID + 1
}

// CountActive считает незавершённые заказы точки. Заказ без локации относится к models.DefaultLocation.
func CountActive(orders []*models.Order, location string) int {
	n := 0
	for _, o := range orders {
		if o.IsActive() && locationOf(o) == location {
			n++
		}
	}
	return n
}

// ActiveView - незавершённые заказы точки в порядке входа.
func ActiveView(orders []*models.Order, location string) []*models.Order {
	var view []*models.Order
	for _, o := range orders {
		if o.IsActive() && (location == "" || locationOf(o) == location) {
			view = append(view, o)
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].EnteredAt.Before(view[j].EnteredAt)
	})
	return view
}

// HistoryView - завершённые заказы точки, последние поданные первыми.
// Пустой class не ограничивает выборку.
func HistoryView(orders []*models.Order, location string, class models.CategoryClass) []*models.Order {
	var view []*models.Order
	for _, o := range orders {
		if o.IsActive() || (location != "" && locationOf(o) != location) {
			continue
		}
		if class != "" && o.Category.Class() != class {
			continue
		}
		view = append(view, o)
	}
	sort.SliceStable(view, func(i, j int) bool {
		return deliveredMillis(view[i]) > deliveredMillis(view[j])
	})
	return view
}

func deliveredMillis(o *models.Order) int64 {
	if o.DeliveredAt == nil {
		return 0
	}
	return o.DeliveredAt.UnixMilli()
}

func locationOf(o *models.Order) string {
	if o.Location == "" {
		return models.DefaultLocation
	}
	return o.Location
}
