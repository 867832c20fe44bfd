package analytics

import (
	"fmt"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/shopspring/decimal"
)

// SafeSub возвращает end - start. Если одна из отметок отсутствует или разность
// отрицательна, результат равен нулю.
func SafeSub(end, start *time.Time) time.Duration {
	if end == nil || start == nil {
		return 0
	}
	d := end.Sub(*start)
	if d < 0 {
		return 0
	}
	return d
}

// Durations - длительности сегментов заказа по слотам агрегации.
// У Dine-in слот Payment занимает участок после подачи (еда и расчёт).
type Durations struct {
	Queue   time.Duration
	Payment time.Duration
	Prep    time.Duration
	Total   time.Duration
}

// Of возвращает длительность слота.
func (d Durations) Of(s models.Segment) time.Duration {
	switch s {
	case models.SegmentQueue:
		return d.Queue
	case models.SegmentPayment:
		return d.Payment
	case models.SegmentPrep:
		return d.Prep
	}
	return 0
}

// Complete сообщает, что общее время положительно и заказ учитывается в статистике.
func (d Durations) Complete() bool {
	return d.Total > 0
}

// Segments раскладывает заказ на сегменты по маршруту его категории.
func Segments(o *models.Order) Durations {
	route := models.RouteFor(o.Category)

	var d Durations
	for _, span := range route.Spans {
		v := spanOf(o, span)
		switch span.Segment {
		case models.SegmentQueue:
			d.Queue = v
		case models.SegmentPayment:
			d.Payment = v
		case models.SegmentPrep:
			d.Prep = v
		}
	}
	d.Total = spanOf(o, route.Total)
	return d
}

func spanOf(o *models.Order, s models.Span) time.Duration {
	return SafeSub(o.At(s.To), o.At(s.From))
}

var hundred = decimal.NewFromInt(100)

// Breakdown возвращает доли сегментов в общем времени в порядке отображения.
// При нулевом общем времени все доли равны нулю.
func Breakdown(o *models.Order) []models.SegmentShare {
	route := models.RouteFor(o.Category)
	total := spanOf(o, route.Total)

	shares := make([]models.SegmentShare, 0, len(route.Spans))
	for _, span := range route.Spans {
		pct := decimal.Zero
		if total > 0 {
			pct = decimal.NewFromInt(int64(spanOf(o, span))).
				Div(decimal.NewFromInt(int64(total))).
				Mul(hundred).
				Round(2)
		}
		shares = append(shares, models.SegmentShare{Key: span.Key, Label: span.Label, Percent: pct})
	}
	return shares
}

// Elapsed - сколько времени прошло с входа гостя. Только для отображения.
func Elapsed(o *models.Order, now time.Time) time.Duration {
	return SafeSub(&now, o.At(models.MarkEntered))
}

// FormatClock форматирует длительность как мм:сс.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
