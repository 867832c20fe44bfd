package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
)

// ErrNoData - в выборке нет ни одного завершённого заказа с положительным временем.
var ErrNoData = errors.New("no data")

// Date - календарная дата в часовом поясе зрителя.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает календарную дату момента t в поясе loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Filter - критерии выборки для Summarize. Пустые поля не ограничивают выборку.
type Filter struct {
	Location string
	// DefaultLocation подставляется заказам без локации.
	DefaultLocation string
	Date            Date
	// TZ - часовой пояс зрителя для определения календарного дня.
	TZ    *time.Location
	Class models.CategoryClass
}

// Match проверяет заказ по локации, дню входа и классу категории.
func (f Filter) Match(o *models.Order) bool {
	if f.Location != "" {
		loc := o.Location
		if loc == "" {
			loc = f.defaultLocation()
		}
		if loc != f.Location {
			return false
		}
	}
	if !f.Date.IsZero() && DateOf(o.EnteredAt, f.TZ) != f.Date {
		return false
	}
	if f.Class != "" && o.Category.Class() != f.Class {
		return false
	}
	return true
}

func (f Filter) defaultLocation() string {
	if f.DefaultLocation != "" {
		return f.DefaultLocation
	}
	return models.DefaultLocation
}

// Stats - сводка по завершённым заказам выборки.
type Stats struct {
	Count       int
	Average     time.Duration
	Best        time.Duration
	Worst       time.Duration
	Bottleneck  models.Segment
	AvgSegments map[models.Segment]time.Duration
}

// Summarize считает сводку за один проход и не изменяет входной срез.
// Учитываются только завершённые заказы с положительным общим временем;
// если таких нет, возвращается ErrNoData.
func Summarize(orders []*models.Order, f Filter) (*Stats, error) {
	var (
		count       int
		sumTotal    time.Duration
		best, worst time.Duration
		sums        = make(map[models.Segment]time.Duration, len(models.BottleneckOrder))
	)

	for _, o := range orders {
		if o == nil || o.Status != models.StatusDone || !f.Match(o) {
			continue
		}
		d := Segments(o)
		if !d.Complete() {
			continue
		}

		if count == 0 || d.Total < best {
			best = d.Total
		}
		if count == 0 || d.Total > worst {
			worst = d.Total
		}
		count++
		sumTotal += d.Total
		for _, s := range models.BottleneckOrder {
			sums[s] += d.Of(s)
		}
	}

	if count == 0 {
		return nil, ErrNoData
	}

	stats := &Stats{
		Count:       count,
		Average:     sumTotal / time.Duration(count),
		Best:        best,
		Worst:       worst,
		AvgSegments: make(map[models.Segment]time.Duration, len(sums)),
	}

	// более поздний сегмент побеждает только при строгом превосходстве
	var maxAvg time.Duration
	for i, s := range models.BottleneckOrder {
		avg := sums[s] / time.Duration(count)
		stats.AvgSegments[s] = avg
		if i == 0 || avg > maxAvg {
			stats.Bottleneck = s
			maxAvg = avg
		}
	}

	return stats, nil
}
