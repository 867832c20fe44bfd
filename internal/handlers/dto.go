package handlers

import (
	"time"

	"github.com/agamariel/cafetrack/internal/analytics"
	"github.com/agamariel/cafetrack/internal/lifecycle"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/shopspring/decimal"
)

// toOrderResponse преобразует заказ в DTO. Активным заказам считается
// прошедшее время, завершённым - итог и разбивка по сегментам.
func toOrderResponse(o *models.Order, now time.Time) *models.OrderResponse {
	route := models.RouteFor(o.Category)
	resp := &models.OrderResponse{
		ID:          o.ID,
		Name:        o.Name,
		Category:    string(o.Category),
		Location:    o.Location,
		Status:      string(o.Status),
		StatusLabel: o.Status.Label(),
		NextAction:  lifecycle.NextAction(o),
		Progress:    route.ProgressOf(o.Status),
		EnteredAt:   o.EnteredAt.Format(time.RFC3339),
		OrderedAt:   formatTime(o.OrderedAt),
		PaidAt:      formatTime(o.PaidAt),
		DeliveredAt: formatTime(o.DeliveredAt),
		Comments:    make([]*models.CommentResponse, 0, len(o.Comments)),
	}

	if o.IsActive() {
		resp.Elapsed = analytics.FormatClock(analytics.Elapsed(o, now))
	} else {
		resp.Total = analytics.FormatClock(analytics.Segments(o).Total)
		resp.Breakdown = analytics.Breakdown(o)
	}

	for _, cm := range o.Comments {
		resp.Comments = append(resp.Comments, &models.CommentResponse{
			Text:      cm.Text,
			Timestamp: formatTime(cm.At),
		})
	}
	return resp
}

func toOrderResponses(orders []*models.Order, now time.Time) []*models.OrderResponse {
	resp := make([]*models.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o, now))
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

var sixty = decimal.NewFromInt(60)

func toStatsResponse(s *analytics.Stats, f analytics.Filter) *models.StatsResponse {
	resp := &models.StatsResponse{
		Location:    f.Location,
		Date:        f.Date.String(),
		Class:       string(f.Class),
		Count:       s.Count,
		Average:     analytics.FormatClock(s.Average),
		AverageMin:  decimal.NewFromFloat(s.Average.Seconds()).Div(sixty).Round(2),
		Best:        analytics.FormatClock(s.Best),
		Worst:       analytics.FormatClock(s.Worst),
		Bottleneck:  string(s.Bottleneck),
		AvgSegments: make(map[string]string, len(s.AvgSegments)),
	}
	for seg, d := range s.AvgSegments {
		resp.AvgSegments[string(seg)] = analytics.FormatClock(d)
	}
	return resp
}
