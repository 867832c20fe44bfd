package models

import "github.com/shopspring/decimal"

// SegmentShare - доля сегмента в общем времени заказа, в процентах.
type SegmentShare struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Percent decimal.Decimal `json:"percent"`
}

// StatsResponse DTO сводной статистики.
type StatsResponse struct {
	Location    string            `json:"location"`
	Date        string            `json:"date"`
	Class       string            `json:"class"`
	Count       int               `json:"count"`
	Average     string            `json:"average"`
	AverageMin  decimal.Decimal   `json:"average_minutes"`
	Best        string            `json:"best"`
	Worst       string            `json:"worst"`
	Bottleneck  string            `json:"bottleneck"`
	AvgSegments map[string]string `json:"average_segments"`
}
