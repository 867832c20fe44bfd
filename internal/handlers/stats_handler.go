package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/cafetrack/internal/analytics"
	"github.com/agamariel/cafetrack/internal/services"
	"github.com/labstack/echo/v4"
)

// StatsHandler отдаёт сводную статистику по завершённым заказам.
type StatsHandler struct {
	orderService services.OrderService
	tz           *time.Location
}

func NewStatsHandler(orderService services.OrderService, tz *time.Location) *StatsHandler {
	if tz == nil {
		tz = time.Local
	}
	return &StatsHandler{orderService: orderService, tz: tz}
}

// Get обрабатывает GET /api/stats?location=&date=YYYY-MM-DD&tz=&class=.
// Если подходящих заказов нет, отвечает 204.
func (h *StatsHandler) Get(c echo.Context) error {
	f := analytics.Filter{
		Location: locationParam(c),
		TZ:       h.tz,
	}

	if raw := c.QueryParam("tz"); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid tz")
		}
		f.TZ = loc
	}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := analytics.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Date = d
	}
	class, err := classParam(c)
	if err != nil {
		return err
	}
	f.Class = class

	stats, err := h.orderService.Summarize(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, analytics.ErrNoData) {
			return c.NoContent(http.StatusNoContent)
		}
		c.Logger().Errorf("failed to summarize orders: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, toStatsResponse(stats, f))
}
