package handlers

import (
	"errors"
	"net/http"

	"github.com/agamariel/cafetrack/internal/lifecycle"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/labstack/echo/v4"
)

var (
	// ErrConfirmationRequired - удаление без подтверждения.
	ErrConfirmationRequired = errors.New("cancellation must be confirmed with confirm=true")
)

// orderError переводит ошибки сервиса заказов в HTTP-ответы.
func orderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, storage.ErrActiveLimit):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrRejectedEdit):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		c.Logger().Errorf("order operation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
