package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/cafetrack/internal/auth"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/agamariel/cafetrack/internal/services"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/labstack/echo/v4"
)

// OperatorHandler обрабатывает регистрацию и вход операторов.
type OperatorHandler struct {
	operatorService services.OperatorService
	tokenTTL        time.Duration
}

// NewOperatorHandler создаёт новый экземпляр OperatorHandler.
func NewOperatorHandler(operatorService services.OperatorService, tokenTTL time.Duration) *OperatorHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &OperatorHandler{operatorService: operatorService, tokenTTL: tokenTTL}
}

// Register обрабатывает POST /api/operators/register.
func (h *OperatorHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	op, token, err := h.operatorService.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, storage.ErrLoginExists) {
			return echo.NewHTTPError(http.StatusConflict, "login already exists")
		}
		c.Logger().Errorf("failed to register operator: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.setAuthToken(c, token)
	return c.JSON(http.StatusOK, operatorBody(op))
}

// Login обрабатывает POST /api/operators/login.
func (h *OperatorHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	op, token, err := h.operatorService.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid login or password")
		}
		c.Logger().Errorf("failed to login operator: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.setAuthToken(c, token)
	return c.JSON(http.StatusOK, operatorBody(op))
}

func operatorBody(op *models.Operator) map[string]interface{} {
	return map[string]interface{}{
		"operator_id": op.ID,
		"login":       op.Login,
		"location":    op.Location,
	}
}

// setAuthToken устанавливает токен в cookie и заголовок ответа.
func (h *OperatorHandler) setAuthToken(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})
	c.Response().Header().Set(echo.HeaderAuthorization, "Bearer "+token)
}
