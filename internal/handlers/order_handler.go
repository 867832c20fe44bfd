package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agamariel/cafetrack/internal/auth"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/agamariel/cafetrack/internal/services"
	"github.com/labstack/echo/v4"
)

// DefaultMaxActive - сколько гостей одновременно может быть в работе на точке.
const DefaultMaxActive = 5

// OrderHandler обрабатывает запросы, связанные с заказами.
type OrderHandler struct {
	orderService services.OrderService
	maxActive    int
	now          func() time.Time
}

func NewOrderHandler(orderService services.OrderService, maxActive int) *OrderHandler {
	if maxActive <= 0 {
		maxActive = DefaultMaxActive
	}
	return &OrderHandler{orderService: orderService, maxActive: maxActive, now: time.Now}
}

// Register регистрирует маршруты заказов в группе.
func (h *OrderHandler) Register(g *echo.Group, create ...echo.MiddlewareFunc) {
	g.GET("/orders", h.List)
	g.GET("/orders/active/count", h.ActiveCount)
	g.POST("/orders", h.Create, create...)
	g.POST("/orders/import", h.Import)
	g.GET("/orders/:id", h.Get)
	g.POST("/orders/:id/advance", h.Advance)
	g.POST("/orders/:id/paid", h.MarkPaid)
	g.PUT("/orders/:id/name", h.Rename)
	g.PUT("/orders/:id/category", h.SetCategory)
	g.POST("/orders/:id/comments", h.AddComment)
	g.DELETE("/orders/:id", h.Cancel)
}

// List обрабатывает GET /api/orders?view=active|history.
func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	location := locationParam(c)

	var orders []*models.Order
	switch c.QueryParam("view") {
	case "", "active":
		orders = h.orderService.Active(ctx, location)
	case "history":
		class, err := classParam(c)
		if err != nil {
			return err
		}
		orders = h.orderService.History(ctx, location, class)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "view must be active or history")
	}

	return c.JSON(http.StatusOK, toOrderResponses(orders, h.now()))
}

// ActiveCount обрабатывает GET /api/orders/active/count.
func (h *OrderHandler) ActiveCount(c echo.Context) error {
	location := locationParam(c)
	if location == "" {
		location = h.orderService.DefaultLocation()
	}
	return c.JSON(http.StatusOK, &models.ActiveCountResponse{
		Location: location,
		Active:   h.orderService.CountActive(c.Request().Context(), location),
		Limit:    h.maxActive,
	})
}

// Create обрабатывает POST /api/orders. Новый гость не принимается,
// пока на точке maxActive незавершённых заказов.
func (h *OrderHandler) Create(c echo.Context) error {
	var req models.CreateOrderRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
		}
	}
	if req.Location == "" {
		req.Location = locationParam(c)
	}

	order, err := h.orderService.CreateWithin(c.Request().Context(), req, h.maxActive)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order, h.now()))
}

// Import обрабатывает POST /api/orders/import: массив записей в формате хранения.
func (h *OrderHandler) Import(c echo.Context) error {
	var records []models.Record
	if err := c.Bind(&records); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	resp, err := h.orderService.Import(c.Request().Context(), records)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get обрабатывает GET /api/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	order, err := h.orderService.Get(c.Request().Context(), id)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order, h.now()))
}

// Advance обрабатывает POST /api/orders/:id/advance.
func (h *OrderHandler) Advance(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	return h.respond(c)(h.orderService.Advance(c.Request().Context(), id))
}

// MarkPaid обрабатывает POST /api/orders/:id/paid.
func (h *OrderHandler) MarkPaid(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	return h.respond(c)(h.orderService.MarkPaid(c.Request().Context(), id))
}

// Rename обрабатывает PUT /api/orders/:id/name.
func (h *OrderHandler) Rename(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	var req models.RenameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	return h.respond(c)(h.orderService.Rename(c.Request().Context(), id, req.Name))
}

// SetCategory обрабатывает PUT /api/orders/:id/category.
func (h *OrderHandler) SetCategory(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	var req models.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	return h.respond(c)(h.orderService.SetCategory(c.Request().Context(), id, req.Category))
}

// AddComment обрабатывает POST /api/orders/:id/comments.
func (h *OrderHandler) AddComment(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	return h.respond(c)(h.orderService.AddComment(c.Request().Context(), id, req.Text))
}

// Cancel обрабатывает DELETE /api/orders/:id?confirm=true.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}
	if confirmed, _ := strconv.ParseBool(c.QueryParam("confirm")); !confirmed {
		return echo.NewHTTPError(http.StatusPreconditionRequired, ErrConfirmationRequired.Error())
	}

	if err := h.orderService.Cancel(c.Request().Context(), id); err != nil {
		return orderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) respond(c echo.Context) func(*models.Order, error) error {
	return func(order *models.Order, err error) error {
		if err != nil {
			return orderError(c, err)
		}
		return c.JSON(http.StatusOK, toOrderResponse(order, h.now()))
	}
}

func orderID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

// locationParam берёт точку из запроса, иначе точку оператора из токена.
func locationParam(c echo.Context) string {
	if loc := c.QueryParam("location"); loc != "" {
		return loc
	}
	return auth.Location(c)
}

func classParam(c echo.Context) (models.CategoryClass, error) {
	raw := c.QueryParam("class")
	if raw == "" {
		return "", nil
	}
	class, ok := models.ParseCategoryClass(raw)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "class must be dine-in or other")
	}
	return class, nil
}
