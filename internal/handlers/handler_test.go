package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agamariel/cafetrack/internal/auth"
	"github.com/agamariel/cafetrack/internal/logging"
	"github.com/agamariel/cafetrack/internal/services"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/labstack/echo/v4"
)

func newOrderService() *services.OrderServiceImpl {
	return services.NewOrderService(storage.NewOrderStore(), nil, nil, "main", logging.Discard())
}

type request struct {
	method   string
	target   string
	body     string
	id       string
	location string // точка оператора из токена
}

// serve вызывает обработчик и возвращает ответ и код, учитывая *echo.HTTPError.
func serve(t *testing.T, h echo.HandlerFunc, r request) (*httptest.ResponseRecorder, int) {
	t.Helper()
	e := echo.New()
	if r.target == "" {
		r.target = "/"
	}

	var req *http.Request
	if r.body != "" {
		req = httptest.NewRequest(r.method, r.target, strings.NewReader(r.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(r.method, r.target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if r.id != "" {
		c.SetParamNames("id")
		c.SetParamValues(r.id)
	}
	if r.location != "" {
		auth.SetIdentity(c, auth.Identity{Location: r.location})
	}

	err := h(c)
	if err == nil {
		return rec, rec.Code
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	return rec, he.Code
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}
