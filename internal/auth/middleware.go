package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CookieName - имя cookie с токеном оператора.
const CookieName = "Authorization"

const identityKey = "operator"

// Middleware пропускает запрос только с действующим токеном оператора
// (заголовок Authorization: Bearer или cookie) и кладёт Identity в контекст.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFrom(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			id, err := Parse(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			SetIdentity(c, id)
			return next(c)
		}
	}
}

// tokenFrom предпочитает заголовок cookie.
func tokenFrom(c echo.Context) string {
	if token := bearerToken(c.Request()); token != "" {
		return token
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SetIdentity кладёт оператора в контекст запроса.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom возвращает оператора запроса; ok == false, если запрос прошёл без токена.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// Location возвращает точку оператора или пустую строку.
func Location(c echo.Context) string {
	id, _ := IdentityFrom(c)
	return id.Location
}
