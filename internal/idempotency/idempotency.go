// Package idempotency не даёт повторному запросу с тем же Idempotency-Key
// создать второй заказ.
package idempotency

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HeaderKey - заголовок с ключом идемпотентности.
const HeaderKey = "Idempotency-Key"

// DefaultTTL - сколько хранится ключ.
const DefaultTTL = 24 * time.Hour

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	rdb redisClient
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return newStore(rdb, ttl)
}

func newStore(rdb redisClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Key строит ключ Redis для области scope, например точки оператора.
func (s *Store) Key(scope, key string) string {
	return "idem:" + scope + ":" + key
}

// Seen атомарно занимает ключ и сообщает, был ли он занят раньше.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Release освобождает ключ, чтобы неудачный запрос можно было повторить.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Middleware отклоняет повтор запроса с уже использованным ключом кодом 409.
// Запросы без заголовка проходят как есть. Если Redis недоступен, запрос тоже пропускается.
func Middleware(store *Store, scope func(c echo.Context) string, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderKey)
			if raw == "" || store == nil {
				return next(c)
			}

			key := store.Key(scope(c), raw)
			ctx := c.Request().Context()

			seen, err := store.Seen(ctx, key)
			if err != nil {
				logger.Warn("idempotency check failed", slog.Any("err", err))
				return next(c)
			}
			if seen {
				return echo.NewHTTPError(http.StatusConflict, "duplicate request")
			}

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if rErr := store.Release(ctx, key); rErr != nil {
					logger.Warn("idempotency release failed", slog.Any("err", rErr))
				}
			}
			return err
		}
	}
}
