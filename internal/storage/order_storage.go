package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderStorage - постоянное хранилище заказов, в которое асинхронно пишутся изменения.
type OrderStorage interface {
	Save(ctx context.Context, order *models.Order) error
	SaveBatch(ctx context.Context, orders []*models.Order) error
	Delete(ctx context.Context, id int64) error
	LoadAll(ctx context.Context) ([]*models.Order, error)
}

// PostgresOrderStorage реализует OrderStorage для PostgreSQL.
type PostgresOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStorage создаёт новый экземпляр PostgresOrderStorage.
func NewPostgresOrderStorage(pool *pgxpool.Pool) *PostgresOrderStorage {
	return &PostgresOrderStorage{pool: pool}
}

const pgUpsertOrder = `
	INSERT INTO orders (id, name, category, location, status, entered_at, ordered_at, paid_at, delivered_at, comments, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		category = EXCLUDED.category,
		location = EXCLUDED.location,
		status = EXCLUDED.status,
		entered_at = EXCLUDED.entered_at,
		ordered_at = EXCLUDED.ordered_at,
		paid_at = EXCLUDED.paid_at,
		delivered_at = EXCLUDED.delivered_at,
		comments = EXCLUDED.comments,
		updated_at = NOW()
`

// pgExecer - общее у пула и транзакции.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Save вставляет заказ или перезаписывает его целиком (последняя запись побеждает).
func (s *PostgresOrderStorage) Save(ctx context.Context, order *models.Order) error {
	return pgSave(ctx, s.pool, order)
}

// SaveBatch сохраняет несколько заказов в одной транзакции.
func (s *PostgresOrderStorage) SaveBatch(ctx context.Context, orders []*models.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range orders {
		if err := pgSave(ctx, tx, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func pgSave(ctx context.Context, db pgExecer, o *models.Order) error {
	_, err := db.Exec(ctx, pgUpsertOrder,
		o.ID,
		o.Name,
		string(o.Category),
		o.Location,
		string(o.Status),
		o.EnteredAt,
		o.OrderedAt,
		o.PaidAt,
		o.DeliveredAt,
		o.Comments.Encode(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order %d: %w", o.ID, err)
	}
	return nil
}

// Delete удаляет заказ.
func (s *PostgresOrderStorage) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// LoadAll читает все заказы, упорядоченные по id.
func (s *PostgresOrderStorage) LoadAll(ctx context.Context) ([]*models.Order, error) {
	query := `
		SELECT id, name, category, location, status, entered_at, ordered_at, paid_at, delivered_at, comments
		FROM orders
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return orders, nil
}

// scanOrder помогает читать заказ из строки результата.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order    models.Order
		category string
		status   string
		comments string
		entered  time.Time
	)

	err := row.Scan(
		&order.ID,
		&order.Name,
		&category,
		&order.Location,
		&status,
		&entered,
		&order.OrderedAt,
		&order.PaidAt,
		&order.DeliveredAt,
		&comments,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	order.EnteredAt = entered
	order.Category = categoryOrDefault(category)
	order.Status = models.Status(status)
	order.Comments = models.ParseComments(comments)

	return &order, nil
}

func categoryOrDefault(raw string) models.Category {
	if c, ok := models.ParseCategory(raw); ok {
		return c
	}
	return models.DefaultCategory
}
