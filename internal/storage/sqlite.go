package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenSQLite открывает файл базы SQLite. Запись в SQLite однопоточная, поэтому пул - одно соединение.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA busy_timeout = 5000`, `PRAGMA journal_mode = WAL`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("unable to configure sqlite: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite: %w", err)
	}
	return db, nil
}

// SQLiteOrderStorage реализует OrderStorage поверх SQLite; время хранится в миллисекундах Unix.
type SQLiteOrderStorage struct {
	db *sql.DB
}

func NewSQLiteOrderStorage(db *sql.DB) *SQLiteOrderStorage {
	return &SQLiteOrderStorage{db: db}
}

const sqliteUpsertOrder = `
	INSERT INTO orders (id, name, category, location, status, entered_at, ordered_at, paid_at, delivered_at, comments, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		category = excluded.category,
		location = excluded.location,
		status = excluded.status,
		entered_at = excluded.entered_at,
		ordered_at = excluded.ordered_at,
		paid_at = excluded.paid_at,
		delivered_at = excluded.delivered_at,
		comments = excluded.comments,
		updated_at = excluded.updated_at
`

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteOrderStorage) Save(ctx context.Context, order *models.Order) error {
	return sqliteSave(ctx, s.db, order)
}

func (s *SQLiteOrderStorage) SaveBatch(ctx context.Context, orders []*models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, o := range orders {
		if err := sqliteSave(ctx, tx, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func sqliteSave(ctx context.Context, db sqlExecer, o *models.Order) error {
	_, err := db.ExecContext(ctx, sqliteUpsertOrder,
		o.ID,
		o.Name,
		string(o.Category),
		o.Location,
		string(o.Status),
		o.EnteredAt.UnixMilli(),
		nullMillis(o.OrderedAt),
		nullMillis(o.PaidAt),
		nullMillis(o.DeliveredAt),
		o.Comments.Encode(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order %d: %w", o.ID, err)
	}
	return nil
}

func (s *SQLiteOrderStorage) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *SQLiteOrderStorage) LoadAll(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, location, status, entered_at, ordered_at, paid_at, delivered_at, comments
		FROM orders
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var (
			o                        models.Order
			category, status, raw    string
			entered                  int64
			ordered, paid, delivered sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &o.Name, &category, &o.Location, &status, &entered, &ordered, &paid, &delivered, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Category = categoryOrDefault(category)
		o.Status = models.Status(status)
		o.EnteredAt = time.UnixMilli(entered)
		o.OrderedAt = timeFromNull(ordered)
		o.PaidAt = timeFromNull(paid)
		o.DeliveredAt = timeFromNull(delivered)
		o.Comments = models.ParseComments(raw)
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

// SQLiteOperatorStorage реализует OperatorStorage поверх SQLite.
type SQLiteOperatorStorage struct {
	db *sql.DB
}

func NewSQLiteOperatorStorage(db *sql.DB) *SQLiteOperatorStorage {
	return &SQLiteOperatorStorage{db: db}
}

func (s *SQLiteOperatorStorage) Create(ctx context.Context, op *models.Operator) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	op.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operators (id, login, password_hash, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		op.ID.String(), op.Login, op.PasswordHash, op.Location, op.CreatedAt.UnixMilli(),
	)
	if err != nil {
		var sqErr *sqlite.Error
		if errors.As(err, &sqErr) && sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return ErrLoginExists
		}
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

func (s *SQLiteOperatorStorage) GetByLogin(ctx context.Context, login string) (*models.Operator, error) {
	return s.get(ctx, `login = ?`, login)
}

func (s *SQLiteOperatorStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return s.get(ctx, `id = ?`, id.String())
}

func (s *SQLiteOperatorStorage) get(ctx context.Context, where string, arg any) (*models.Operator, error) {
	var (
		op      models.Operator
		id      string
		created int64
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, login, password_hash, location, created_at FROM operators WHERE `+where, arg)
	if err := row.Scan(&id, &op.Login, &op.PasswordHash, &op.Location, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to scan operator: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid operator id %q: %w", id, err)
	}
	op.ID = parsed
	op.CreatedAt = time.UnixMilli(created)
	return &op, nil
}
