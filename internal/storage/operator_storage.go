package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrLoginExists      = errors.New("login already exists")
)

// OperatorStorage определяет интерфейс для работы с операторами.
type OperatorStorage interface {
	Create(ctx context.Context, op *models.Operator) error
	GetByLogin(ctx context.Context, login string) (*models.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
}

// PostgresOperatorStorage реализует OperatorStorage для PostgreSQL.
type PostgresOperatorStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOperatorStorage создаёт новый экземпляр PostgresOperatorStorage.
func NewPostgresOperatorStorage(pool *pgxpool.Pool) *PostgresOperatorStorage {
	return &PostgresOperatorStorage{pool: pool}
}

// Create создаёт нового оператора.
func (s *PostgresOperatorStorage) Create(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (id, login, password_hash, location, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, query,
		op.ID,
		op.Login,
		op.PasswordHash,
		op.Location,
	).Scan(&op.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrLoginExists
		}
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

// GetByLogin ищет оператора по логину.
func (s *PostgresOperatorStorage) GetByLogin(ctx context.Context, login string) (*models.Operator, error) {
	query := `
		SELECT id, login, password_hash, location, created_at
		FROM operators
		WHERE login = $1
	`
	return scanOperator(s.pool.QueryRow(ctx, query, login))
}

// GetByID ищет оператора по ID.
func (s *PostgresOperatorStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `
		SELECT id, login, password_hash, location, created_at
		FROM operators
		WHERE id = $1
	`
	return scanOperator(s.pool.QueryRow(ctx, query, id))
}

func scanOperator(row pgx.Row) (*models.Operator, error) {
	op := &models.Operator{}
	err := row.Scan(&op.ID, &op.Login, &op.PasswordHash, &op.Location, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to scan operator: %w", err)
	}
	return op, nil
}
