package storage

import (
	"context"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/google/uuid"
)

// MockOrderStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockOrderStorage struct {
	SaveFunc      func(ctx context.Context, order *models.Order) error
	SaveBatchFunc func(ctx context.Context, orders []*models.Order) error
	DeleteFunc    func(ctx context.Context, id int64) error
	LoadAllFunc   func(ctx context.Context) ([]*models.Order, error)
}

func (m *MockOrderStorage) Save(ctx context.Context, order *models.Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	return nil
}

func (m *MockOrderStorage) SaveBatch(ctx context.Context, orders []*models.Order) error {
	if m.SaveBatchFunc != nil {
		return m.SaveBatchFunc(ctx, orders)
	}
	return nil
}

func (m *MockOrderStorage) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockOrderStorage) LoadAll(ctx context.Context) ([]*models.Order, error) {
	if m.LoadAllFunc != nil {
		return m.LoadAllFunc(ctx)
	}
	return []*models.Order{}, nil
}

// MockOperatorStorage - мок хранилища операторов.
type MockOperatorStorage struct {
	CreateFunc     func(ctx context.Context, op *models.Operator) error
	GetByLoginFunc func(ctx context.Context, login string) (*models.Operator, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.Operator, error)
}

func (m *MockOperatorStorage) Create(ctx context.Context, op *models.Operator) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, op)
	}
	return nil
}

func (m *MockOperatorStorage) GetByLogin(ctx context.Context, login string) (*models.Operator, error) {
	if m.GetByLoginFunc != nil {
		return m.GetByLoginFunc(ctx, login)
	}
	return nil, ErrOperatorNotFound
}

func (m *MockOperatorStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrOperatorNotFound
}
