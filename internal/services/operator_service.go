package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agamariel/cafetrack/internal/auth"
	"github.com/agamariel/cafetrack/internal/models"
	"github.com/agamariel/cafetrack/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCredentials   = errors.New("login and password are required")
)

// OperatorService определяет интерфейс работы с операторами.
type OperatorService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Operator, string, error)
	Login(ctx context.Context, login, password string) (*models.Operator, string, error)
}

// OperatorServiceImpl реализует OperatorService.
type OperatorServiceImpl struct {
	operatorStorage storage.OperatorStorage
	jwtSecret       string
	tokenExpiration time.Duration
	defaultLocation string
}

// NewOperatorService создаёт новый экземпляр OperatorService.
func NewOperatorService(operatorStorage storage.OperatorStorage, jwtSecret string, tokenExpiration time.Duration, defaultLocation string) *OperatorServiceImpl {
	if defaultLocation == "" {
		defaultLocation = models.DefaultLocation
	}
	return &OperatorServiceImpl{
		operatorStorage: operatorStorage,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
		defaultLocation: defaultLocation,
	}
}

// Register регистрирует оператора и закрепляет его за точкой.
func (s *OperatorServiceImpl) Register(ctx context.Context, req models.RegisterRequest) (*models.Operator, string, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, "", ErrEmptyCredentials
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.defaultLocation
	}

	op := &models.Operator{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: passwordHash,
		Location:     location,
	}

	if err := s.operatorStorage.Create(ctx, op); err != nil {
		if errors.Is(err, storage.ErrLoginExists) {
			return nil, "", storage.ErrLoginExists
		}
		return nil, "", fmt.Errorf("failed to create operator: %w", err)
	}

	token, err := s.generateToken(op)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return op, token, nil
}

// Login аутентифицирует оператора.
func (s *OperatorServiceImpl) Login(ctx context.Context, login, password string) (*models.Operator, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", ErrEmptyCredentials
	}

	op, err := s.operatorStorage.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrOperatorNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get operator: %w", err)
	}

	if !auth.CheckPassword(password, op.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(op)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return op, token, nil
}

func (s *OperatorServiceImpl) generateToken(op *models.Operator) (string, error) {
	exp := s.tokenExpiration
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return auth.Issue(auth.IdentityOf(op), s.jwtSecret, exp)
}
