package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator - сотрудник точки, который ведёт заказы.
type Operator struct {
	ID           uuid.UUID `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	Location     string    `db:"location"`
	CreatedAt    time.Time `db:"created_at"`
}

// RegisterRequest - запрос на регистрацию оператора.
type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Location string `json:"location"`
}

// LoginRequest - запрос на аутентификацию оператора.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
