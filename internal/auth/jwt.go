package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer - издатель токенов операторов.
const Issuer = "cafetrack"

var (
	// ErrInvalidToken возвращается для токена с неверной подписью, издателем, сроком или оператором.
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Identity - оператор, от имени которого выполняется запрос.
type Identity struct {
	OperatorID uuid.UUID
	Login      string
	// Location - точка, за которой закреплён оператор.
	Location string
}

// IdentityOf возвращает Identity оператора.
func IdentityOf(op *models.Operator) Identity {
	return Identity{OperatorID: op.ID, Login: op.Login, Location: op.Location}
}

// operatorClaims - полезная нагрузка токена. Идентификатор оператора лежит в sub.
type operatorClaims struct {
	Login    string `json:"login"`
	Location string `json:"location,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(Issuer),
	jwt.WithExpirationRequired(),
)

// Issue подписывает токен оператора со сроком жизни ttl.
func Issue(id Identity, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := operatorClaims{
		Login:    id.Login,
		Location: id.Location,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   id.OperatorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse проверяет токен и возвращает оператора из него.
func Parse(token, secret string) (Identity, error) {
	var claims operatorClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject %q is not an operator id", ErrInvalidToken, claims.Subject)
	}
	return Identity{OperatorID: id, Login: claims.Login, Location: claims.Location}, nil
}
