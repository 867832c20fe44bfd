package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/agamariel/cafetrack/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testIdentity() Identity {
	return Identity{OperatorID: uuid.New(), Login: "barista", Location: "annex"}
}

// signed подписывает произвольные claims, минуя Issue.
func signed(t *testing.T, claims operatorClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestIssueAndParse(t *testing.T) {
	tests := []struct {
		name string
		op   *models.Operator
	}{
		{name: "operator with location", op: &models.Operator{ID: uuid.New(), Login: "barista", Location: "annex"}},
		{name: "operator without location", op: &models.Operator{ID: uuid.New(), Login: "cashier"}},
		{name: "unicode login", op: &models.Operator{ID: uuid.New(), Login: "бариста", Location: "main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := IdentityOf(tt.op)
			token, err := Issue(want, "test-secret", time.Hour)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}

			got, err := Parse(token, "test-secret")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != want {
				t.Errorf("Parse() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestIssueEmptySecret(t *testing.T) {
	if _, err := Issue(testIdentity(), "", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Issue() error = %v, want ErrEmptySecret", err)
	}
}

func TestParseRejects(t *testing.T) {
	secret := "test-secret"
	id := testIdentity()
	now := time.Now()

	valid, _ := Issue(id, secret, time.Hour)
	expired, _ := Issue(id, secret, -time.Hour)

	base := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   id.OperatorID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	otherIssuer := base
	otherIssuer.Issuer = "gophermart"
	noExpiry := base
	noExpiry.ExpiresAt = nil
	badSubject := base
	badSubject.Subject = "42"

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, operatorClaims{RegisteredClaims: base}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: signed(t, operatorClaims{RegisteredClaims: base}, "other")},
		{name: "expired", token: expired},
		{name: "tampered", token: valid + "x"},
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "alg none", token: unsigned},
		{name: "foreign issuer", token: signed(t, operatorClaims{RegisteredClaims: otherIssuer}, secret)},
		{name: "no expiry", token: signed(t, operatorClaims{RegisteredClaims: noExpiry}, secret)},
		{name: "subject is not an operator id", token: signed(t, operatorClaims{RegisteredClaims: badSubject}, secret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.token, secret); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func BenchmarkParse(b *testing.B) {
	token, _ := Issue(testIdentity(), "test-secret", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(token, "test-secret")
	}
}
