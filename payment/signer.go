package payment

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateClaims bind a callback state token to one order
type stateClaims struct {
	OrderID int64 `json:"order_id"`
	jwt.RegisteredClaims
}

// StateSigner signs the state token carried through the gateway redirect, so
// a forged callback cannot complete someone else's attempt.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewStateSigner(secret []byte) *StateSigner {
	return &StateSigner{secret: secret, ttl: time.Hour}
}

// Issue creates a signed state token for the order
func (s *StateSigner) Issue(orderID int64) (string, error) {
	claims := stateClaims{
		OrderID: orderID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token and returns the order id it was issued for
func (s *StateSigner) Verify(tokenStr string) (int64, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("payment: invalid state token")
	}
	return claims.OrderID, nil
}
