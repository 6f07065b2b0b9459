package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	// ErrNoCartClaim is returned when a token validates but carries no cart id,
	// so no cart operation can be bound to the session.
	ErrNoCartClaim = errors.New("token has no cart_id claim")
)

// Claims is the payload embedded in every issued token. CartID binds the
// session to the cart created at sign-in time.
type Claims struct {
	Scope  string `json:"scp"`
	CartID int64  `json:"cart_id"`
	jwt.StandardClaims
}

// TokenMaker signs and parses the session tokens.
type TokenMaker struct {
	secret         []byte
	expirationDays int
}

func NewTokenMaker(secret string, expirationDays int) *TokenMaker {
	return &TokenMaker{secret: []byte(secret), expirationDays: expirationDays}
}

// Issue mints a token for the user with the freshly created cart embedded.
func (m *TokenMaker) Issue(userID string, cartID int64) (string, error) {
	now := time.Now()

	claims := &Claims{
		Scope:  "user",
		CartID: cartID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.AddDate(0, 0, m.expirationDays).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a signed token and returns its claims.
func (m *TokenMaker) Parse(signedToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secret, nil
		},
	)
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
