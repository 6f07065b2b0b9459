package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/moya-nicolau/ecommerce-api/internal/auth"
	"github.com/moya-nicolau/ecommerce-api/internal/cart"
	"github.com/moya-nicolau/ecommerce-api/internal/user"
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
	cartKey
)

// UserResolver loads the authenticated user behind a token subject.
type UserResolver interface {
	GetByID(ctx context.Context, userID string) (*user.User, error)
}

// CartResolver loads the cart a token's cart_id claim points at.
type CartResolver interface {
	GetByID(ctx context.Context, cartID int64) (*cart.Cart, error)
}

type AuthMiddleware struct {
	tokens *auth.TokenMaker
	users  UserResolver
	carts  CartResolver
	logger *log.Logger
}

func NewAuthMiddleware(tokens *auth.TokenMaker, users UserResolver, carts CartResolver, logger *log.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, carts: carts, logger: logger}
}

// Authenticate validates the bearer token and loads the user it belongs
// to. Missing, malformed or expired tokens end the request with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "invalid token format")
			return
		}

		claims, err := m.tokens.Parse(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		u, err := m.users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			m.logger.Printf("auth: load user %s: %v", claims.Subject, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveCart binds the request to the cart named by the token's cart_id
// claim. Any failure to resolve it, including a missing claim, answers
// 422 so the client knows to sign in again for a fresh cart.
func (m *AuthMiddleware) ResolveCart(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.CartID == 0 {
			writeError(w, http.StatusUnprocessableEntity, "could not find your cart")
			return
		}

		c, err := m.carts.GetByID(r.Context(), claims.CartID)
		if err != nil {
			m.logger.Printf("auth: resolve cart %d: %v", claims.CartID, err)
			writeError(w, http.StatusUnprocessableEntity, "could not find your cart")
			return
		}

		ctx := context.WithValue(r.Context(), cartKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user set by Authenticate.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}

// ClaimsFromContext returns the token claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

// CartFromContext returns the current cart set by ResolveCart.
func CartFromContext(ctx context.Context) *cart.Cart {
	c, _ := ctx.Value(cartKey).(*cart.Cart)
	return c
}
