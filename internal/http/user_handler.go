package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/moya-nicolau/ecommerce-api/internal/auth"
	"github.com/moya-nicolau/ecommerce-api/internal/cart"
	"github.com/moya-nicolau/ecommerce-api/internal/user"
)

// CartCreator opens the fresh cart every authentication event gets.
type CartCreator interface {
	CreateForUser(ctx context.Context, userID string) (*cart.Cart, error)
}

type UserHandler struct {
	users  user.Repository
	carts  CartCreator
	tokens *auth.TokenMaker
}

func NewUserHandler(users user.Repository, carts CartCreator, tokens *auth.TokenMaker) *UserHandler {
	return &UserHandler{users: users, carts: carts, tokens: tokens}
}

type userParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRequest struct {
	User userParams `json:"user"`
}

func (p userParams) validate() []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Name can't be blank")
	}
	if strings.TrimSpace(p.Email) == "" {
		errs = append(errs, "Email can't be blank")
	}
	if p.Password == "" {
		errs = append(errs, "Password can't be blank")
	} else if len(p.Password) < 6 {
		errs = append(errs, "Password is too short (minimum is 6 characters)")
	}
	return errs
}

// Register creates the account together with its first cart and answers
// with a token bound to that cart.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if errs := req.User.validate(); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	digest, err := user.HashPassword(req.User.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	u := &user.User{
		Name:           strings.TrimSpace(req.User.Name),
		Email:          strings.TrimSpace(req.User.Email),
		PasswordDigest: digest,
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeErrors(w, http.StatusUnprocessableEntity, []string{"Email has already been taken"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.respondWithToken(w, r, u, http.StatusCreated)
}

// SignIn verifies the credentials and, like Register, opens a new cart
// for the session before minting the token.
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.User.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	if !user.CheckPassword(u.PasswordDigest, req.User.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.respondWithToken(w, r, u, http.StatusOK)
}

func (h *UserHandler) respondWithToken(w http.ResponseWriter, r *http.Request, u *user.User, status int) {
	c, err := h.carts.CreateForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create cart")
		return
	}

	token, err := h.tokens.Issue(u.ID, c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, status, map[string]any{"user": u, "token": token})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if errs := req.User.validate(); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	digest, err := user.HashPassword(req.User.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	u := UserFromContext(r.Context())
	u.Name = strings.TrimSpace(req.User.Name)
	u.Email = strings.TrimSpace(req.User.Email)
	u.PasswordDigest = digest

	if err := h.users.Update(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeErrors(w, http.StatusUnprocessableEntity, []string{"Email has already been taken"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Delete removes the account. Carts and their lines go with it through
// the cascading foreign keys.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	if err := h.users.Delete(r.Context(), u.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
