package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(mw *AuthMiddleware, users *UserHandler, products *ProductHandler, carts *CartHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", users.Register)
		r.Post("/users/sign_in", users.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate)

			r.Get("/users/me", users.Me)
			r.Put("/users", users.Update)
			r.Delete("/users", users.Delete)

			// Everything below needs the cart from the token claim, the
			// product catalog included.
			r.Group(func(r chi.Router) {
				r.Use(mw.ResolveCart)

				r.Route("/products", func(r chi.Router) {
					r.Get("/", products.List)
					r.Post("/", products.Create)
					r.Get("/{id}", products.Get)
					r.Put("/{id}", products.Update)
					r.Delete("/{id}", products.Delete)
				})

				r.Route("/cart", func(r chi.Router) {
					r.Get("/current", carts.Current)
					r.Post("/add_items", carts.AddItems)
					r.Delete("/remove_items", carts.RemoveItems)
				})
			})
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrors(w http.ResponseWriter, status int, msgs []string) {
	writeJSON(w, status, map[string][]string{"errors": msgs})
}
