package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shopadmin/internal/auth"
)

type Handlers struct {
	Tokens     *auth.Tokens
	Auth       *AuthHandler
	Categories *CategoriesHandler
	Products   *ProductsHandler
	Orders     *OrdersHandler
}

func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authed := auth.Authenticate(h.Tokens)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.register)
		r.Post("/login", h.Auth.login)
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/profile", h.Auth.profile)
			r.Patch("/profile", h.Auth.updateProfile)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.Categories.list)
		r.Get("/{id}", h.Categories.get)
		r.Group(func(r chi.Router) {
			r.Use(authed, auth.RequireAdmin)
			r.Get("/stats", h.Categories.stats)
			r.Post("/", h.Categories.create)
			r.Patch("/{id}", h.Categories.update)
			r.Delete("/{id}", h.Categories.remove)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Products.list)
		r.Get("/{id}", h.Products.get)
		r.Group(func(r chi.Router) {
			r.Use(authed, auth.RequireAdmin)
			r.Post("/", h.Products.create)
			r.Patch("/{id}", h.Products.update)
			r.Delete("/{id}", h.Products.remove)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authed)
		r.Post("/", h.Orders.create)
		r.Get("/", h.Orders.list)
		r.Get("/{id}", h.Orders.get)
		r.Delete("/{id}", h.Orders.cancel)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Patch("/{id}/status", h.Orders.updateStatus)
		})
	})

	return r
}
