// internal/app/features/users/routes.go
package users

import (
	"github.com/teamforge/teamforge/internal/app/system/auth"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.ServeRegister)
	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/me", h.ServeMe)
		r.Put("/me", h.ServeUpdateProfile)
	})

	return r
}
