// internal/app/features/projects/routes.go
package projects

import (
	"github.com/teamforge/teamforge/internal/app/system/auth"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/projects. Listing and
// viewing are public; everything that mutates requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.ServeCreate)
		r.Patch("/{id}/status", h.ServeUpdateStatus)
		r.Delete("/{id}", h.ServeDelete)
		r.Post("/{id}/join", h.ServeJoin)
		r.Post("/{id}/approve", h.ServeApprove)
		r.Post("/{id}/decline", h.ServeDecline)
	})

	return r
}
