// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/teamforge/teamforge/internal/app/system/auth"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/mark-read", h.ServeMarkRead)
	return r
}
