// internal/app/features/chat/routes.go
package chat

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/projects/{id}/chat.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHistory)
	return r
}
