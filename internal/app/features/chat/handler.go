// internal/app/features/chat/handler.go

// Package chat serves a project's conversation history under
// /api/projects/{id}/chat. Live messages travel over the realtime layer;
// this endpoint backfills the log on page load.
package chat

import (
	"errors"
	"net/http"

	conversationstore "github.com/teamforge/teamforge/internal/app/store/conversations"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Conversations *conversationstore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Conversations: conversationstore.New(db), Log: logger}
}

// ServeHistory handles GET /api/projects/{id}/chat. A project with no
// messages yet has no conversation document; that is a 200 with null data,
// not an error.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	conv, err := h.Conversations.GetByProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, conversationstore.ErrNotFound) {
			apiutil.OK(w, http.StatusOK, nil)
			return
		}
		h.Log.Error("load conversation", zap.String("project", id.Hex()), zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, conv)
}
