// internal/app/features/notifications/handler.go

// Package notifications serves the poll-based notification listing under
// /api/notifications. Live pushes are the realtime layer's; this is how an
// offline recipient catches up.
package notifications

import (
	"net/http"

	notificationstore "github.com/teamforge/teamforge/internal/app/store/notifications"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"
	"github.com/teamforge/teamforge/internal/app/system/auth"
	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notificationstore.New(db), Log: logger}
}

func recipientFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	return id, err == nil
}

// ServeList handles GET /api/notifications: the caller's unread
// notifications, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	recipient, ok := recipientFromRequest(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	notifications, err := h.Notifications.ListUnread(r.Context(), recipient)
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	apiutil.OK(w, http.StatusOK, notifications)
}

// ServeMarkRead handles POST /api/notifications/mark-read: flags all of the
// caller's unread notifications as read.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	recipient, ok := recipientFromRequest(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if _, err := h.Notifications.MarkAllRead(r.Context(), recipient); err != nil {
		h.Log.Error("mark notifications read", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.Msg(w, http.StatusOK, "Notifications marked as read.")
}
