// internal/app/features/tasks/handler.go

// Package tasks serves a project's task board under
// /api/projects/{id}/tasks. Task creation and status changes happen over
// the realtime layer; this endpoint is the initial board load.
package tasks

import (
	"errors"
	"net/http"

	taskstore "github.com/teamforge/teamforge/internal/app/store/tasks"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"
	"github.com/teamforge/teamforge/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks *taskstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Tasks: taskstore.New(db), Log: logger}
}

// ServeGet handles GET /api/projects/{id}/tasks/{taskID}: one board item,
// e.g. when a client follows a task link out of a notification.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Project ID is missing")
		return
	}
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "taskID"))
	if err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			apiutil.Err(w, http.StatusNotFound, "Task not found")
			return
		}
		h.Log.Error("get task", zap.String("task", taskID.Hex()), zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	// A task id from another project's board is not this board's task.
	if task.Project != projectID {
		apiutil.Err(w, http.StatusNotFound, "Task not found")
		return
	}
	apiutil.OK(w, http.StatusOK, task)
}

// ServeList handles GET /api/projects/{id}/tasks, oldest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Project ID is missing")
		return
	}

	tasks, err := h.Tasks.ListByProject(r.Context(), id)
	if err != nil {
		h.Log.Error("list tasks", zap.String("project", id.Hex()), zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	apiutil.OK(w, http.StatusOK, tasks)
}
