// internal/app/features/projects/handler.go

// Package projects implements the project listing CRUD and the join-request
// workflow under /api/projects.
package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	conversationstore "github.com/teamforge/teamforge/internal/app/store/conversations"
	projectstore "github.com/teamforge/teamforge/internal/app/store/projects"
	taskstore "github.com/teamforge/teamforge/internal/app/store/tasks"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"
	"github.com/teamforge/teamforge/internal/app/system/auth"
	"github.com/teamforge/teamforge/internal/app/system/notify"
	"github.com/teamforge/teamforge/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Projects      *projectstore.Store
	Tasks         *taskstore.Store
	Conversations *conversationstore.Store
	Notify        *notify.Service
	Log           *zap.Logger

	sanitize *bluemonday.Policy
}

func NewHandler(db *mongo.Database, notifier *notify.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Projects:      projectstore.New(db),
		Tasks:         taskstore.New(db),
		Conversations: conversationstore.New(db),
		Notify:        notifier,
		Log:           logger,
		sanitize:      bluemonday.StrictPolicy(),
	}
}

// currentUserID pulls the authenticated user's ObjectID out of the request.
func currentUserID(r *http.Request) (primitive.ObjectID, *auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, nil, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, nil, false
	}
	return id, u, true
}

// projectID pulls the {id} URL parameter.
func projectID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeList handles GET /api/projects with optional type/status filters and
// a mine=true switch for the caller's own projects.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mine") == "true" {
		uid, _, ok := currentUserID(r)
		if !ok {
			apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		projects, err := h.Projects.ListForUser(r.Context(), uid)
		if err != nil {
			h.Log.Error("list own projects", zap.Error(err))
			apiutil.Err(w, http.StatusInternalServerError, "Server Error")
			return
		}
		apiutil.OK(w, http.StatusOK, projects)
		return
	}

	projType := strings.TrimSpace(r.URL.Query().Get("type"))
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	projects, err := h.Projects.List(r.Context(), projType, status)
	if err != nil {
		h.Log.Error("list projects", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, projects)
}

type createRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"requiredSkills"`
	MembersNeeded  int      `json:"membersRequired"`
	Type           string   `json:"type"`
}

// ServeCreate handles POST /api/projects.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := currentUserID(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Description) == "" {
		apiutil.Err(w, http.StatusBadRequest, "Title and description are required.")
		return
	}
	if req.MembersNeeded < 1 {
		apiutil.Err(w, http.StatusBadRequest, "membersRequired must be at least 1.")
		return
	}

	project, err := h.Projects.Create(r.Context(), models.Project{
		Title:          req.Title,
		Description:    h.sanitize.Sanitize(req.Description),
		RequiredSkills: req.RequiredSkills,
		MembersNeeded:  req.MembersNeeded,
		Creator:        uid,
		Type:           req.Type,
	})
	if err != nil {
		if errors.Is(err, projectstore.ErrInvalidType) {
			apiutil.Err(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("create project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusCreated, project)
}

// ServeGet handles GET /api/projects/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(r)
	if !ok {
		apiutil.Err(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			apiutil.Err(w, http.StatusNotFound, "Project not found")
			return
		}
		h.Log.Error("get project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, project)
}

type statusRequest struct {
	Status string `json:"status"`
}

// ServeUpdateStatus handles PATCH /api/projects/{id}/status. Only the
// creator may move a project between open, in-progress, and completed.
func (h *Handler) ServeUpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := currentUserID(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, ok := projectID(r)
	if !ok {
		apiutil.Err(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			apiutil.Err(w, http.StatusNotFound, "Project not found")
			return
		}
		h.Log.Error("get project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if project.Creator != uid {
		apiutil.Err(w, http.StatusForbidden, "Only the project creator can change its status.")
		return
	}

	if err := h.Projects.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, projectstore.ErrInvalidStatus) {
			apiutil.Err(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("update project status", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}

	updated, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		h.Log.Error("reload project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, updated)
}

// ServeDelete handles DELETE /api/projects/{id}. Only the creator may
// delete; the project's tasks and conversation go with it.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	uid, _, ok := currentUserID(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, ok := projectID(r)
	if !ok {
		apiutil.Err(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			apiutil.Err(w, http.StatusNotFound, "Project not found")
			return
		}
		h.Log.Error("get project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if project.Creator != uid {
		apiutil.Err(w, http.StatusForbidden, "Only the project creator can delete it.")
		return
	}

	if _, err := h.Projects.Delete(r.Context(), id); err != nil {
		h.Log.Error("delete project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if _, err := h.Tasks.DeleteByProject(r.Context(), id); err != nil {
		h.Log.Error("delete project tasks", zap.Error(err))
	}
	if _, err := h.Conversations.DeleteByProject(r.Context(), id); err != nil {
		h.Log.Error("delete project conversation", zap.Error(err))
	}

	apiutil.Msg(w, http.StatusOK, "Project deleted.")
}
