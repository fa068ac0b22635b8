// internal/app/features/projects/join.go
package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	projectstore "github.com/teamforge/teamforge/internal/app/store/projects"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"
	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeJoin handles POST /api/projects/{id}/join: the caller asks to join
// and the creator gets a join_request notification (durable + live push).
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	uid, sessionUser, ok := currentUserID(r)
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

	if project.HasMember(uid) || project.HasJoinRequest(uid) {
		apiutil.Err(w, http.StatusBadRequest, "You are already involved with this project.")
		return
	}

	if err := h.Projects.AddJoinRequest(r.Context(), id, uid); err != nil {
		h.Log.Error("add join request", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}

	err = h.Notify.Send(r.Context(), models.Notification{
		Recipient: project.Creator,
		Sender:    uid,
		Type:      models.NotificationJoinRequest,
		Message:   fmt.Sprintf("%s has requested to join your project: %s", sessionUser.FullName, project.Title),
		Link:      "/projects/" + project.ID.Hex(),
	})
	if err != nil {
		// The join request itself landed; the notification is best-effort.
		h.Log.Error("send join_request notification", zap.Error(err))
	}

	apiutil.Msg(w, http.StatusOK, "Join request sent.")
}

type applicantRequest struct {
	ApplicantID string `json:"applicantId"`
}

// ServeApprove handles POST /api/projects/{id}/approve: the creator moves an
// applicant from joinRequests to members and the applicant is notified.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	project, applicant, ok := h.loadModeration(w, r)
	if !ok {
		return
	}

	if err := h.Projects.ApproveJoinRequest(r.Context(), project.ID, applicant); err != nil {
		h.Log.Error("approve join request", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}

	err := h.Notify.Send(r.Context(), models.Notification{
		Recipient: applicant,
		Sender:    project.Creator,
		Type:      models.NotificationRequestApproved,
		Message:   fmt.Sprintf("Your request to join the project %q has been approved!", project.Title),
		Link:      "/projects/" + project.ID.Hex(),
	})
	if err != nil {
		h.Log.Error("send request_approved notification", zap.Error(err))
	}

	updated, err := h.Projects.GetByID(r.Context(), project.ID)
	if err != nil {
		h.Log.Error("reload project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, updated)
}

// ServeDecline handles POST /api/projects/{id}/decline: the creator drops a
// pending request. No notification is sent, matching the product behavior.
func (h *Handler) ServeDecline(w http.ResponseWriter, r *http.Request) {
	project, applicant, ok := h.loadModeration(w, r)
	if !ok {
		return
	}

	if err := h.Projects.DeclineJoinRequest(r.Context(), project.ID, applicant); err != nil {
		h.Log.Error("decline join request", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.Msg(w, http.StatusOK, "Join request declined.")
}

// loadModeration does the shared work of approve/decline: authenticate,
// parse the applicant id, load the project, and check the caller is the
// creator. On failure it has already written the response.
func (h *Handler) loadModeration(w http.ResponseWriter, r *http.Request) (models.Project, primitive.ObjectID, bool) {
	uid, _, ok := currentUserID(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return models.Project{}, primitive.NilObjectID, false
	}
	id, ok := projectID(r)
	if !ok {
		apiutil.Err(w, http.StatusBadRequest, "Invalid project ID")
		return models.Project{}, primitive.NilObjectID, false
	}

	var req applicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ApplicantID == "" {
		apiutil.Err(w, http.StatusBadRequest, "Applicant ID is required.")
		return models.Project{}, primitive.NilObjectID, false
	}
	applicant, err := primitive.ObjectIDFromHex(req.ApplicantID)
	if err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid applicant ID.")
		return models.Project{}, primitive.NilObjectID, false
	}

	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			apiutil.Err(w, http.StatusNotFound, "Project not found")
			return models.Project{}, primitive.NilObjectID, false
		}
		h.Log.Error("get project", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return models.Project{}, primitive.NilObjectID, false
	}
	if project.Creator != uid {
		apiutil.Err(w, http.StatusForbidden, "Only the project creator can moderate requests.")
		return models.Project{}, primitive.NilObjectID, false
	}
	return project, applicant, true
}
