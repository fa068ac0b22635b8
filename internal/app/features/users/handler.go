// internal/app/features/users/handler.go

// Package users implements account registration, login/logout, and the
// current-profile endpoint under /api/users.
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/teamforge/teamforge/internal/app/store/users"
	"github.com/teamforge/teamforge/internal/app/system/apiutil"
	"github.com/teamforge/teamforge/internal/app/system/auth"
	"github.com/teamforge/teamforge/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users    *userstore.Store
	Sessions *auth.Manager
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, sessions *auth.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Sessions: sessions,
		Log:      logger,
	}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeRegister handles POST /api/users/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		apiutil.Err(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "An error occurred during registration.")
		return
	}

	_, err = h.Users.Create(r.Context(), models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apiutil.Err(w, http.StatusBadRequest, "User with this email already exists.")
			return
		}
		h.Log.Error("create user", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "An error occurred during registration.")
		return
	}

	apiutil.Msg(w, http.StatusCreated, "User registered successfully.")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Token    string `json:"token"`
}

// ServeLogin handles POST /api/users/login. On success the JWT is set as an
// HttpOnly cookie and also returned in the body for non-browser clients.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same answer whether the account exists or not.
		apiutil.Err(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	token, err := h.Sessions.Issue(user.ID.Hex(), user.FullName)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "An error occurred during login.")
		return
	}

	h.Sessions.SetCookie(w, token)
	apiutil.OK(w, http.StatusOK, loginResponse{
		ID:       user.ID.Hex(),
		FullName: user.FullName,
		Token:    token,
	})
}

// ServeLogout handles POST /api/users/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	apiutil.Msg(w, http.StatusOK, "Logged out.")
}

type profileRequest struct {
	Bio          string   `json:"bio"`
	Address      string   `json:"address"`
	LinkedInURL  string   `json:"linkedinUrl"`
	MobileNumber string   `json:"mobileNumber"`
	Skills       []string `json:"skills"`
}

// ServeUpdateProfile handles PUT /api/users/me: replaces the editable
// profile fields and returns the updated profile. Account fields (email,
// password) are out of scope here.
func (h *Handler) ServeUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiutil.Err(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.Err(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err = h.Users.UpdateProfile(r.Context(), id,
		strings.TrimSpace(req.Bio), strings.TrimSpace(req.Address),
		strings.TrimSpace(req.LinkedInURL), strings.TrimSpace(req.MobileNumber),
		req.Skills)
	if err != nil {
		h.Log.Error("update profile", zap.String("user_id", u.ID), zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		h.Log.Error("reload profile", zap.String("user_id", u.ID), zap.Error(err))
		apiutil.Err(w, http.StatusInternalServerError, "Server Error")
		return
	}
	apiutil.OK(w, http.StatusOK, user)
}

// ServeMe handles GET /api/users/me: the signed-in user's full profile.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiutil.Err(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiutil.Err(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		h.Log.Error("load profile", zap.String("user_id", u.ID), zap.Error(err))
		apiutil.Err(w, http.StatusNotFound, "User not found")
		return
	}
	apiutil.OK(w, http.StatusOK, user)
}
