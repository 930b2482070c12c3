// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	loginstore "github.com/melbminds/studyhub/internal/app/store/logins"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	userstore "github.com/melbminds/studyhub/internal/app/store/users"
	"github.com/melbminds/studyhub/internal/app/system/authutil"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/paging"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type profileResponse struct {
	*models.User
	GroupIDs      []primitive.ObjectID `json:"group_ids"`
	PasswordRules string               `json:"password_rules"`
}

type updateRequest struct {
	FullName             string   `json:"full_name" validate:"max=120" label:"Full name"`
	Major                string   `json:"major" validate:"max=120" label:"Major"`
	YearLevel            string   `json:"year_level" validate:"max=20" label:"Year level"`
	PreferredStudyFormat string   `json:"preferred_study_format" validate:"omitempty,oneof=online in-person hybrid" label:"Preferred study format"`
	Languages            []string `json:"languages" validate:"max=10,dive,max=40" label:"Languages"`
	Bio                  string   `json:"bio" validate:"max=1000" label:"Bio"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" label:"Current password"`
	NewPassword     string `json:"new_password" validate:"required" label:"New password"`
}

// ServeProfile handles GET /api/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("database error loading user", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	ids, err := membershipstore.New(h.DB).GroupIDsForUser(ctx, uid)
	if err != nil {
		h.Log.Error("database error loading memberships", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if ids == nil {
		ids = []primitive.ObjectID{}
	}

	jsonutil.OK(w, profileResponse{User: u, GroupIDs: ids, PasswordRules: authutil.PasswordRules()})
}

// HandleUpdateProfile handles PATCH /api/profile. The body replaces the
// whole study profile; an empty full_name keeps the current name.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	for _, f := range [][2]string{{"name", req.FullName}, {"bio", req.Bio}} {
		if res := h.Filter.CheckField(f[0], f[1]); !res.Valid {
			jsonutil.Error(w, http.StatusBadRequest, res.Message)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	store := userstore.New(h.DB)
	err := store.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		FullName:             req.FullName,
		Major:                req.Major,
		YearLevel:            req.YearLevel,
		PreferredStudyFormat: req.PreferredStudyFormat,
		Languages:            req.Languages,
		Bio:                  req.Bio,
	})
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("database error updating profile", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	u, err := store.GetByID(ctx, uid)
	if err != nil {
		h.Log.Error("database error reloading user", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, u)
}

// HandleChangePassword handles POST /api/profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req passwordRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	store := userstore.New(h.DB)
	u, err := store.GetByID(ctx, uid)
	if err != nil {
		h.Log.Error("database error loading user", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !authutil.CheckPassword(req.CurrentPassword, u.PasswordHash) {
		jsonutil.Error(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if err := authutil.ValidatePassword(req.NewPassword); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.NewPassword) == strings.TrimSpace(req.CurrentPassword) {
		jsonutil.Error(w, http.StatusBadRequest, "new password must differ from the current one")
		return
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "could not change password")
		return
	}
	if err := store.SetPasswordHash(ctx, uid, hash); err != nil {
		h.Log.Error("database error saving password", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// ServeLogins handles GET /api/profile/logins: the caller's recent sign-ins.
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile logins")
	defer cancel()

	limit := paging.ParseLimit(r, loginstore.DefaultRecentLimit)
	recs, err := loginstore.New(h.DB).Recent(ctx, uid, limit)
	if err != nil {
		h.Log.Error("database error loading login history", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, map[string]any{"logins": recs})
}
