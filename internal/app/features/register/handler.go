// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/melbminds/studyhub/internal/app/store/users"
	"github.com/melbminds/studyhub/internal/app/system/authutil"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Filter      *moderation.Filter
	EmailDomain string // e.g. "unimelb.edu.au"; empty accepts any domain
}

func NewHandler(db *mongo.Database, emailDomain string, filter *moderation.Filter, logger *zap.Logger) *Handler {
	if filter == nil {
		filter = moderation.NewFilter(moderation.DefaultMinConfidence)
	}
	return &Handler{
		DB:          db,
		Log:         logger,
		Filter:      filter,
		EmailDomain: emailDomain,
	}
}

type registerRequest struct {
	FullName             string   `json:"full_name" validate:"required,max=120" label:"Full name"`
	Email                string   `json:"email" validate:"required,mailaddr" label:"Email"`
	Password             string   `json:"password" validate:"required" label:"Password"`
	Major                string   `json:"major" validate:"max=120" label:"Major"`
	YearLevel            string   `json:"year_level" validate:"max=20" label:"Year level"`
	PreferredStudyFormat string   `json:"preferred_study_format" validate:"omitempty,oneof=online in-person hybrid" label:"Preferred study format"`
	Languages            []string `json:"languages" validate:"max=10,dive,max=40" label:"Languages"`
}

// HandleRegister handles POST /api/register. New accounts are always
// students.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if err := authutil.CheckEmailDomain(req.Email, h.EmailDomain); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "email must be a @"+strings.TrimPrefix(h.EmailDomain, "@")+" address")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := h.Filter.CheckField("name", req.FullName); !res.Valid {
		jsonutil.Error(w, http.StatusBadRequest, res.Message)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		FullName:             req.FullName,
		Email:                req.Email,
		PasswordHash:         hash,
		Role:                 models.RoleStudent,
		Major:                req.Major,
		YearLevel:            req.YearLevel,
		PreferredStudyFormat: req.PreferredStudyFormat,
		Languages:            req.Languages,
	})
	switch {
	case err == nil:
	case errors.Is(err, userstore.ErrDuplicateEmail):
		jsonutil.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("database error creating user", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	jsonutil.Write(w, http.StatusCreated, u)
}
