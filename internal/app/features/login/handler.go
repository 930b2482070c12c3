// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	loginstore "github.com/melbminds/studyhub/internal/app/store/logins"
	userstore "github.com/melbminds/studyhub/internal/app/store/users"
	"github.com/melbminds/studyhub/internal/app/system/auth"
	"github.com/melbminds/studyhub/internal/app/system/authutil"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/ratelimit"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// errInvalidCredentials covers both unknown email and wrong password so the
// response does not reveal which accounts exist.
const errInvalidCredentials = "invalid email or password"

// HandleLogin handles POST /api/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)))
			jsonutil.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := userstore.New(h.DB).GetByEmail(ctx, req.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if err != nil {
		h.Log.Error("database error loading user", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.Log.Info("login failed: bad password", zap.String("user_id", u.ID.Hex()))
		jsonutil.Error(w, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	if err := h.SessionMgr.Login(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("save session", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "could not start session")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}

	if _, err := loginstore.New(h.DB).CreateFrom(ctx, r, u.ID); err != nil {
		h.Log.Warn("record login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, u)
}
