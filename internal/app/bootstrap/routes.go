// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	flashcardsfeature "github.com/melbminds/studyhub/internal/app/features/flashcards"
	groupsfeature "github.com/melbminds/studyhub/internal/app/features/groups"
	healthfeature "github.com/melbminds/studyhub/internal/app/features/health"
	loginfeature "github.com/melbminds/studyhub/internal/app/features/login"
	logoutfeature "github.com/melbminds/studyhub/internal/app/features/logout"
	messagesfeature "github.com/melbminds/studyhub/internal/app/features/messages"
	notificationsfeature "github.com/melbminds/studyhub/internal/app/features/notifications"
	profilefeature "github.com/melbminds/studyhub/internal/app/features/profile"
	recommendationsfeature "github.com/melbminds/studyhub/internal/app/features/recommendations"
	registerfeature "github.com/melbminds/studyhub/internal/app/features/register"
	statsfeature "github.com/melbminds/studyhub/internal/app/features/stats"
	sessionsfeature "github.com/melbminds/studyhub/internal/app/features/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so every service in deps.Services is ready.
//
// All application endpoints are JSON under /api. Group-scoped resources
// (sessions, notifications, messages) are mounted beneath /api/groups/{id}.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Reconciler == nil {
		return nil, errors.New("build handler: Startup has not run")
	}
	db := deps.StudyHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.StudyHubMongoClient, svc.Reconciler, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// Authentication
		registerHandler := registerfeature.NewHandler(db, appCfg.UniversityEmailDomain, svc.Filter, logger)
		api.Mount("/register", registerfeature.Routes(registerHandler, svc.RegisterLimiter))

		loginHandler := loginfeature.NewHandler(db, sessionMgr, svc.LoginLimiter, logger)
		api.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
		api.Mount("/logout", logoutfeature.Routes(logoutHandler))

		profileHandler := profilefeature.NewHandler(db, svc.Filter, logger)
		api.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

		// Groups and the resources that hang off a group
		groupsHandler := groupsfeature.NewHandler(db, svc.Projector, svc.Filter, logger)
		groupsRouter := groupsfeature.Routes(groupsHandler, sessionMgr)

		sessionsHandler := sessionsfeature.NewHandler(db, svc.Clock, svc.Reconciler, logger)
		groupsRouter.Mount("/{id}/sessions", sessionsfeature.GroupRoutes(sessionsHandler, sessionMgr))

		notificationsHandler := notificationsfeature.NewHandler(db, logger)
		groupsRouter.Mount("/{id}/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

		messagesHandler := messagesfeature.NewHandler(db, svc.Moderation, logger)
		groupsRouter.Mount("/{id}/messages", messagesfeature.Routes(messagesHandler, sessionMgr))

		api.Mount("/groups", groupsRouter)
		api.Mount("/sessions", sessionsfeature.Routes(sessionsHandler, sessionMgr))

		flashcardsHandler := flashcardsfeature.NewHandler(db, svc.Filter, logger)
		api.Mount("/flashcards", flashcardsfeature.Routes(flashcardsHandler, sessionMgr))

		recHandler := recommendationsfeature.NewHandler(db, logger)
		api.Mount("/recommendations", recommendationsfeature.Routes(recHandler, sessionMgr))

		statsHandler := statsfeature.NewHandler(db, svc.Clock, logger)
		api.Mount("/stats", statsfeature.Routes(statsHandler))
	})

	return r, nil
}
