// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/melbminds/studyhub/internal/app/reconcile"
	counterstore "github.com/melbminds/studyhub/internal/app/store/counters"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	lockstore "github.com/melbminds/studyhub/internal/app/store/locks"
	messagestore "github.com/melbminds/studyhub/internal/app/store/messages"
	notificationstore "github.com/melbminds/studyhub/internal/app/store/notifications"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	userstore "github.com/melbminds/studyhub/internal/app/store/users"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"github.com/melbminds/studyhub/internal/app/system/ratelimit"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/app/system/tracing"
	"github.com/melbminds/studyhub/internal/app/system/txn"
	"github.com/melbminds/studyhub/internal/app/system/workers"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the reconciler and moderation pool and starts the background worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errors.New("startup: services not allocated")
	}
	svc := deps.Services
	db := deps.StudyHubMongoDatabase

	timeouts.Configure(timeoutConfig(appCfg))
	logger.Info("timeouts configured", timeouts.Current().Fields()...)

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  "studyhub",
		Exporter:     appCfg.TraceExporter,
		OTLPEndpoint: appCfg.OTLPEndpoint,
		OTLPInsecure: appCfg.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	svc.shutdownTracing = shutdownTracing

	clock, err := timezones.NewReference(appCfg.TimeZone, timezones.SystemClock{})
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	svc.Clock = clock

	svc.Reconciler, err = NewReconciler(db, clock, logger)
	if err != nil {
		return err
	}
	svc.Projector = &reconcile.Projector{
		Sessions:      sessionstore.New(db),
		Clock:         clock,
		DefaultTarget: appCfg.DefaultTargetHours,
		Log:           logger,
	}

	svc.Filter = moderation.NewFilter(appCfg.ModerationMinConfidence)
	svc.Moderation = moderation.NewPool(
		newModerator(appCfg, svc.Filter, logger),
		messagestore.New(db),
		appCfg.ModerationWorkers,
		appCfg.ModerationQueue,
		logger,
	)

	svc.LoginLimiter = ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, time.Minute,
		appCfg.LoginEmailLimit, 5*time.Minute,
	)
	svc.RegisterLimiter = ratelimit.New(appCfg.RegisterLimit, time.Hour)

	if err := ensureAdmin(ctx, db, appCfg.AdminEmail, logger); err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	svc.Worker = workers.NewSessionReconciler(svc.Reconciler, lockstore.New(db), logger,
		appCfg.ReconcileInterval, appCfg.ReconcileLockTTL)
	svc.Worker.Start()

	return nil
}

// NewReconciler wires a Reconciler to the MongoDB stores of db. The
// studyhubctl cleanup-sessions command uses it too.
func NewReconciler(db *mongo.Database, clock *timezones.Reference, logger *zap.Logger) (*reconcile.Reconciler, error) {
	return reconcile.New(reconcile.Deps{
		Sessions:      sessionstore.New(db),
		Notifications: notificationstore.New(db),
		Ledger:        groupstore.New(db),
		Counter:       counterstore.New(db),
		Tx:            txn.Runner{DB: db, Log: logger},
		Clock:         clock,
		Log:           logger,
	})
}

func timeoutConfig(appCfg AppConfig) timeouts.Config {
	return timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
		Batch:  appCfg.TimeoutBatch,
	}
}

// newModerator wires the external detector only when a key is configured.
func newModerator(appCfg AppConfig, filter *moderation.Filter, logger *zap.Logger) *moderation.Moderator {
	if appCfg.PerspectiveAPIKey == "" {
		return moderation.NewModerator(filter, nil, appCfg.ModerationTimeout, logger)
	}
	detector := moderation.NewPerspective(appCfg.PerspectiveAPIKey, appCfg.PerspectiveURL, appCfg.ModerationTimeout)
	logger.Info("external toxicity check enabled")
	return moderation.NewModerator(filter, detector, appCfg.ModerationTimeout, logger)
}

// ensureAdmin promotes the account with the given email to admin. An empty
// email does nothing; a missing account is logged and skipped, since admins
// sign up like everyone else first.
func ensureAdmin(ctx context.Context, db *mongo.Database, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	users := userstore.New(db)
	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Warn("admin_email has no account yet; register it and restart", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up admin: %w", err)
	}
	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	logger.Info("promoted user to admin", zap.String("user_id", u.ID.Hex()))
	return nil
}
