// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/melbminds/studyhub/internal/app/reconcile"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"github.com/melbminds/studyhub/internal/app/system/ratelimit"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook, so the services built in
// Startup live behind the Services pointer allocated in ConnectDB.
type DBDeps struct {
	StudyHubMongoClient   *mongo.Client
	StudyHubMongoDatabase *mongo.Database

	Services *Services
}

// Services are the long-lived components started in Startup and stopped in
// Shutdown.
type Services struct {
	Clock      *timezones.Reference
	Reconciler *reconcile.Reconciler
	Projector  *reconcile.Projector
	Worker     *workers.SessionReconciler

	Filter     *moderation.Filter
	Moderation *moderation.Pool

	LoginLimiter    *ratelimit.LoginLimiter
	RegisterLimiter *ratelimit.Limiter

	shutdownTracing func(context.Context) error
}
