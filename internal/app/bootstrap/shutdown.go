// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background worker and the moderation pool, flushes
// traces and disconnects MongoDB, in that order.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.Services; svc != nil {
		if svc.Worker != nil {
			svc.Worker.Stop()
		}
		if svc.Moderation != nil {
			svc.Moderation.Stop()
		}
		if svc.LoginLimiter != nil {
			svc.LoginLimiter.Stop()
		}
		if svc.RegisterLimiter != nil {
			svc.RegisterLimiter.Stop()
		}
		if svc.shutdownTracing != nil {
			if err := svc.shutdownTracing(ctx); err != nil {
				logger.Warn("trace exporter shutdown failed", zap.Error(err))
			}
		}
	}

	if deps.StudyHubMongoClient != nil {
		logger.Info("disconnecting StudyHub MongoDB client")
		if err := deps.StudyHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
