// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the rate limiter and closes the document store.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if submitLimiter != nil {
		submitLimiter.Close()
	}
	if deps.Store != nil {
		logger.Info("closing document store", zap.String("backend", appCfg.StoreBackend))
		if err := deps.Store.Close(); err != nil {
			logger.Error("document store close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
