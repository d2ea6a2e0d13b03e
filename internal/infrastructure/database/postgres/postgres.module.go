package postgres

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(NewTransactionManager),
	fx.Invoke(RegisterLifecycle),
)

func RegisterLifecycle(lc fx.Lifecycle, client *Client, config *DatabaseConfig, logger *zap.Logger) {
	log := logger.With(zap.String("component", "POSTGRES"))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := client.HealthCheck(timeoutCtx); err != nil {
				log.Error("connexion PostgreSQL impossible",
					zap.String("host", config.Host),
					zap.String("database", config.Database),
					zap.Error(err))
				return err
			}
			log.Info("PostgreSQL connecté",
				zap.String("host", config.Host),
				zap.String("database", config.Database))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
}
