package mongodb

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(NewCollectionManager),
	fx.Invoke(RegisterLifecycle),
)

func RegisterLifecycle(lc fx.Lifecycle, client *Client, logger *zap.Logger) {
	log := logger.With(zap.String("component", "MONGODB"))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !client.Enabled() {
				log.Warn("MONGODB_URI vide - brouillons de formulaire désactivés")
				return nil
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			// Les brouillons sont optionnels : ne bloque pas le démarrage
			if err := client.HealthCheck(timeoutCtx); err != nil {
				log.Warn("MongoDB non disponible - brouillons désactivés jusqu'au retour du service", zap.Error(err))
				return nil
			}

			log.Info("MongoDB connecté et opérationnel")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close(ctx)
		},
	})
}
