package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"clinica-suite-core/internal/app/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownGrace = 30 * time.Second

// Application serveur HTTP piloté par le cycle de vie fx
type Application struct {
	config *config.Config
	router *gin.Engine
	logger *zap.Logger
	server *http.Server
}

func NewApplication(cfg *config.Config, router *gin.Engine, logger *zap.Logger) *Application {
	return &Application{
		config: cfg,
		router: router,
		logger: logger.With(zap.String("component", "SERVER")),
	}
}

func (a *Application) Start(lc fx.Lifecycle, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			srv := a.config.Server
			addr := fmt.Sprintf("%s:%d", srv.Host, srv.Port)

			// Bind synchrone : un port occupé fait échouer le démarrage fx
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("écoute %s impossible: %w", addr, err)
			}

			a.server = &http.Server{
				Handler:      a.router,
				ReadTimeout:  srv.ReadTimeout,
				WriteTimeout: srv.WriteTimeout,
			}

			a.logger.Info("serveur HTTP prêt",
				zap.String("addr", ln.Addr().String()),
				zap.String("env", a.config.Environment))

			go func() {
				if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("serveur HTTP interrompu", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
			defer cancel()

			if err := a.server.Shutdown(stopCtx); err != nil {
				a.logger.Warn("arrêt forcé du serveur HTTP", zap.Error(err))
				return err
			}
			a.logger.Info("serveur HTTP arrêté")
			return nil
		},
	})
}
