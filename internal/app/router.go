package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/infrastructure/database/postgres"
	"clinica-suite-core/internal/infrastructure/database/redis"
	"clinica-suite-core/internal/infrastructure/logger"
	"clinica-suite-core/internal/shared/middleware/core"
	"clinica-suite-core/internal/shared/middleware/logging"
	"clinica-suite-core/internal/shared/middleware/security"
	"clinica-suite-core/internal/shared/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// RouterParams dépendances du routeur HTTP
type RouterParams struct {
	fx.In

	Config    *config.Config
	Logger    *logger.LoggerMiddleware
	RequestID logging.RequestIDHandler
	Recovery  core.RecoveryHandler
	CORS      security.CORSHandler
	Postgres  *postgres.Client
	Redis     *redis.Client
	Mongo     *mongodb.Client
}

func NewRouter(p RouterParams) (*gin.Engine, error) {
	configureGinMode(p.Config.Environment)

	// Tags cpf, cep, br_phone, card_expiry sur le moteur de binding
	if err := validators.RegisterGinBindings(); err != nil {
		return nil, fmt.Errorf("enregistrement des validateurs: %w", err)
	}

	r := gin.New()

	// Ordre : identifiant de requête, journal, panics, CORS
	r.Use(gin.HandlerFunc(p.RequestID))
	r.Use(p.Logger.GinLogger())
	r.Use(gin.HandlerFunc(p.Recovery))
	r.Use(gin.HandlerFunc(p.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"status": "healthy",
			},
		})
	})

	// /ready vérifie les dépendances ; MongoDB dégradé n'empêche pas le service
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{
			"postgres": statusOf(p.Postgres.HealthCheck(ctx)),
			"redis":    statusOf(p.Redis.HealthCheck(ctx)),
			"mongodb":  statusOf(p.Mongo.HealthCheck(ctx)),
		}

		if checks["postgres"] != "up" || checks["redis"] != "up" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Service non prêt",
				"details": gin.H{
					"code":   "NOT_READY",
					"checks": checks,
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"status": "ready",
				"checks": checks,
			},
		})
	})

	return r, nil
}

func statusOf(err error) string {
	if errors.Is(err, mongodb.ErrDisabled) {
		return "disabled"
	}
	if err != nil {
		return "down"
	}
	return "up"
}

// configureGinMode configure le mode Gin selon l'environnement
func configureGinMode(environment string) {
	switch environment {
	case "development":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}
