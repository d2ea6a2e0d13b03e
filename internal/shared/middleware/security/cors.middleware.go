package security

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"clinica-suite-core/internal/app/config"
)

// CORSHandler type spécifique pour Fx
type CORSHandler gin.HandlerFunc

// CORSMiddleware origines autorisées issues de CORS_ALLOWED_ORIGINS, "*" accepte tout
func CORSMiddleware(appConfig *config.Config) CORSHandler {
	corsConfig := appConfig.CORS

	allowed := make(map[string]struct{}, len(corsConfig.AllowedOrigins))
	wildcard := false
	for _, origin := range corsConfig.AllowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = struct{}{}
	}

	return CORSHandler(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if wildcard {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},

		AllowMethods: corsConfig.AllowedMethods,
		AllowHeaders: corsConfig.AllowedHeaders,

		ExposeHeaders: []string{
			"Content-Length",
			"X-Request-ID",
		},

		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           time.Duration(corsConfig.MaxAge) * time.Second,
	}))
}
