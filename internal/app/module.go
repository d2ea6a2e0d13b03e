package app

import (
	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/infrastructure/database"
	"clinica-suite-core/internal/infrastructure/logger"
	core_services "clinica-suite-core/internal/modules/core-services"
	"clinica-suite-core/internal/shared/middleware"

	"go.uber.org/fx"
)

var AppModule = fx.Options(
	// Configuration (doit être fournie en premier)
	fx.Provide(config.NewConfig),
	fx.Provide(config.NewPostgresConfig),
	fx.Provide(config.NewRedisConfig),
	fx.Provide(config.NewMongoConfig),
	fx.Provide(config.NewPatientConfig),

	// Infrastructure
	logger.Module,
	database.Module,

	// Middlewares partagés (après infrastructure, avant modules métier)
	middleware.Module,

	// Router (avant les modules métier qui y enregistrent leurs routes)
	fx.Provide(NewRouter),

	// Modules métier
	core_services.Module,

	// Application
	fx.Provide(NewApplication),
	fx.Invoke((*Application).Start),
)
