package database

import (
	"go.uber.org/fx"

	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/infrastructure/database/postgres"
	"clinica-suite-core/internal/infrastructure/database/redis"
)

// Module PostgreSQL (registre), Redis (cache, verrous, séquences), MongoDB (brouillons)
var Module = fx.Options(
	postgres.Module,
	redis.Module,
	mongodb.Module,
)
