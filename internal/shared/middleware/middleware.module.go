package middleware

import (
	"go.uber.org/fx"

	"clinica-suite-core/internal/shared/middleware/core"
	"clinica-suite-core/internal/shared/middleware/logging"
	"clinica-suite-core/internal/shared/middleware/security"
)

// Module regroupe tous les providers des middlewares
var Module = fx.Options(
	fx.Provide(logging.RequestIDMiddleware),
	fx.Provide(core.RecoveryMiddleware),
	fx.Provide(security.CORSMiddleware),
)
