package main

import (
	"clinica-suite-core/internal/app"
	"clinica-suite-core/internal/infrastructure/logger"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		app.AppModule,
		fx.WithLogger(logger.FxEventLogger),
	).Run()
}
