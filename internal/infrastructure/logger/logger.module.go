package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clinica-suite-core/internal/app/config"
)

var Module = fx.Options(
	fx.Provide(NewLogger),
	fx.Provide(NewMiddleware),
	fx.Invoke(RegisterLifecycle),
)

// FxEventLogger route le journal interne de fx vers zap
func FxEventLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// NewLogger encodeur console en développement, JSON sinon
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build(zap.Fields(zap.String("env", cfg.Environment)))
	if err != nil {
		return nil, err
	}

	for _, w := range cfg.Warnings {
		logger.Warn(w, zap.String("component", "CONFIG"))
	}
	return logger, nil
}

func RegisterLifecycle(lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync échoue sur stdout/stderr selon l'OS, sans conséquence
			_ = logger.Sync()
			return nil
		},
	})
}
