package patient

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/modules/core-services/patient/controllers"
	"clinica-suite-core/internal/modules/core-services/patient/services"
)

// Module domaine Patient : inscription en 4 étapes, recherche, codes patient
var Module = fx.Options(
	// Stockage
	fx.Provide(services.NewPatientPostgresRepository),
	fx.Provide(services.NewPatientCacheService),
	fx.Provide(services.NewPatientDraftService),
	fx.Provide(services.NewPatientCodeGeneratorService),
	fx.Provide(func(r *services.PatientPostgresRepository) services.PatientRepository { return r }),
	fx.Provide(func(c *services.PatientCacheService) services.PatientListCache { return c }),
	fx.Provide(func(d *services.PatientDraftService) services.FormDraftStore { return d }),
	fx.Provide(func(g *services.PatientCodeGeneratorService) services.PatientCodeGenerator { return g }),

	// Métier
	fx.Provide(services.NewPatientValidationService),
	fx.Provide(services.NewPatientCreationService),
	fx.Provide(func(c *services.PatientCreationService) services.PatientSubmitter { return c }),
	fx.Provide(services.NewPatientFormSessionService),
	fx.Provide(services.NewPatientSearchService),

	// HTTP
	fx.Provide(controllers.NewPatientFormController),
	fx.Provide(controllers.NewPatientSearchController),

	fx.Invoke(RegisterPatientLifecycle),
	fx.Invoke(RegisterPatientRoutes),
)

// RegisterPatientRoutes expose les endpoints sous /api/v1/patients
func RegisterPatientRoutes(
	r *gin.Engine,
	forms *controllers.PatientFormController,
	search *controllers.PatientSearchController,
) {
	api := r.Group("/api/v1/patients")
	{
		api.POST("/validate", forms.ValidateRecord)
		api.GET("/search", search.SearchPatients)
		api.GET("/:id", forms.GetPatient)

		f := api.Group("/forms")
		f.POST("", forms.OpenForm)
		f.GET("/:session_id", forms.GetForm)
		f.PATCH("/:session_id/fields", forms.ChangeFields)
		f.POST("/:session_id/next", forms.NextStep)
		f.POST("/:session_id/prev", forms.PrevStep)
		f.POST("/:session_id/submit", forms.Submit)
		f.POST("/:session_id/draft", forms.SaveDraft)
		f.DELETE("/:session_id", forms.CloseForm)

		s := api.Group("/search/sessions")
		s.POST("", search.OpenSession)
		s.GET("/:session_id", search.GetSession)
		s.PATCH("/:session_id", search.UpdateSession)
		s.POST("/:session_id/clear", search.ClearSession)
		s.DELETE("/:session_id/criteria", search.ClearSession)
		s.DELETE("/:session_id", search.CloseSession)
	}
}

// RegisterPatientLifecycle schéma PostgreSQL, collection des brouillons et purge des sessions inactives
func RegisterPatientLifecycle(
	lc fx.Lifecycle,
	repo *services.PatientPostgresRepository,
	collections *mongodb.CollectionManager,
	forms *services.PatientFormSessionService,
	cfg *config.PatientConfig,
	logger *zap.Logger,
) {
	log := logger.With(zap.String("component", "PATIENT"))
	stop := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			// Brouillons optionnels : MongoDB absent ne bloque pas le démarrage
			if err := collections.EnsureFormDraftCollection(ctx, services.DraftModule, cfg.DraftTTL); err != nil {
				log.Warn("collection des brouillons non initialisée", zap.Error(err))
			}

			if cfg.FormSessionTTL > 0 {
				go runSessionJanitor(forms, cfg.FormSessionTTL/2, stop, log)
			}
			log.Info("module patient prêt", zap.String("clinic_code", cfg.ClinicCode))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			return nil
		},
	})
}

func runSessionJanitor(forms *services.PatientFormSessionService, every time.Duration, stop <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := forms.EvictExpired(); n > 0 {
				log.Debug("sessions de saisie expirées purgées", zap.Int("count", n))
			}
		case <-stop:
			return
		}
	}
}
