package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/services"
)

// PatientFormController endpoints du formulaire d'inscription en 4 étapes
type PatientFormController struct {
	forms      *services.PatientFormSessionService
	validation *services.PatientValidationService
	creation   *services.PatientCreationService
	logger     *zap.Logger
}

func NewPatientFormController(
	forms *services.PatientFormSessionService,
	validation *services.PatientValidationService,
	creation *services.PatientCreationService,
	logger *zap.Logger,
) *PatientFormController {
	return &PatientFormController{
		forms:      forms,
		validation: validation,
		creation:   creation,
		logger:     logger.Named("patient-form-controller"),
	}
}

// OpenForm POST /forms
func (c *PatientFormController) OpenForm(ctx *gin.Context) {
	var req dto.OpenFormRequest
	// Corps vide autorisé : ouverture en création
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			respondBindError(ctx, err)
			return
		}
	}

	view, err := c.forms.Open(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusCreated, view)
}

// GetForm GET /forms/:session_id
func (c *PatientFormController) GetForm(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	view, err := c.forms.Get(id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, view)
}

// ChangeFields PATCH /forms/:session_id/fields
func (c *PatientFormController) ChangeFields(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	var req dto.ChangeFieldsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	view, err := c.forms.ChangeFields(id, &req)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, view)
}

// NextStep POST /forms/:session_id/next
func (c *PatientFormController) NextStep(ctx *gin.Context) {
	c.navigate(ctx, c.forms.Next)
}

// PrevStep POST /forms/:session_id/prev
func (c *PatientFormController) PrevStep(ctx *gin.Context) {
	c.navigate(ctx, c.forms.Prev)
}

func (c *PatientFormController) navigate(ctx *gin.Context, move func(id uuid.UUID) (*dto.FormView, error)) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	view, err := move(id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, view)
}

// Submit POST /forms/:session_id/submit
// Une fiche invalide répond 422 avec la vue (erreurs visibles, étape en échec)
func (c *PatientFormController) Submit(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	view, err := c.forms.Submit(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}

	if !view.Submitted {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Formulaire incomplet",
			"details": map[string]interface{}{
				"code":   "VALIDATION_ERROR",
				"step":   view.Step,
				"errors": view.Errors,
			},
			"data": view,
		})
		return
	}
	respondOK(ctx, http.StatusCreated, view)
}

// SaveDraft POST /forms/:session_id/draft
func (c *PatientFormController) SaveDraft(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	saved, err := c.forms.SaveDraft(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, saved)
}

// CloseForm DELETE /forms/:session_id
func (c *PatientFormController) CloseForm(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	if err := c.forms.Close(id); err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ValidateRecord POST /validate : validation sans session (une étape ou toute la fiche)
func (c *PatientFormController) ValidateRecord(ctx *gin.Context) {
	var req dto.ValidateRecordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	var result dto.ValidationResult
	if req.Step == 0 {
		result = c.validation.ValidateAll(req.Record)
	} else {
		result = c.validation.ValidateStep(req.Record, req.Step)
	}
	respondOK(ctx, http.StatusOK, result)
}

// GetPatient GET /:id : fiche mise en forme pour affichage
func (c *PatientFormController) GetPatient(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	patient, err := c.creation.GetPatient(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}

	patient.Record = dto.FormatRecord(patient.Record)
	respondOK(ctx, http.StatusOK, patient)
}
