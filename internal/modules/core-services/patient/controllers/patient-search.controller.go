package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/services"
)

// PatientSearchController recherche et filtrage de la liste des patients
type PatientSearchController struct {
	search *services.PatientSearchService
	logger *zap.Logger
}

func NewPatientSearchController(search *services.PatientSearchService, logger *zap.Logger) *PatientSearchController {
	return &PatientSearchController{
		search: search,
		logger: logger.Named("patient-search-controller"),
	}
}

// pageQuery pagination des réponses de session
type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// SearchPatients GET /search?q=&status=&plan=&...
func (c *PatientSearchController) SearchPatients(ctx *gin.Context) {
	var req dto.SearchPatientRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, err := c.search.SearchPatients(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, resp)
}

// OpenSession POST /search/sessions
func (c *PatientSearchController) OpenSession(ctx *gin.Context) {
	page, ok := c.bindPage(ctx)
	if !ok {
		return
	}

	var req dto.CreateSearchSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			respondBindError(ctx, err)
			return
		}
	}

	resp, err := c.search.OpenSession(ctx.Request.Context(), &req, page.Page, page.Limit)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusCreated, resp)
}

// GetSession GET /search/sessions/:session_id
func (c *PatientSearchController) GetSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}
	page, ok := c.bindPage(ctx)
	if !ok {
		return
	}

	resp, err := c.search.GetSession(ctx.Request.Context(), id, page.Page, page.Limit)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, resp)
}

// UpdateSession PATCH /search/sessions/:session_id
// Les critères absents du corps sont conservés, null les remet à zéro
func (c *PatientSearchController) UpdateSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}
	page, ok := c.bindPage(ctx)
	if !ok {
		return
	}

	var req dto.UpdateSearchSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}
	// Optional[T] masque les valeurs au validateur : on valide le patch aplati
	if req.Criteria != nil {
		if err := binding.Validator.ValidateStruct(req.Criteria.Values()); err != nil {
			respondBindError(ctx, err)
			return
		}
	}

	resp, err := c.search.UpdateSession(ctx.Request.Context(), id, &req, page.Page, page.Limit)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, resp)
}

// ClearSession POST /search/sessions/:session_id/clear
func (c *PatientSearchController) ClearSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}
	page, ok := c.bindPage(ctx)
	if !ok {
		return
	}

	resp, err := c.search.ClearSession(ctx.Request.Context(), id, page.Page, page.Limit)
	if err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	respondOK(ctx, http.StatusOK, resp)
}

// CloseSession DELETE /search/sessions/:session_id
func (c *PatientSearchController) CloseSession(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "session_id")
	if !ok {
		return
	}

	if err := c.search.CloseSession(id); err != nil {
		respondError(ctx, c.logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *PatientSearchController) bindPage(ctx *gin.Context) (pageQuery, bool) {
	var page pageQuery
	if err := ctx.ShouldBindQuery(&page); err != nil {
		respondBindError(ctx, err)
		return page, false
	}
	return page, true
}
