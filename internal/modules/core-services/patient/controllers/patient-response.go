package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/services"
)

func respondOK(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondBindError(ctx *gin.Context, err error) {
	details := map[string]interface{}{
		"code":    "VALIDATION_ERROR",
		"message": err.Error(),
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		champs := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			champs[fe.Namespace()] = validationMessage(fe)
		}
		details["champs"] = champs
	}

	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   "Données invalides",
		"details": details,
	})
}

// respondError traduit les erreurs métier en statut HTTP et enveloppe {error, details}
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	var (
		serviceErr *services.ServiceError
		notFound   *dto.PatientNotFoundError
		draftErr   *dto.DraftNotFoundError
		codeGenErr *dto.CodeGenerationError
		status     int
		message    string
		details    map[string]interface{}
	)

	switch {
	case errors.As(err, &serviceErr):
		message, details = serviceErr.Message, serviceErr.Details
		switch serviceErr.Type {
		case services.ErrorTypeConflict:
			status = http.StatusConflict
		case services.ErrorTypeNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusBadRequest
		}

	case errors.As(err, &notFound):
		status, message = http.StatusNotFound, notFound.Error()
		details = map[string]interface{}{"code": "PATIENT_NOT_FOUND", "patient_id": notFound.PatientID}

	case errors.As(err, &draftErr):
		status, message = http.StatusNotFound, draftErr.Error()
		details = map[string]interface{}{"code": "DRAFT_NOT_FOUND", "draft_id": draftErr.DraftID}

	case errors.Is(err, services.ErrSessionNotFound):
		status, message = http.StatusNotFound, "Session introuvable ou expirée"
		details = map[string]interface{}{"code": "SESSION_NOT_FOUND"}

	case errors.Is(err, services.ErrSubmitInProgress):
		status, message = http.StatusConflict, "Soumission déjà en cours"
		details = map[string]interface{}{"code": "SUBMIT_IN_PROGRESS"}

	case errors.Is(err, services.ErrAlreadySubmitted):
		status, message = http.StatusConflict, "Formulaire déjà soumis"
		details = map[string]interface{}{"code": "ALREADY_SUBMITTED"}

	case errors.Is(err, mongodb.ErrDisabled):
		status, message = http.StatusServiceUnavailable, "Brouillons indisponibles"
		details = map[string]interface{}{"code": "DRAFTS_UNAVAILABLE"}

	case errors.As(err, &codeGenErr):
		status, message = http.StatusServiceUnavailable, "Génération du code patient impossible"
		details = map[string]interface{}{"code": codeGenErr.Code, "message": codeGenErr.Message}

	default:
		logger.Error("erreur interne", zap.String("path", ctx.FullPath()), zap.Error(err))
		status, message = http.StatusInternalServerError, "Une erreur interne s'est produite"
		details = map[string]interface{}{"code": "INTERNAL_ERROR"}
	}

	ctx.JSON(status, gin.H{
		"error":   message,
		"details": details,
	})
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "Identifiant invalide",
			"details": map[string]interface{}{
				"code":  "INVALID_ID",
				"param": name,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est requis"
	case "min":
		return "Valeur inférieure au minimum " + fe.Param()
	case "max":
		return "Valeur supérieure au maximum " + fe.Param()
	case "oneof":
		return "Valeur invalide. Valeurs autorisées: " + fe.Param()
	case "datetime":
		return "Date invalide, format attendu AAAA-MM-JJ"
	default:
		return "Valeur invalide"
	}
}
