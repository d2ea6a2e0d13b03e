package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/shared/utils"
	"clinica-suite-core/internal/shared/validators"
)

// PatientCreationService orchestre l'enregistrement d'une fiche validée
type PatientCreationService struct {
	repo          PatientRepository
	cache         PatientListCache
	codeGenerator PatientCodeGenerator
	logger        *zap.Logger
	now           func() time.Time
}

// NewPatientCreationService crée une nouvelle instance du service
func NewPatientCreationService(
	repo PatientRepository,
	cache PatientListCache,
	codeGenerator PatientCodeGenerator,
	logger *zap.Logger,
) *PatientCreationService {
	return &PatientCreationService{
		repo:          repo,
		cache:         cache,
		codeGenerator: codeGenerator,
		logger:        logger.Named("patient-creation"),
		now:           time.Now,
	}
}

// SubmitPatient crée (ou met à jour en mode édition) le patient correspondant à la fiche
func (s *PatientCreationService) SubmitPatient(ctx context.Context, cmd dto.SubmitCommand) (*dto.PatientCreationResult, error) {
	startTime := time.Now()
	var stepsExecuted []string
	cpfHash := utils.HashIdentifier(validators.OnlyDigits(cmd.Record.CPF))

	// 1. Verrou court sur le CPF (deux soumissions simultanées du même patient)
	stepsExecuted = append(stepsExecuted, "cpf_lock")
	release, err := s.cache.AcquireCPFLock(ctx, cmd.Record.CPF)
	if err != nil {
		if errors.Is(err, ErrCPFLocked) {
			return nil, newConflictError("Uma solicitação para este CPF já está em andamento", map[string]interface{}{
				"code": "SUBMIT_IN_PROGRESS",
			})
		}
		// Redis indisponible : l'unicité reste garantie par la transaction PostgreSQL
		s.logger.Warn("verrou cpf indisponible", zap.String("cpf_hash", cpfHash), zap.Error(err))
		release = func() {}
	}
	defer release()

	// 2. Vérification anti-doublon
	stepsExecuted = append(stepsExecuted, "duplicate_check")
	var exclude *uuid.UUID
	if cmd.Mode == dto.FormModeEdit {
		exclude = &cmd.PatientID
	}
	exists, err := s.repo.ExistsByCPF(ctx, cmd.Record.CPF, exclude)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if exists {
		return nil, duplicateCPFError()
	}

	result := &dto.PatientCreationResult{Mode: cmd.Mode}

	if cmd.Mode == dto.FormModeEdit {
		stepsExecuted = append(stepsExecuted, "patient_update")
		patient, err := s.updatePatient(ctx, cmd)
		if err != nil {
			return nil, err
		}
		result.Patient = patient
	} else {
		// 3. Génération du code patient unique
		stepsExecuted = append(stepsExecuted, "code_generation")
		codeGeneration, err := s.codeGenerator.GeneratePatientCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("code generation failed: %w", err)
		}
		result.CodeGeneration = codeGeneration

		// 4. Création du patient en transaction
		stepsExecuted = append(stepsExecuted, "patient_creation")
		now := s.now()
		patient := &dto.PatientDetail{
			ID:           uuid.New(),
			Code:         codeGeneration.CodePatient,
			Record:       cmd.Record,
			Status:       dto.PatientStatusActive,
			Plan:         dto.PlanFor(cmd.Record),
			RegisteredAt: now,
			UpdatedAt:    now,
		}
		if err := s.repo.Insert(ctx, patient); err != nil {
			if errors.Is(err, ErrDuplicateCPF) {
				return nil, duplicateCPFError()
			}
			return nil, fmt.Errorf("patient creation failed: %w", err)
		}
		result.Patient = patient
	}

	// 5. Invalidation de l'instantané de recherche
	stepsExecuted = append(stepsExecuted, "cache_invalidation")
	s.cache.InvalidatePatientList(ctx)

	result.StepsExecuted = stepsExecuted
	result.CreationTimeMs = int(time.Since(startTime).Milliseconds())

	s.logger.Info("patient enregistré",
		zap.String("component", "AUDIT"),
		zap.String("patient_id", result.Patient.ID.String()),
		zap.String("code", result.Patient.Code),
		zap.String("mode", cmd.Mode),
		zap.Int("duration_ms", result.CreationTimeMs),
	)
	return result, nil
}

// GetPatient fiche complète d'un patient (ouverture en mode édition)
func (s *PatientCreationService) GetPatient(ctx context.Context, id uuid.UUID) (*dto.PatientDetail, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PatientCreationService) updatePatient(ctx context.Context, cmd dto.SubmitCommand) (*dto.PatientDetail, error) {
	patient, err := s.repo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}

	patient.Record = cmd.Record
	patient.Plan = dto.PlanFor(cmd.Record)
	patient.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, ErrDuplicateCPF) {
			return nil, duplicateCPFError()
		}
		return nil, fmt.Errorf("patient update failed: %w", err)
	}
	return patient, nil
}

func duplicateCPFError() *ServiceError {
	return newConflictError("CPF já cadastrado para outro paciente", map[string]interface{}{
		"code":  dto.ValidationErrorDuplicateFound,
		"field": dto.FieldCPF,
	})
}
