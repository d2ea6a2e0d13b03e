package services

import (
	"context"

	"github.com/google/uuid"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// PatientRepository stockage durable des patients (PostgreSQL)
type PatientRepository interface {
	Insert(ctx context.Context, patient *dto.PatientDetail) error
	Update(ctx context.Context, patient *dto.PatientDetail) error
	GetByID(ctx context.Context, id uuid.UUID) (*dto.PatientDetail, error)
	ExistsByCPF(ctx context.Context, cpf string, excludeID *uuid.UUID) (bool, error)
	ListAll(ctx context.Context) ([]dto.PatientListItem, error)
}

// PatientListCache instantané de la collection de recherche (Redis)
type PatientListCache interface {
	GetPatientList(ctx context.Context) ([]dto.PatientListItem, bool)
	SetPatientList(ctx context.Context, items []dto.PatientListItem)
	InvalidatePatientList(ctx context.Context)
	AcquireCPFLock(ctx context.Context, cpf string) (release func(), err error)
}

// FormDraftStore brouillons de saisie (MongoDB)
type FormDraftStore interface {
	SaveDraft(ctx context.Context, draft *dto.FormDraft) error
	LoadDraft(ctx context.Context, id string) (*dto.FormDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// PatientCodeGenerator attribution des codes patient
type PatientCodeGenerator interface {
	GeneratePatientCode(ctx context.Context) (*dto.CodeGenerationResponse, error)
}

// PatientSubmitter enregistrement définitif d'une fiche validée
type PatientSubmitter interface {
	SubmitPatient(ctx context.Context, cmd dto.SubmitCommand) (*dto.PatientCreationResult, error)
}
