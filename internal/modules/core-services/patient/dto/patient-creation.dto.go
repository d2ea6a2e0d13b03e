package dto

import (
	"github.com/google/uuid"
)

// Modes d'ouverture d'un formulaire
const (
	FormModeCreate = "create"
	FormModeEdit   = "edit"
)

// PatientCreationResult représente le résultat de la soumission d'une fiche
type PatientCreationResult struct {
	Patient        *PatientDetail          `json:"patient"`
	Mode           string                  `json:"mode"`
	CodeGeneration *CodeGenerationResponse `json:"code_generation,omitempty"`
	CreationTimeMs int                     `json:"creation_time_ms"`
	StepsExecuted  []string                `json:"steps_executed"`
}

// SubmitCommand fiche validée transmise au service de création
type SubmitCommand struct {
	Mode      string
	PatientID uuid.UUID // renseigné en mode édition
	Record    PatientRecord
}
