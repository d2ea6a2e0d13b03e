package dto

import "time"

// CodeGenerationResponse représente le résultat de génération d'un code patient
type CodeGenerationResponse struct {
	CodePatient      string    `json:"code_patient"`
	ClinicCode       string    `json:"clinic_code"`
	Year             int       `json:"year"`
	Number           int       `json:"number"`
	Suffix           string    `json:"suffix"`
	Sequence         int64     `json:"sequence"`
	GeneratedAt      time.Time `json:"generated_at"`
	Source           string    `json:"source"` // "redis" ou "postgres"
	GenerationTimeMs int       `json:"generation_time_ms"`
}

// Sources possibles de la séquence
const (
	CodeSourceRedis    = "redis"
	CodeSourcePostgres = "postgres"
)

// CodeGenerationError représente les erreurs spécifiques à la génération de codes
type CodeGenerationError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ClinicCode string `json:"clinic_code"`
	Year       int    `json:"year,omitempty"`
}

// Constantes pour les erreurs de génération
const (
	ErrCodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	ErrCodeInvalidClinic       = "INVALID_CLINIC"
	ErrCodePostgresUnavailable = "POSTGRES_UNAVAILABLE"
)

// NewCodeGenerationError crée une nouvelle erreur de génération de code
func NewCodeGenerationError(code, message, clinicCode string, year int) *CodeGenerationError {
	return &CodeGenerationError{
		Code:       code,
		Message:    message,
		ClinicCode: clinicCode,
		Year:       year,
	}
}

// Error implémente l'interface error
func (e *CodeGenerationError) Error() string {
	return e.Message
}
