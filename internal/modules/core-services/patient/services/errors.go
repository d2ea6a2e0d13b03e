package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Types de ServiceError
const (
	ErrorTypeValidation = "validation"
	ErrorTypeNotFound   = "not_found"
	ErrorTypeConflict   = "conflict"
)

// ServiceError - Erreur métier commune pour tous les services du core-service patient
type ServiceError struct {
	Type    string                 `json:"type"` // "validation", "not_found", "conflict"
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// IsServiceError extrait une ServiceError du type donné
func IsServiceError(err error, errType string) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Type == errType
}

// ErrSessionNotFound session de formulaire ou de recherche absente ou expirée
var ErrSessionNotFound = errors.New("session introuvable ou expirée")

func newConflictError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Type: ErrorTypeConflict, Message: message, Details: details}
}

func newSessionNotFound(id uuid.UUID) error {
	return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
}
