package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinica-suite-core/internal/shared/validators"
)

// PatientDetail représente un patient enregistré avec sa fiche complète
type PatientDetail struct {
	ID           uuid.UUID     `json:"id"`
	Code         string        `json:"code"`
	Record       PatientRecord `json:"record"`
	Status       string        `json:"status"`
	Plan         string        `json:"plan"`
	RegisteredAt time.Time     `json:"registeredAt"`
	LastVisitAt  *time.Time    `json:"lastVisitAt,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// PlanPrivate plan affecté aux patients sans convention
const PlanPrivate = "Particular"

// PlanFor dérive le plan d'une fiche (nom de la convention ou particulier)
func PlanFor(r PatientRecord) string {
	if r.HasInsurance && r.InsuranceProvider != "" {
		return r.InsuranceProvider
	}
	return PlanPrivate
}

// ToListItem projette le patient vers la collection de recherche
func (p *PatientDetail) ToListItem() PatientListItem {
	return PatientListItem{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Record.Name,
		CPF:          p.Record.CPF,
		Email:        p.Record.Email,
		Phone:        p.Record.Phone,
		Sex:          p.Record.Sex,
		BirthDate:    p.Record.BirthDate,
		Status:       p.Status,
		Plan:         p.Plan,
		HasInsurance: p.Record.HasInsurance,
		RegisteredAt: p.RegisteredAt,
		LastVisitAt:  p.LastVisitAt,
	}
}

// FormatRecord retourne une copie de la fiche avec CPF, CEP et téléphones mis en forme
func FormatRecord(r PatientRecord) PatientRecord {
	out := r
	out.CPF = validators.FormatCPF(r.CPF)
	out.Phone = validators.FormatPhone(r.Phone)
	out.Address.CEP = validators.FormatCEP(r.Address.CEP)
	out.EmergencyContact.CPF = validators.FormatCPF(r.EmergencyContact.CPF)
	out.EmergencyContact.Phone = validators.FormatPhone(r.EmergencyContact.Phone)
	return out
}

// PatientNotFoundError représente une erreur lorsque le patient n'est pas trouvé
type PatientNotFoundError struct {
	PatientID uuid.UUID `json:"patient_id"`
	Message   string    `json:"message"`
}

// Error implémente l'interface error
func (e *PatientNotFoundError) Error() string {
	return e.Message
}

// NewPatientNotFoundError crée une nouvelle erreur patient non trouvé
func NewPatientNotFoundError(patientID uuid.UUID) *PatientNotFoundError {
	return &PatientNotFoundError{
		PatientID: patientID,
		Message:   fmt.Sprintf("Patient '%s' introuvable", patientID),
	}
}
