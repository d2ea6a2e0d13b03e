package dto

import (
	"time"

	"github.com/google/uuid"
)

// OpenFormRequest ouverture d'une session de saisie.
// Sans identifiant : création. PatientID : édition. DraftID : reprise d'un brouillon.
type OpenFormRequest struct {
	PatientID *uuid.UUID `json:"patient_id"`
	DraftID   string     `json:"draft_id"`
}

// FieldChange équivalent serveur de onFieldChange(field, value, section?)
type FieldChange struct {
	Field   string `json:"field" binding:"required"`
	Section string `json:"section" binding:"omitempty,oneof=address emergencyContact"`
	Value   string `json:"value"`
}

// ChangeFieldsRequest lot de modifications appliquées dans l'ordre
type ChangeFieldsRequest struct {
	Changes []FieldChange `json:"changes" binding:"required,min=1,dive"`
}

// FieldView état d'affichage d'un champ
type FieldView struct {
	Field   Field  `json:"field"`
	Step    int    `json:"step"`
	Touched bool   `json:"touched"`
	Valid   bool   `json:"valid"` // touched ET valide
	Error   string `json:"error,omitempty"`
}

// FormView vue complète d'une session de saisie
type FormView struct {
	SessionID   uuid.UUID         `json:"session_id"`
	Mode        string            `json:"mode"`
	PatientID   *uuid.UUID        `json:"patient_id,omitempty"`
	DraftID     string            `json:"draft_id,omitempty"`
	Step        int               `json:"step"`
	Record      PatientRecord     `json:"record"`
	Errors      []ValidationError `json:"errors"`
	Fields      []FieldView       `json:"fields"`
	Submitting  bool              `json:"submitting"`
	Submitted   bool              `json:"submitted"`
	SubmitError string            `json:"submit_error,omitempty"`
	Patient     *PatientDetail    `json:"patient,omitempty"` // renseigné après soumission réussie
	ExpiresAt   time.Time         `json:"expires_at"`
}

// FormDraft brouillon persisté dans la collection forms_patient_registration
type FormDraft struct {
	ID        string        `json:"id" bson:"_id"`
	SessionID string        `json:"session_id" bson:"session_id"`
	Mode      string        `json:"mode" bson:"mode"`
	PatientID string        `json:"patient_id,omitempty" bson:"patient_id,omitempty"`
	Step      int           `json:"step" bson:"step"`
	Record    PatientRecord `json:"record" bson:"record"`
	Touched   []string      `json:"touched" bson:"touched"`
	SavedAt   time.Time     `json:"saved_at" bson:"saved_at"`
}

// SaveDraftResponse confirmation d'enregistrement d'un brouillon
type SaveDraftResponse struct {
	DraftID string    `json:"draft_id"`
	SavedAt time.Time `json:"saved_at"`
}

// DraftNotFoundError brouillon absent ou expiré
type DraftNotFoundError struct {
	DraftID string `json:"draft_id"`
}

// Error implémente l'interface error
func (e *DraftNotFoundError) Error() string {
	return "Brouillon '" + e.DraftID + "' introuvable ou expiré"
}
