package services

import (
	"time"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// FormState état complet d'un formulaire de saisie. Les valeurs produites par
// Reduce ne partagent jamais leurs maps ou slices avec l'état d'entrée.
type FormState struct {
	Record  dto.PatientRecord
	Step    int
	Touched map[dto.Field]struct{} // union uniquement
	Valid   map[dto.Field]struct{} // recalculé en entier à chaque passe
	Errors  []dto.ValidationError  // liste visible, remplacée en bloc

	Submitting  bool
	Submitted   bool
	SubmitError string
}

// FormEvent événement appliqué par Reduce
type FormEvent interface {
	formEvent()
}

// FieldChanged saisie d'une valeur
type FieldChanged struct {
	Field dto.Field
	Value string
}

// FieldsTouched marque des champs comme visités
type FieldsTouched struct {
	Fields []dto.Field
}

// StepChanged déplacement vers une étape (bornée à 1..4)
type StepChanged struct {
	Step int
}

// ErrorsShown remplace la liste visible (nil pour effacer)
type ErrorsShown struct {
	Errors []dto.ValidationError
}

// SubmitStarted la soumission est en cours
type SubmitStarted struct{}

// SubmitSucceeded la soumission a abouti
type SubmitSucceeded struct{}

// SubmitFailed la soumission a échoué côté collaborateur
type SubmitFailed struct {
	Message string
}

func (FieldChanged) formEvent()    {}
func (FieldsTouched) formEvent()   {}
func (StepChanged) formEvent()     {}
func (ErrorsShown) formEvent()     {}
func (SubmitStarted) formEvent()   {}
func (SubmitSucceeded) formEvent() {}
func (SubmitFailed) formEvent()    {}

// NewFormState état initial. Avec une fiche initiale (édition), tous les
// champs sont marqués visités et valides d'emblée.
func NewFormState(initial *dto.PatientRecord) FormState {
	state := FormState{
		Step:    dto.FirstStep,
		Touched: map[dto.Field]struct{}{},
		Valid:   map[dto.Field]struct{}{},
	}
	if initial == nil {
		return state
	}

	state.Record = *initial
	for _, f := range dto.AllFields() {
		state.Touched[f] = struct{}{}
		state.Valid[f] = struct{}{}
	}
	return state
}

// Reduce applique un événement et retourne le nouvel état
func Reduce(state FormState, event FormEvent, now time.Time) FormState {
	next := state.clone()

	switch ev := event.(type) {
	case FieldChanged:
		if !ev.Field.Set(&next.Record, ev.Value) {
			return next
		}
		next.Touched[ev.Field] = struct{}{}
		next.recomputeValid(now)

	case FieldsTouched:
		for _, f := range ev.Fields {
			next.Touched[f] = struct{}{}
		}

	case StepChanged:
		next.Step = clampStep(ev.Step)
		next.recomputeValid(now)

	case ErrorsShown:
		next.Errors = append([]dto.ValidationError(nil), ev.Errors...)

	case SubmitStarted:
		next.Submitting = true
		next.SubmitError = ""

	case SubmitSucceeded:
		next.Submitting = false
		next.Submitted = true

	case SubmitFailed:
		next.Submitting = false
		next.SubmitError = ev.Message
	}

	return next
}

// ErrorFor message visible pour un champ
func (s FormState) ErrorFor(field dto.Field) (string, bool) {
	for _, e := range s.Errors {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

// IsTouched vrai si le champ a déjà été modifié ou visité
func (s FormState) IsTouched(field dto.Field) bool {
	_, ok := s.Touched[field]
	return ok
}

// IsValid indicateur de succès : visité ET valide
func (s FormState) IsValid(field dto.Field) bool {
	_, valid := s.Valid[field]
	return valid && s.IsTouched(field)
}

// recomputeValid un champ est valide s'il n'est pas vide et que les règles de
// sa propre étape ne le rejettent pas. Les erreurs visibles restent celles de
// l'étape courante ; seul l'indicateur de succès couvre toutes les étapes.
func (s *FormState) recomputeValid(now time.Time) {
	result := ValidateAllAt(s.Record, now)

	failing := make(map[dto.Field]struct{}, len(result.Errors))
	for _, e := range result.Errors {
		failing[e.Field] = struct{}{}
	}

	valid := make(map[dto.Field]struct{})
	for _, f := range dto.AllFields() {
		if _, bad := failing[f]; bad {
			continue
		}
		if f.IsFilled(&s.Record) {
			valid[f] = struct{}{}
		}
	}
	s.Valid = valid
}

func (s FormState) clone() FormState {
	out := s
	out.Touched = make(map[dto.Field]struct{}, len(s.Touched))
	for f := range s.Touched {
		out.Touched[f] = struct{}{}
	}
	out.Valid = make(map[dto.Field]struct{}, len(s.Valid))
	for f := range s.Valid {
		out.Valid[f] = struct{}{}
	}
	out.Errors = append([]dto.ValidationError(nil), s.Errors...)
	return out
}

func clampStep(step int) int {
	if step < dto.FirstStep {
		return dto.FirstStep
	}
	if step > dto.LastStep {
		return dto.LastStep
	}
	return step
}
