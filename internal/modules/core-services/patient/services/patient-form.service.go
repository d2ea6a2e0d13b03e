package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// Erreurs d'usage du contrôleur (les erreurs de champ restent des données)
var (
	ErrSubmitInProgress = errors.New("soumission déjà en cours")
	ErrUnknownField     = errors.New("champ inconnu")
	ErrAlreadySubmitted = errors.New("formulaire déjà soumis")
)

// SubmitFunc collaborateur appelé avec une fiche entièrement valide
type SubmitFunc func(ctx context.Context, record dto.PatientRecord) error

// FormController pilote la navigation entre étapes et la soumission
type FormController struct {
	mu     sync.Mutex
	state  FormState
	submit SubmitFunc
	now    func() time.Time
}

// NewFormController initial non nil => mode édition (tout visité et valide)
func NewFormController(initial *dto.PatientRecord, submit SubmitFunc, now func() time.Time) *FormController {
	if now == nil {
		now = time.Now
	}
	return &FormController{
		state:  NewFormState(initial),
		submit: submit,
		now:    now,
	}
}

// RestoreFormController reprend un brouillon : fiche, étape et champs visités
func RestoreFormController(draft dto.FormDraft, submit SubmitFunc, now func() time.Time) *FormController {
	c := NewFormController(nil, submit, now)

	var touched []dto.Field
	for _, name := range draft.Touched {
		if f, ok := dto.ParseField(name); ok {
			touched = append(touched, f)
		}
	}

	c.state.Record = draft.Record
	c.apply(FieldsTouched{Fields: touched})
	c.apply(StepChanged{Step: draft.Step})
	return c
}

// State copie de l'état courant
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// ChangeField onFieldChange : écrit la valeur, marque le champ visité, revalide
func (c *FormController) ChangeField(field dto.Field, value string) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lockedErr(); err != nil {
		return c.state.clone(), err
	}
	if _, ok := dto.ParseField(string(field)); !ok {
		return c.state.clone(), fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	c.apply(FieldChanged{Field: field, Value: value})
	return c.state.clone(), nil
}

// Next valide l'étape courante ; en cas d'échec les champs de l'étape sont
// marqués visités et les erreurs affichées, l'étape ne change pas
func (c *FormController) Next() (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lockedErr(); err != nil {
		return c.state.clone(), err
	}

	result := ValidateStepAt(c.state.Record, c.state.Step, c.now())
	if !result.IsValid {
		c.apply(FieldsTouched{Fields: dto.StepFields(c.state.Step)})
		c.apply(ErrorsShown{Errors: result.Errors})
		return c.state.clone(), nil
	}

	c.apply(StepChanged{Step: c.state.Step + 1})
	c.apply(ErrorsShown{Errors: nil})
	return c.state.clone(), nil
}

// Prev recule d'une étape sans valider
func (c *FormController) Prev() (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lockedErr(); err != nil {
		return c.state.clone(), err
	}
	c.apply(StepChanged{Step: c.state.Step - 1})
	c.apply(ErrorsShown{Errors: nil})
	return c.state.clone(), nil
}

// Submit valide toutes les étapes. En cas d'erreurs, elles deviennent la liste
// visible et l'étape courante devient la plus basse en échec. Sinon la fiche
// est transmise au collaborateur ; le verrou est relâché pendant l'appel.
func (c *FormController) Submit(ctx context.Context) (FormState, error) {
	c.mu.Lock()

	if err := c.lockedErr(); err != nil {
		state := c.state.clone()
		c.mu.Unlock()
		return state, err
	}

	result := ValidateAllAt(c.state.Record, c.now())
	if !result.IsValid {
		c.apply(ErrorsShown{Errors: result.Errors})
		c.apply(StepChanged{Step: LowestFailingStep(result.Errors)})
		state := c.state.clone()
		c.mu.Unlock()
		return state, nil
	}

	c.apply(ErrorsShown{Errors: nil})
	c.apply(SubmitStarted{})
	record := c.state.Record
	c.mu.Unlock()

	err := c.callSubmit(ctx, record)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.apply(SubmitFailed{Message: err.Error()})
		return c.state.clone(), fmt.Errorf("soumission patient: %w", err)
	}
	c.apply(SubmitSucceeded{})
	return c.state.clone(), nil
}

// lockedErr fiche figée pendant et après une soumission ; appelé sous c.mu
func (c *FormController) lockedErr() error {
	switch {
	case c.state.Submitting:
		return ErrSubmitInProgress
	case c.state.Submitted:
		return ErrAlreadySubmitted
	}
	return nil
}

func (c *FormController) callSubmit(ctx context.Context, record dto.PatientRecord) (err error) {
	if c.submit == nil {
		return nil
	}
	// Le drapeau Submitting doit toujours être relâché
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic dans le collaborateur de soumission: %v", r)
		}
	}()
	return c.submit(ctx, record)
}

func (c *FormController) apply(ev FormEvent) {
	c.state = Reduce(c.state, ev, c.now())
}
