package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// formSession session de saisie côté serveur
type formSession struct {
	id         uuid.UUID
	mode       string
	patientID  *uuid.UUID
	controller *FormController

	mu       sync.Mutex
	draftID  string
	patient  *dto.PatientDetail
	lastSeen time.Time
}

// PatientFormSessionService héberge les formulaires d'inscription en cours
type PatientFormSessionService struct {
	repo      PatientRepository
	submitter PatientSubmitter
	drafts    FormDraftStore
	cfg       config.PatientConfig
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*formSession
}

// NewPatientFormSessionService crée une nouvelle instance du service
func NewPatientFormSessionService(
	repo PatientRepository,
	submitter PatientSubmitter,
	drafts FormDraftStore,
	cfg *config.PatientConfig,
	logger *zap.Logger,
) *PatientFormSessionService {
	return &PatientFormSessionService{
		repo:      repo,
		submitter: submitter,
		drafts:    drafts,
		cfg:       *cfg,
		logger:    logger.Named("patient-form"),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*formSession),
	}
}

// Open ouvre une session : vide (création), pré-remplie (édition) ou reprise d'un brouillon
func (s *PatientFormSessionService) Open(ctx context.Context, req *dto.OpenFormRequest) (*dto.FormView, error) {
	session := &formSession{
		id:       uuid.New(),
		mode:     dto.FormModeCreate,
		lastSeen: s.now(),
	}

	switch {
	case req.DraftID != "":
		draft, err := s.drafts.LoadDraft(ctx, req.DraftID)
		if err != nil {
			return nil, err
		}
		session.mode = draft.Mode
		session.draftID = draft.ID
		if draft.PatientID != "" {
			id, err := uuid.Parse(draft.PatientID)
			if err != nil {
				return nil, fmt.Errorf("brouillon %s: patient_id invalide: %w", draft.ID, err)
			}
			session.patientID = &id
		}
		session.controller = RestoreFormController(*draft, s.submitFunc(session), s.now)

	case req.PatientID != nil:
		patient, err := s.repo.GetByID(ctx, *req.PatientID)
		if err != nil {
			return nil, err
		}
		id := patient.ID
		session.mode = dto.FormModeEdit
		session.patientID = &id
		session.controller = NewFormController(&patient.Record, s.submitFunc(session), s.now)

	default:
		session.controller = NewFormController(nil, s.submitFunc(session), s.now)
	}

	s.mu.Lock()
	s.evictExpiredLocked()
	s.sessions[session.id] = session
	s.mu.Unlock()

	s.logger.Debug("session de saisie ouverte",
		zap.String("session_id", session.id.String()),
		zap.String("mode", session.mode),
	)
	return s.view(session, session.controller.State()), nil
}

// Get vue courante d'une session
func (s *PatientFormSessionService) Get(id uuid.UUID) (*dto.FormView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.view(session, session.controller.State()), nil
}

// ChangeFields applique les modifications dans l'ordre ; un champ inconnu
// interrompt le lot sans annuler les modifications déjà appliquées
func (s *PatientFormSessionService) ChangeFields(id uuid.UUID, req *dto.ChangeFieldsRequest) (*dto.FormView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	for _, change := range req.Changes {
		field, ok := dto.ResolveField(change.Field, change.Section)
		if !ok {
			return nil, &ServiceError{
				Type:    ErrorTypeValidation,
				Message: fmt.Sprintf("Campo desconhecido: %s", change.Field),
				Details: map[string]interface{}{"code": "UNKNOWN_FIELD", "field": change.Field, "section": change.Section},
			}
		}
		if _, err := session.controller.ChangeField(field, change.Value); err != nil {
			return nil, err
		}
	}
	return s.view(session, session.controller.State()), nil
}

// Next passe à l'étape suivante si l'étape courante est valide
func (s *PatientFormSessionService) Next(id uuid.UUID) (*dto.FormView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	state, err := session.controller.Next()
	if err != nil {
		return nil, err
	}
	return s.view(session, state), nil
}

// Prev revient à l'étape précédente
func (s *PatientFormSessionService) Prev(id uuid.UUID) (*dto.FormView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	state, err := session.controller.Prev()
	if err != nil {
		return nil, err
	}
	return s.view(session, state), nil
}

// Submit valide l'ensemble de la fiche puis l'enregistre. Une fiche invalide
// n'est pas une erreur : la vue retournée porte les erreurs à afficher.
func (s *PatientFormSessionService) Submit(ctx context.Context, id uuid.UUID) (*dto.FormView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	state, err := session.controller.Submit(ctx)
	if err != nil {
		return nil, err
	}

	if state.Submitted {
		session.mu.Lock()
		draftID := session.draftID
		session.draftID = ""
		session.mu.Unlock()

		if draftID != "" {
			if err := s.drafts.DeleteDraft(ctx, draftID); err != nil {
				s.logger.Warn("suppression brouillon échouée", zap.String("draft_id", draftID), zap.Error(err))
			}
		}
	}
	return s.view(session, state), nil
}

// SaveDraft enregistre l'état courant (fiche, étape, champs visités)
func (s *PatientFormSessionService) SaveDraft(ctx context.Context, id uuid.UUID) (*dto.SaveDraftResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	state := session.controller.State()
	if state.Submitted {
		return nil, ErrAlreadySubmitted
	}

	session.mu.Lock()
	if session.draftID == "" {
		session.draftID = uuid.NewString()
	}
	draftID := session.draftID
	session.mu.Unlock()

	touched := make([]string, 0, len(state.Touched))
	for f := range state.Touched {
		touched = append(touched, f.String())
	}
	sort.Strings(touched)

	draft := &dto.FormDraft{
		ID:        draftID,
		SessionID: session.id.String(),
		Mode:      session.mode,
		Step:      state.Step,
		Record:    state.Record,
		Touched:   touched,
		SavedAt:   s.now().UTC(),
	}
	if session.patientID != nil {
		draft.PatientID = session.patientID.String()
	}

	if err := s.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return &dto.SaveDraftResponse{DraftID: draftID, SavedAt: draft.SavedAt}, nil
}

// Close abandonne une session ; le brouillon éventuel est conservé
func (s *PatientFormSessionService) Close(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return newSessionNotFound(id)
	}
	delete(s.sessions, id)
	return nil
}

// EvictExpired purge les sessions inactives ; retourne le nombre supprimé
func (s *PatientFormSessionService) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictExpiredLocked()
}

func (s *PatientFormSessionService) submitFunc(session *formSession) SubmitFunc {
	return func(ctx context.Context, record dto.PatientRecord) error {
		cmd := dto.SubmitCommand{Mode: session.mode, Record: record}
		if session.patientID != nil {
			cmd.PatientID = *session.patientID
		}

		result, err := s.submitter.SubmitPatient(ctx, cmd)
		if err != nil {
			return err
		}

		session.mu.Lock()
		session.patient = result.Patient
		session.mu.Unlock()
		return nil
	}
}

func (s *PatientFormSessionService) view(session *formSession, state FormState) *dto.FormView {
	session.mu.Lock()
	draftID := session.draftID
	patient := session.patient
	lastSeen := session.lastSeen
	session.mu.Unlock()

	fields := make([]dto.FieldView, 0, len(dto.AllFields()))
	for _, f := range dto.AllFields() {
		msg, _ := state.ErrorFor(f)
		fields = append(fields, dto.FieldView{
			Field:   f,
			Step:    f.Step(),
			Touched: state.IsTouched(f),
			Valid:   state.IsValid(f),
			Error:   msg,
		})
	}

	errs := state.Errors
	if errs == nil {
		errs = []dto.ValidationError{}
	}

	return &dto.FormView{
		SessionID:   session.id,
		Mode:        session.mode,
		PatientID:   session.patientID,
		DraftID:     draftID,
		Step:        state.Step,
		Record:      state.Record,
		Errors:      errs,
		Fields:      fields,
		Submitting:  state.Submitting,
		Submitted:   state.Submitted,
		SubmitError: state.SubmitError,
		Patient:     patient,
		ExpiresAt:   lastSeen.Add(s.cfg.FormSessionTTL),
	}
}

func (s *PatientFormSessionService) session(id uuid.UUID) (*formSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	session, ok := s.sessions[id]
	if !ok {
		return nil, newSessionNotFound(id)
	}
	session.mu.Lock()
	session.lastSeen = s.now()
	session.mu.Unlock()
	return session, nil
}

func (s *PatientFormSessionService) evictExpiredLocked() int {
	if s.cfg.FormSessionTTL <= 0 {
		return 0
	}
	now := s.now()
	evicted := 0
	for id, session := range s.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastSeen)
		submitting := session.controller.State().Submitting
		session.mu.Unlock()
		if idle > s.cfg.FormSessionTTL && !submitting {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// IsDraftNotFound vrai si l'erreur signale un brouillon absent ou expiré
func IsDraftNotFound(err error) bool {
	var notFound *dto.DraftNotFoundError
	return errors.As(err, &notFound)
}
