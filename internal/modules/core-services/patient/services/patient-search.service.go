package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

// SearchSession terme et critères d'une recherche en cours.
// IsFiltering sert uniquement à l'affichage, il n'influence jamais les résultats.
type SearchSession struct {
	mu        sync.Mutex
	id        uuid.UUID
	term      string
	criteria  dto.FilterCriteria
	changedAt time.Time
	debounce  time.Duration
	lastSeen  time.Time
}

// NewSearchSession crée une session avec des critères initiaux
func NewSearchSession(term string, criteria dto.FilterCriteria, debounce time.Duration, now time.Time) *SearchSession {
	return &SearchSession{
		id:        uuid.New(),
		term:      term,
		criteria:  criteria,
		changedAt: now,
		debounce:  debounce,
		lastSeen:  now,
	}
}

// ID identifiant de la session
func (s *SearchSession) ID() uuid.UUID {
	return s.id
}

// SetTerm remplace le terme de recherche
func (s *SearchSession) SetTerm(term string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = term
	s.touch(now)
}

// MergeCriteria fusionne champ par champ
func (s *SearchSession) MergeCriteria(patch dto.CriteriaPatch, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = s.criteria.Merge(patch)
	s.touch(now)
}

// Clear remet terme et critères à zéro en une seule opération
func (s *SearchSession) Clear(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = ""
	s.criteria = dto.FilterCriteria{}
	s.touch(now)
}

// Snapshot lecture cohérente du terme et des critères
func (s *SearchSession) Snapshot() (string, dto.FilterCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term, s.criteria
}

// IsFiltering vrai pendant la fenêtre de debounce qui suit un changement
func (s *SearchSession) IsFiltering(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.changedAt) < s.debounce
}

func (s *SearchSession) touch(now time.Time) {
	s.changedAt = now
	s.lastSeen = now
}

// PatientSearchService filtre la collection des patients, en ponctuel ou par session
type PatientSearchService struct {
	repo   PatientRepository
	cache  PatientListCache
	cfg    config.PatientConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*SearchSession
}

// NewPatientSearchService crée une nouvelle instance du service
func NewPatientSearchService(
	repo PatientRepository,
	cache PatientListCache,
	cfg *config.PatientConfig,
	logger *zap.Logger,
) *PatientSearchService {
	return &PatientSearchService{
		repo:     repo,
		cache:    cache,
		cfg:      *cfg,
		logger:   logger.Named("patient-search"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*SearchSession),
	}
}

// SearchPatients recherche ponctuelle : cache-first puis PostgreSQL
func (s *PatientSearchService) SearchPatients(ctx context.Context, req *dto.SearchPatientRequest) (*dto.SearchPatientResponse, error) {
	req.SetDefaults(s.cfg.MaxPageSize)
	return s.run(ctx, req.Term, req.Criteria(), req.Page, req.Limit)
}

// OpenSession crée une session de recherche
func (s *PatientSearchService) OpenSession(ctx context.Context, req *dto.CreateSearchSessionRequest, page, limit int) (*dto.SearchSessionResponse, error) {
	criteria := dto.FilterCriteria{}
	if req.Criteria != nil {
		criteria = *req.Criteria
	}

	session := NewSearchSession(req.Term, criteria, s.cfg.SearchDebounce, s.now())

	s.mu.Lock()
	s.evictExpiredLocked()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.logger.Debug("session de recherche ouverte", zap.String("session_id", session.ID().String()))
	return s.respond(ctx, session, page, limit)
}

// UpdateSession terme remplacé s'il est fourni, critères fusionnés
func (s *PatientSearchService) UpdateSession(ctx context.Context, id uuid.UUID, req *dto.UpdateSearchSessionRequest, page, limit int) (*dto.SearchSessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if req.Term != nil {
		session.SetTerm(*req.Term, now)
	}
	if req.Criteria != nil {
		session.MergeCriteria(*req.Criteria, now)
	}
	return s.respond(ctx, session, page, limit)
}

// ClearSession réinitialise terme et critères
func (s *PatientSearchService) ClearSession(ctx context.Context, id uuid.UUID, page, limit int) (*dto.SearchSessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.Clear(s.now())
	return s.respond(ctx, session, page, limit)
}

// GetSession résultats courants d'une session
func (s *PatientSearchService) GetSession(ctx context.Context, id uuid.UUID, page, limit int) (*dto.SearchSessionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, session, page, limit)
}

// CloseSession supprime une session
func (s *PatientSearchService) CloseSession(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return newSessionNotFound(id)
	}
	delete(s.sessions, id)
	return nil
}

func (s *PatientSearchService) respond(ctx context.Context, session *SearchSession, page, limit int) (*dto.SearchSessionResponse, error) {
	term, criteria := session.Snapshot()
	page, limit = dto.NormalizePage(page, limit, s.cfg.MaxPageSize)

	results, err := s.run(ctx, term, criteria, page, limit)
	if err != nil {
		return nil, err
	}

	return &dto.SearchSessionResponse{
		SessionID:   session.ID(),
		Term:        term,
		Criteria:    criteria,
		IsFiltering: session.IsFiltering(s.now()),
		Results:     *results,
	}, nil
}

func (s *PatientSearchService) run(ctx context.Context, term string, criteria dto.FilterCriteria, page, limit int) (*dto.SearchPatientResponse, error) {
	startTime := time.Now()

	collection, cacheHit, err := s.loadCollection(ctx)
	if err != nil {
		return nil, err
	}

	filtered := FilterPatients(collection, term, criteria, s.now())

	return &dto.SearchPatientResponse{
		Patients:   dto.Paginate(filtered, page, limit),
		Pagination: dto.NewPaginationInfo(page, limit, len(filtered)),
		SearchInfo: dto.SearchMetadata{
			ExecutionTimeMs: int(time.Since(startTime).Milliseconds()),
			CacheHit:        cacheHit,
			TotalResults:    len(filtered),
			AppliedFilters:  criteria.AppliedFilters(term),
		},
	}, nil
}

// loadCollection 1. Redis 2. PostgreSQL + réchauffage du cache
func (s *PatientSearchService) loadCollection(ctx context.Context) ([]dto.PatientListItem, bool, error) {
	if items, ok := s.cache.GetPatientList(ctx); ok {
		return items, true, nil
	}

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load patient list: %w", err)
	}
	s.cache.SetPatientList(ctx, items)
	return items, false, nil
}

func (s *PatientSearchService) session(id uuid.UUID) (*SearchSession, error) {
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

func (s *PatientSearchService) evictExpiredLocked() {
	if s.cfg.FormSessionTTL <= 0 {
		return
	}
	now := s.now()
	for id, session := range s.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastSeen)
		session.mu.Unlock()
		if idle > s.cfg.FormSessionTTL {
			delete(s.sessions, id)
		}
	}
}
