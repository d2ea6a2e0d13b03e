package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/modules/core-services/patient"
	"clinica-suite-core/internal/modules/core-services/patient/controllers"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/services"
	"clinica-suite-core/internal/shared/validators"
)

// --- stockages en mémoire ---

type memRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*dto.PatientDetail
}

func (r *memRepo) Insert(_ context.Context, p *dto.PatientDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cpfTaken(p.Record.CPF, p.ID) {
		return services.ErrDuplicateCPF
	}
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *memRepo) Update(_ context.Context, p *dto.PatientDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; !ok {
		return dto.NewPatientNotFoundError(p.ID)
	}
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*dto.PatientDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, dto.NewPatientNotFoundError(id)
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) ExistsByCPF(_ context.Context, cpf string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exclude := uuid.Nil
	if excludeID != nil {
		exclude = *excludeID
	}
	return r.cpfTaken(cpf, exclude), nil
}

func (r *memRepo) ListAll(context.Context) ([]dto.PatientListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]dto.PatientListItem, 0, len(r.patients))
	for _, p := range r.patients {
		items = append(items, p.ToListItem())
	}
	return items, nil
}

func (r *memRepo) cpfTaken(cpf string, exclude uuid.UUID) bool {
	for id, p := range r.patients {
		if id != exclude && validators.OnlyDigits(p.Record.CPF) == validators.OnlyDigits(cpf) {
			return true
		}
	}
	return false
}

// noCache toujours froid, verrou toujours accordé
type noCache struct{}

func (noCache) GetPatientList(context.Context) ([]dto.PatientListItem, bool) { return nil, false }
func (noCache) SetPatientList(context.Context, []dto.PatientListItem)        {}
func (noCache) InvalidatePatientList(context.Context)                        {}
func (noCache) AcquireCPFLock(context.Context, string) (func(), error)       { return func() {}, nil }

type seqCodes struct {
	mu  sync.Mutex
	seq int64
}

func (g *seqCodes) GeneratePatientCode(context.Context) (*dto.CodeGenerationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return services.BuildPatientCode("CLINICA", time.Now().Year(), g.seq)
}

// disabledDrafts MongoDB non configuré
type disabledDrafts struct{}

func (disabledDrafts) SaveDraft(context.Context, *dto.FormDraft) error { return mongodb.ErrDisabled }
func (disabledDrafts) LoadDraft(context.Context, string) (*dto.FormDraft, error) {
	return nil, mongodb.ErrDisabled
}
func (disabledDrafts) DeleteDraft(context.Context, string) error { return mongodb.ErrDisabled }

// --- harnais ---

type harness struct {
	router *gin.Engine
	repo   *memRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validators.RegisterGinBindings())

	cfg := &config.PatientConfig{
		ClinicCode:     "CLINICA",
		FormSessionTTL: 30 * time.Minute,
		SearchDebounce: 300 * time.Millisecond,
		ListCacheTTL:   time.Minute,
		MaxPageSize:    50,
		DraftTTL:       72 * time.Hour,
	}
	logger := zap.NewNop()
	repo := &memRepo{patients: make(map[uuid.UUID]*dto.PatientDetail)}

	creation := services.NewPatientCreationService(repo, noCache{}, &seqCodes{}, logger)
	forms := services.NewPatientFormSessionService(repo, creation, disabledDrafts{}, cfg, logger)
	search := services.NewPatientSearchService(repo, noCache{}, cfg, logger)

	r := gin.New()
	patient.RegisterPatientRoutes(r,
		controllers.NewPatientFormController(forms, services.NewPatientValidationService(), creation, logger),
		controllers.NewPatientSearchController(search, logger),
	)
	return &harness{router: r, repo: repo}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
}

func (h *harness) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func completeRecord() dto.PatientRecord {
	return dto.PatientRecord{
		Name:          "Maria da Silva",
		CPF:           "52998224725",
		RG:            "12.345.678-9",
		Sex:           dto.SexFemale,
		BirthDate:     "1985-03-20",
		Phone:         "11987654321",
		Email:         "maria@example.com",
		MaritalStatus: "casada",
		Address: dto.Address{
			CEP:          "01310100",
			Street:       "Avenida Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "São Paulo",
			State:        "SP",
		},
		EmergencyContact: dto.EmergencyContact{
			Name:         "João da Silva",
			CPF:          "111.444.777-35",
			Phone:        "11987654322",
			Relationship: "cônjuge",
		},
	}
}

func changesFor(r dto.PatientRecord) dto.ChangeFieldsRequest {
	var req dto.ChangeFieldsRequest
	for _, f := range dto.AllFields() {
		req.Changes = append(req.Changes, dto.FieldChange{Field: string(f), Value: f.Get(&r)})
	}
	return req
}

func (h *harness) openForm(t *testing.T) dto.FormView {
	t.Helper()
	code, env := h.do(t, http.MethodPost, "/api/v1/patients/forms", nil)
	require.Equal(t, http.StatusCreated, code)
	return decode[dto.FormView](t, env.Data)
}

// --- formulaire ---

func TestFormRoutes_CreateFlow(t *testing.T) {
	h := newHarness(t)
	view := h.openForm(t)
	assert.Equal(t, dto.FormModeCreate, view.Mode)
	assert.Equal(t, 1, view.Step)

	base := "/api/v1/patients/forms/" + view.SessionID.String()

	code, env := h.do(t, http.MethodPatch, base+"/fields", changesFor(completeRecord()))
	require.Equal(t, http.StatusOK, code)
	view = decode[dto.FormView](t, env.Data)
	assert.Empty(t, view.Errors)

	code, env = h.do(t, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, decode[dto.FormView](t, env.Data).Step)

	code, env = h.do(t, http.MethodPost, base+"/prev", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[dto.FormView](t, env.Data).Step)

	code, env = h.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, code)
	view = decode[dto.FormView](t, env.Data)
	assert.True(t, view.Submitted)
	require.NotNil(t, view.Patient)
	assert.Regexp(t, `^CLINICA-\d{4}-001-AAA$`, view.Patient.Code)

	// Fiche relue mise en forme
	code, env = h.do(t, http.MethodGet, "/api/v1/patients/"+view.Patient.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[dto.PatientDetail](t, env.Data)
	assert.Equal(t, "529.982.247-25", detail.Record.CPF)
	assert.Equal(t, "01310-100", detail.Record.Address.CEP)

	// Seconde soumission refusée
	code, env = h.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_SUBMITTED", env.Details["code"])

	// Fiche figée après enregistrement
	edit := dto.ChangeFieldsRequest{Changes: []dto.FieldChange{{Field: "name", Value: "Outro Nome"}}}
	code, env = h.do(t, http.MethodPatch, base+"/fields", edit)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_SUBMITTED", env.Details["code"])

	code, env = h.do(t, http.MethodPost, base+"/prev", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_SUBMITTED", env.Details["code"])

	code, _ = h.do(t, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, completeRecord().Name, decode[dto.FormView](t, env.Data).Record.Name)
}

func TestFormRoutes_InvalidSubmitReturnsView(t *testing.T) {
	h := newHarness(t)
	view := h.openForm(t)

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/forms/"+view.SessionID.String()+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Details["code"])
	assert.EqualValues(t, 1, env.Details["step"])

	view = decode[dto.FormView](t, env.Data)
	assert.False(t, view.Submitted)
	assert.NotEmpty(t, view.Errors)
	assert.Empty(t, h.repo.patients)
}

func TestFormRoutes_DuplicateCPF(t *testing.T) {
	h := newHarness(t)
	existing := &dto.PatientDetail{ID: uuid.New(), Code: "CLINICA-2025-001-AAA", Record: completeRecord(), Status: dto.PatientStatusActive}
	h.repo.patients[existing.ID] = existing

	view := h.openForm(t)
	base := "/api/v1/patients/forms/" + view.SessionID.String()
	code, _ := h.do(t, http.MethodPatch, base+"/fields", changesFor(completeRecord()))
	require.Equal(t, http.StatusOK, code)

	code, env := h.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DUPLICATE_FOUND", env.Details["code"])

	// La session reste ouverte avec le message d'échec
	code, env = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[dto.FormView](t, env.Data).SubmitError)
}

func TestFormRoutes_EditMode(t *testing.T) {
	h := newHarness(t)
	existing := &dto.PatientDetail{ID: uuid.New(), Code: "CLINICA-2025-004-AAA", Record: completeRecord(), Status: dto.PatientStatusActive}
	h.repo.patients[existing.ID] = existing

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/forms", dto.OpenFormRequest{PatientID: &existing.ID})
	require.Equal(t, http.StatusCreated, code)
	view := decode[dto.FormView](t, env.Data)
	assert.Equal(t, dto.FormModeEdit, view.Mode)
	assert.Equal(t, "Maria da Silva", view.Record.Name)

	missing := uuid.New()
	code, env = h.do(t, http.MethodPost, "/api/v1/patients/forms", dto.OpenFormRequest{PatientID: &missing})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PATIENT_NOT_FOUND", env.Details["code"])
}

func TestFormRoutes_FieldErrors(t *testing.T) {
	h := newHarness(t)
	view := h.openForm(t)
	base := "/api/v1/patients/forms/" + view.SessionID.String()

	code, env := h.do(t, http.MethodPatch, base+"/fields", dto.ChangeFieldsRequest{Changes: []dto.FieldChange{
		{Field: "shoeSize", Value: "42"},
	}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "UNKNOWN_FIELD", env.Details["code"])

	code, env = h.do(t, http.MethodPatch, base+"/fields", dto.ChangeFieldsRequest{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Details["code"])
	assert.Contains(t, env.Details, "champs")

	code, env = h.do(t, http.MethodPatch, base+"/fields", dto.ChangeFieldsRequest{Changes: []dto.FieldChange{
		{Field: "cep", Section: "address", Value: "01310-100"},
	}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "01310-100", decode[dto.FormView](t, env.Data).Record.Address.CEP)
}

func TestFormRoutes_SessionLookup(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodGet, "/api/v1/patients/forms/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Details["code"])

	code, env = h.do(t, http.MethodGet, "/api/v1/patients/forms/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Details["code"])

	view := h.openForm(t)
	base := "/api/v1/patients/forms/" + view.SessionID.String()
	code, _ = h.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFormRoutes_DraftsUnavailable(t *testing.T) {
	h := newHarness(t)
	view := h.openForm(t)

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/forms/"+view.SessionID.String()+"/draft", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "DRAFTS_UNAVAILABLE", env.Details["code"])

	code, env = h.do(t, http.MethodPost, "/api/v1/patients/forms", dto.OpenFormRequest{DraftID: "abc"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "DRAFTS_UNAVAILABLE", env.Details["code"])
}

func TestValidateRoute(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/validate", dto.ValidateRecordRequest{Step: 1})
	require.Equal(t, http.StatusOK, code)
	result := decode[dto.ValidationResult](t, env.Data)
	assert.False(t, result.IsValid)
	assert.Equal(t, dto.FieldName, result.Errors[0].Field)

	code, env = h.do(t, http.MethodPost, "/api/v1/patients/validate", dto.ValidateRecordRequest{Record: completeRecord()})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[dto.ValidationResult](t, env.Data).IsValid)

	code, _ = h.do(t, http.MethodPost, "/api/v1/patients/validate", dto.ValidateRecordRequest{Step: 9})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetPatientRoute_NotFound(t *testing.T) {
	h := newHarness(t)
	code, env := h.do(t, http.MethodGet, "/api/v1/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PATIENT_NOT_FOUND", env.Details["code"])
}

// --- recherche ---

func seedPatients(h *harness) {
	now := time.Now()
	for i, name := range []string{"Ana Souza", "Bruno Lima", "Carla Dias"} {
		r := completeRecord()
		r.Name = name
		r.Email = "p" + string(rune('a'+i)) + "@example.com"
		r.CPF = []string{"52998224725", "11144477735", "12345678909"}[i]
		p := &dto.PatientDetail{
			ID:           uuid.New(),
			Code:         "CLINICA-2025-00" + string(rune('1'+i)) + "-AAA",
			Record:       r,
			Status:       dto.PatientStatusActive,
			Plan:         dto.PlanFor(r),
			RegisteredAt: now.Add(-time.Duration(i) * time.Hour),
		}
		h.repo.patients[p.ID] = p
	}
}

func TestSearchRoute(t *testing.T) {
	h := newHarness(t)
	seedPatients(h)

	code, env := h.do(t, http.MethodGet, "/api/v1/patients/search?q=bruno", nil)
	require.Equal(t, http.StatusOK, code)
	resp := decode[dto.SearchPatientResponse](t, env.Data)
	require.Len(t, resp.Patients, 1)
	assert.Equal(t, "Bruno Lima", resp.Patients[0].Name)

	code, env = h.do(t, http.MethodGet, "/api/v1/patients/search?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, code)
	resp = decode[dto.SearchPatientResponse](t, env.Data)
	assert.Len(t, resp.Patients, 1)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasPrevious)

	code, env = h.do(t, http.MethodGet, "/api/v1/patients/search?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Details["code"])
}

func TestSearchSessionRoutes(t *testing.T) {
	h := newHarness(t)
	seedPatients(h)

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/search/sessions", dto.CreateSearchSessionRequest{Term: "carla"})
	require.Equal(t, http.StatusCreated, code)
	session := decode[dto.SearchSessionResponse](t, env.Data)
	assert.Equal(t, 1, session.Results.Pagination.Total)
	assert.True(t, session.IsFiltering)

	base := "/api/v1/patients/search/sessions/" + session.SessionID.String()

	code, env = h.do(t, http.MethodPatch, base, map[string]any{"term": ""})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, decode[dto.SearchSessionResponse](t, env.Data).Results.Pagination.Total)

	code, env = h.do(t, http.MethodPatch, base, map[string]any{"criteria": map[string]any{"sex": []string{"M"}}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, decode[dto.SearchSessionResponse](t, env.Data).Results.Pagination.Total)

	code, env = h.do(t, http.MethodPost, base+"/clear", nil)
	require.Equal(t, http.StatusOK, code)
	cleared := decode[dto.SearchSessionResponse](t, env.Data)
	assert.Empty(t, cleared.Term)
	assert.Equal(t, 3, cleared.Results.Pagination.Total)

	code, _ = h.do(t, http.MethodGet, base+"?limit=1", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = h.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, env = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Details["code"])
}

func TestSearchRoute_RejectsMalformedCriteria(t *testing.T) {
	h := newHarness(t)
	seedPatients(h)

	for _, query := range []string{
		"registered_from=01/05/2099",
		"registered_to=2025-02-30",
		"insurance=sim",
		"sex=X",
		"age_min=-1",
	} {
		t.Run(query, func(t *testing.T) {
			code, env := h.do(t, http.MethodGet, "/api/v1/patients/search?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "VALIDATION_ERROR", env.Details["code"])
		})
	}

	code, env := h.do(t, http.MethodGet, "/api/v1/patients/search?registered_from=2000-01-01", nil)
	require.Equal(t, http.StatusOK, code)
	resp := decode[dto.SearchPatientResponse](t, env.Data)
	assert.Equal(t, []string{"registration_date"}, resp.SearchInfo.AppliedFilters)
}

func TestSearchSessionRoutes_RejectMalformedCriteria(t *testing.T) {
	h := newHarness(t)
	seedPatients(h)

	bad := []map[string]any{
		{"insurance": "sim"},
		{"sex": []string{"X"}},
		{"status": []string{"archived"}},
		{"registeredFrom": "01/05/2099"},
		{"registeredTo": "2025-13-01"},
		{"ageMax": -4},
	}

	for _, criteria := range bad {
		code, env := h.do(t, http.MethodPost, "/api/v1/patients/search/sessions", map[string]any{"criteria": criteria})
		assert.Equal(t, http.StatusBadRequest, code, criteria)
		assert.Equal(t, "VALIDATION_ERROR", env.Details["code"], criteria)
	}

	code, env := h.do(t, http.MethodPost, "/api/v1/patients/search/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	session := decode[dto.SearchSessionResponse](t, env.Data)
	base := "/api/v1/patients/search/sessions/" + session.SessionID.String()

	for _, criteria := range bad {
		code, env := h.do(t, http.MethodPatch, base, map[string]any{"criteria": criteria})
		assert.Equal(t, http.StatusBadRequest, code, criteria)
		assert.Equal(t, "VALIDATION_ERROR", env.Details["code"], criteria)
	}

	// Rejet sans effet : les critères de la session sont intacts
	code, env = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	current := decode[dto.SearchSessionResponse](t, env.Data)
	assert.True(t, current.Criteria.IsEmpty())
	assert.Equal(t, 3, current.Results.Pagination.Total)

	// null remet un critère à zéro et reste accepté
	code, _ = h.do(t, http.MethodPatch, base, map[string]any{"criteria": map[string]any{"insurance": nil, "registeredFrom": "2000-01-01"}})
	assert.Equal(t, http.StatusOK, code)
}
