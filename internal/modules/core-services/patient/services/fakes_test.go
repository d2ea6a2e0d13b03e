package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/shared/validators"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// validRecord fiche complète valide sans convention
func validRecord() dto.PatientRecord {
	return dto.PatientRecord{
		Name:          "Maria da Silva",
		CPF:           "529.982.247-25",
		RG:            "12.345.678-9",
		Sex:           dto.SexFemale,
		BirthDate:     "1985-03-20",
		Phone:         "(11) 98765-4321",
		Email:         "maria@example.com",
		MaritalStatus: "casada",
		Address: dto.Address{
			CEP:          "01310-100",
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

func withInsurance(r dto.PatientRecord) dto.PatientRecord {
	r.HasInsurance = true
	r.InsuranceProvider = "Unimed"
	r.InsuranceCardNumber = "123456789"
	r.InsuranceCardExpiry = "12/2027"
	return r
}

func testPatientConfig() *config.PatientConfig {
	return &config.PatientConfig{
		ClinicCode:     "CLINICA",
		FormSessionTTL: 30 * time.Minute,
		SearchDebounce: 300 * time.Millisecond,
		ListCacheTTL:   5 * time.Minute,
		MaxPageSize:    50,
		DraftTTL:       72 * time.Hour,
	}
}

// fakeRepo PatientRepository en mémoire
type fakeRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*dto.PatientDetail
	listErr  error
	listHits int
}

func newFakeRepo(patients ...*dto.PatientDetail) *fakeRepo {
	r := &fakeRepo{patients: make(map[uuid.UUID]*dto.PatientDetail)}
	for _, p := range patients {
		r.patients[p.ID] = p
	}
	return r
}

func (r *fakeRepo) Insert(_ context.Context, patient *dto.PatientDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cpfTakenLocked(patient.Record.CPF, &patient.ID) {
		return ErrDuplicateCPF
	}
	cp := *patient
	r.patients[patient.ID] = &cp
	return nil
}

func (r *fakeRepo) Update(_ context.Context, patient *dto.PatientDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patient.ID]; !ok {
		return dto.NewPatientNotFoundError(patient.ID)
	}
	if r.cpfTakenLocked(patient.Record.CPF, &patient.ID) {
		return ErrDuplicateCPF
	}
	cp := *patient
	r.patients[patient.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*dto.PatientDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, dto.NewPatientNotFoundError(id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ExistsByCPF(_ context.Context, cpf string, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cpfTakenLocked(cpf, excludeID), nil
}

func (r *fakeRepo) ListAll(_ context.Context) ([]dto.PatientListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listHits++
	if r.listErr != nil {
		return nil, r.listErr
	}
	items := make([]dto.PatientListItem, 0, len(r.patients))
	for _, p := range r.patients {
		items = append(items, p.ToListItem())
	}
	return items, nil
}

func (r *fakeRepo) cpfTakenLocked(cpf string, excludeID *uuid.UUID) bool {
	digits := validators.OnlyDigits(cpf)
	for id, p := range r.patients {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if validators.OnlyDigits(p.Record.CPF) == digits {
			return true
		}
	}
	return false
}

// fakeCache PatientListCache en mémoire
type fakeCache struct {
	mu            sync.Mutex
	items         []dto.PatientListItem
	cached        bool
	invalidations int
	locked        map[string]bool
	lockErr       error
	released      int
}

func newFakeCache() *fakeCache {
	return &fakeCache{locked: make(map[string]bool)}
}

func (c *fakeCache) GetPatientList(context.Context) ([]dto.PatientListItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items, c.cached
}

func (c *fakeCache) SetPatientList(_ context.Context, items []dto.PatientListItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.cached = true
}

func (c *fakeCache) InvalidatePatientList(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.cached = false
	c.invalidations++
}

func (c *fakeCache) AcquireCPFLock(_ context.Context, cpf string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lockErr != nil {
		return nil, c.lockErr
	}
	key := validators.OnlyDigits(cpf)
	if c.locked[key] {
		return nil, ErrCPFLocked
	}
	c.locked[key] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.locked, key)
		c.released++
	}, nil
}

// fakeCodeGenerator séquence locale
type fakeCodeGenerator struct {
	mu  sync.Mutex
	seq int64
	err error
}

func (g *fakeCodeGenerator) GeneratePatientCode(context.Context) (*dto.CodeGenerationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	resp, err := BuildPatientCode("CLINICA", testNow.Year(), g.seq)
	if err != nil {
		return nil, err
	}
	resp.GeneratedAt = testNow
	resp.Source = dto.CodeSourceRedis
	return resp, nil
}

// fakeDrafts FormDraftStore en mémoire
type fakeDrafts struct {
	mu     sync.Mutex
	drafts map[string]dto.FormDraft
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: make(map[string]dto.FormDraft)}
}

func (d *fakeDrafts) SaveDraft(_ context.Context, draft *dto.FormDraft) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drafts[draft.ID] = *draft
	return nil
}

func (d *fakeDrafts) LoadDraft(_ context.Context, id string) (*dto.FormDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.drafts[id]
	if !ok {
		return nil, &dto.DraftNotFoundError{DraftID: id}
	}
	return &draft, nil
}

func (d *fakeDrafts) DeleteDraft(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.drafts, id)
	return nil
}

func existingPatient(record dto.PatientRecord, code string) *dto.PatientDetail {
	return &dto.PatientDetail{
		ID:           uuid.New(),
		Code:         code,
		Record:       record,
		Status:       dto.PatientStatusActive,
		Plan:         dto.PlanFor(record),
		RegisteredAt: testNow.AddDate(0, -2, 0),
		UpdatedAt:    testNow.AddDate(0, -2, 0),
	}
}

func mustField(name string) dto.Field {
	f, ok := dto.ParseField(name)
	if !ok {
		panic(fmt.Sprintf("unknown field %s", name))
	}
	return f
}
