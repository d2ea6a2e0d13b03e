package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newSearchFixture(t *testing.T) (*PatientSearchService, *fakeRepo, *fakeCache, *testClock) {
	t.Helper()

	repo := newFakeRepo()
	for _, item := range sampleCollection() {
		repo.patients[item.ID] = &dto.PatientDetail{
			ID:   item.ID,
			Code: item.Code,
			Record: dto.PatientRecord{
				Name: item.Name, CPF: item.CPF, Email: item.Email, Phone: item.Phone,
				Sex: item.Sex, BirthDate: item.BirthDate, HasInsurance: item.HasInsurance,
			},
			Status:       item.Status,
			Plan:         item.Plan,
			RegisteredAt: item.RegisteredAt,
			LastVisitAt:  item.LastVisitAt,
		}
	}
	cache := newFakeCache()
	clock := &testClock{now: testNow}

	svc := NewPatientSearchService(repo, cache, testPatientConfig(), zap.NewNop())
	svc.now = clock.Now
	return svc, repo, cache, clock
}

func TestSearchSession_IsFilteringWindow(t *testing.T) {
	s := NewSearchSession("", dto.FilterCriteria{}, 300*time.Millisecond, testNow)

	assert.True(t, s.IsFiltering(testNow.Add(299*time.Millisecond)))
	assert.False(t, s.IsFiltering(testNow.Add(300*time.Millisecond)))

	later := testNow.Add(time.Second)
	s.SetTerm("ana", later)
	assert.True(t, s.IsFiltering(later.Add(100*time.Millisecond)))
}

func TestSearchSession_MergeAndClear(t *testing.T) {
	s := NewSearchSession("ana", dto.FilterCriteria{Statuses: []string{dto.PatientStatusActive}}, 0, testNow)

	s.MergeCriteria(dto.CriteriaPatch{AgeMin: dto.Some(intPtr(30))}, testNow)
	term, criteria := s.Snapshot()
	assert.Equal(t, "ana", term)
	assert.Equal(t, []string{dto.PatientStatusActive}, criteria.Statuses)
	require.NotNil(t, criteria.AgeMin)
	assert.Equal(t, 30, *criteria.AgeMin)

	s.Clear(testNow)
	term, criteria = s.Snapshot()
	assert.Empty(t, term)
	assert.True(t, criteria.IsEmpty())
}

func TestSearchPatients_CacheFirst(t *testing.T) {
	svc, repo, cache, _ := newSearchFixture(t)
	ctx := context.Background()

	resp, err := svc.SearchPatients(ctx, &dto.SearchPatientRequest{Term: "ana"})
	require.NoError(t, err)
	assert.False(t, resp.SearchInfo.CacheHit)
	assert.Equal(t, 1, resp.SearchInfo.TotalResults)
	assert.Equal(t, 1, repo.listHits)
	assert.True(t, cache.cached)

	resp, err = svc.SearchPatients(ctx, &dto.SearchPatientRequest{Term: "ana"})
	require.NoError(t, err)
	assert.True(t, resp.SearchInfo.CacheHit)
	assert.Equal(t, 1, repo.listHits)
}

func TestSearchPatients_RepositoryFailure(t *testing.T) {
	svc, repo, _, _ := newSearchFixture(t)
	repo.listErr = errors.New("connection refused")

	_, err := svc.SearchPatients(context.Background(), &dto.SearchPatientRequest{})
	assert.ErrorIs(t, err, repo.listErr)
}

func TestSearchPatients_Pagination(t *testing.T) {
	svc, _, _, _ := newSearchFixture(t)

	resp, err := svc.SearchPatients(context.Background(), &dto.SearchPatientRequest{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Patients, 1)
	assert.Equal(t, 4, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestSearchSessionLifecycle(t *testing.T) {
	svc, _, _, clock := newSearchFixture(t)
	ctx := context.Background()

	opened, err := svc.OpenSession(ctx, &dto.CreateSearchSessionRequest{Term: "a"}, 0, 0)
	require.NoError(t, err)
	assert.True(t, opened.IsFiltering)
	assert.Equal(t, 4, opened.Results.SearchInfo.TotalResults)

	clock.Advance(time.Second)
	got, err := svc.GetSession(ctx, opened.SessionID, 0, 0)
	require.NoError(t, err)
	assert.False(t, got.IsFiltering)

	insured := dto.InsuranceYes
	updated, err := svc.UpdateSession(ctx, opened.SessionID, &dto.UpdateSearchSessionRequest{
		Criteria: &dto.CriteriaPatch{Insurance: dto.Some(insured)},
	}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", updated.Term)
	assert.Equal(t, 2, updated.Results.SearchInfo.TotalResults)
	assert.True(t, updated.IsFiltering)

	cleared, err := svc.ClearSession(ctx, opened.SessionID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, cleared.Term)
	assert.Equal(t, 4, cleared.Results.SearchInfo.TotalResults)

	require.NoError(t, svc.CloseSession(opened.SessionID))
	_, err = svc.GetSession(ctx, opened.SessionID, 0, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.CloseSession(uuid.New()), ErrSessionNotFound)
}

func TestSearchSession_IdleEviction(t *testing.T) {
	svc, _, _, clock := newSearchFixture(t)
	ctx := context.Background()

	opened, err := svc.OpenSession(ctx, &dto.CreateSearchSessionRequest{}, 0, 0)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	_, err = svc.GetSession(ctx, opened.SessionID, 0, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
