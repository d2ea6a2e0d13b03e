package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaPatchDistinguishesAbsentFromNull(t *testing.T) {
	minAge := 30
	maxAge := 40
	current := FilterCriteria{
		Statuses:  []string{PatientStatusActive},
		AgeMin:    &minAge,
		AgeMax:    &maxAge,
		Insurance: InsuranceYes,
	}

	var patch CriteriaPatch
	require.NoError(t, json.Unmarshal([]byte(`{"ageMax": null, "plan": ["Unimed"]}`), &patch))

	merged := current.Merge(patch)

	assert.Equal(t, []string{PatientStatusActive}, merged.Statuses, "absent keys are kept")
	assert.Equal(t, []string{"Unimed"}, merged.Plans)
	require.NotNil(t, merged.AgeMin)
	assert.Equal(t, 30, *merged.AgeMin)
	assert.Nil(t, merged.AgeMax, "explicit null clears the bound")
	assert.Equal(t, InsuranceYes, merged.Insurance)
}

func TestMergeDoesNotAliasPatchSlices(t *testing.T) {
	statuses := []string{PatientStatusPending}
	merged := FilterCriteria{}.Merge(CriteriaPatch{Statuses: Some(statuses)})

	statuses[0] = PatientStatusInactive
	assert.Equal(t, []string{PatientStatusPending}, merged.Statuses)
}

func TestFilterCriteriaIsEmpty(t *testing.T) {
	assert.True(t, FilterCriteria{}.IsEmpty())
	assert.False(t, FilterCriteria{Insurance: InsuranceNo}.IsEmpty())
	assert.Equal(t, []string{"term", "insurance"}, FilterCriteria{Insurance: InsuranceNo}.AppliedFilters("ana"))
}

func TestPagination(t *testing.T) {
	items := make([]PatientListItem, 45)

	page, limit := NormalizePage(0, 0, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	_, limit = NormalizePage(1, 500, 50)
	assert.Equal(t, 50, limit)

	info := NewPaginationInfo(3, 20, len(items))
	assert.Equal(t, 3, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.True(t, info.HasPrevious)

	assert.Len(t, Paginate(items, 3, 20), 5)
	assert.Empty(t, Paginate(items, 4, 20))
}
