package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
)

func TestAlphaSuffix(t *testing.T) {
	assert.Equal(t, "AAA", alphaSuffix(0))
	assert.Equal(t, "AAB", alphaSuffix(1))
	assert.Equal(t, "AAZ", alphaSuffix(25))
	assert.Equal(t, "ABA", alphaSuffix(26))
	assert.Equal(t, "ZZZ", alphaSuffix(26*26*26-1))
}

func TestBuildPatientCode(t *testing.T) {
	tests := []struct {
		seq    int64
		code   string
		number int
		suffix string
	}{
		{1, "CLINICA-2025-001-AAA", 1, "AAA"},
		{42, "CLINICA-2025-042-AAA", 42, "AAA"},
		{999, "CLINICA-2025-999-AAA", 999, "AAA"},
		{1000, "CLINICA-2025-001-AAB", 1, "AAB"},
		{codeCapacity, "CLINICA-2025-999-ZZZ", 999, "ZZZ"},
	}

	for _, tt := range tests {
		resp, err := BuildPatientCode("CLINICA", 2025, tt.seq)
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.CodePatient)
		assert.Equal(t, tt.number, resp.Number)
		assert.Equal(t, tt.suffix, resp.Suffix)
		assert.Equal(t, tt.seq, resp.Sequence)
	}
}

func TestBuildPatientCode_Errors(t *testing.T) {
	_, err := BuildPatientCode("CLINICA", 2025, codeCapacity+1)
	var genErr *dto.CodeGenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, dto.ErrCodeCapacityExceeded, genErr.Code)

	_, err = BuildPatientCode("CLINICA", 2025, 0)
	assert.Error(t, err)

	_, err = BuildPatientCode("", 2025, 1)
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, dto.ErrCodeInvalidClinic, genErr.Code)
}
