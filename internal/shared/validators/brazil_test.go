package validators

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCPF(r *rand.Rand) []int {
	digits := make([]int, 11)
	for i := 0; i < 9; i++ {
		digits[i] = 1 + r.Intn(9)
	}
	digits[9] = CPFCheckDigit(digits[:9])
	digits[10] = CPFCheckDigit(digits[:10])
	return digits
}

func cpfString(digits []int) string {
	var b strings.Builder
	for _, d := range digits {
		b.WriteString(strconv.Itoa(d))
	}
	return b.String()
}

func TestIsValidCPF_RepeatedDigits(t *testing.T) {
	for d := 0; d <= 9; d++ {
		cpf := strings.Repeat(strconv.Itoa(d), 11)
		assert.False(t, IsValidCPF(cpf), cpf)
	}
}

func TestIsValidCPF_GeneratedAndFlipped(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		digits := buildCPF(r)
		cpf := cpfString(digits)
		if strings.Count(cpf, cpf[:1]) == 11 {
			continue
		}
		require.True(t, IsValidCPF(cpf), cpf)

		for _, pos := range []int{9, 10} {
			flipped := append([]int(nil), digits...)
			flipped[pos] = (flipped[pos] + 1) % 10
			assert.False(t, IsValidCPF(cpfString(flipped)), "check digit %d of %s", pos, cpf)
		}
	}
}

func TestIsValidCPF_Formats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"formatted", "529.982.247-25", true},
		{"digits only", "52998224725", true},
		{"wrong check digit", "529.982.247-24", false},
		{"too short", "5299822472", false},
		{"too long", "529982247251", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCPF(tt.value))
		})
	}
}

func TestShapeValidators(t *testing.T) {
	assert.True(t, IsValidEmail("ana@clinica.com.br"))
	assert.False(t, IsValidEmail("ana@clinica"))
	assert.False(t, IsValidEmail("ana silva@clinica.com"))
	assert.False(t, IsValidEmail("ana@@clinica.com"))

	assert.True(t, IsValidPhone("(11) 3456-7890"))
	assert.True(t, IsValidPhone("(11) 98765-4321"))
	assert.False(t, IsValidPhone("98765-4321"))
	assert.False(t, IsValidPhone("+55 (11) 98765-4321"))

	assert.True(t, IsValidCEP("01310-100"))
	assert.False(t, IsValidCEP("1310-100"))

	assert.True(t, IsValidRG("12.345.67"))
	assert.True(t, IsValidRG("123456789012"))
	assert.False(t, IsValidRG("123456"))
	assert.False(t, IsValidRG("1234567890123"))

	assert.True(t, IsValidUF("SP"))
	assert.False(t, IsValidUF("sp"))
	assert.False(t, IsValidUF("SPA"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("João da Silva"))
	assert.True(t, IsValidName("  Zé  "))
	assert.False(t, IsValidName("A"))
	assert.False(t, IsValidName("   "))
	assert.False(t, IsValidName("Maria 2"))
	assert.False(t, IsValidName("O'Neil"))
}

func TestIsValidDate(t *testing.T) {
	now := time.Date(2026, time.October, 15, 14, 0, 0, 0, time.UTC)

	assert.True(t, IsValidDate("1990-05-20", now))
	assert.True(t, IsValidDate("2026-10-15", now), "today is accepted")
	assert.False(t, IsValidDate("2026-10-16", now), "future")
	assert.False(t, IsValidDate("1900-12-31", now), "year must be after 1900")
	assert.True(t, IsValidDate("1901-01-01", now))
	assert.False(t, IsValidDate("2023-02-30", now), "impossible date")
	assert.False(t, IsValidDate("20/05/1990", now))
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	birth := func(s string) time.Time {
		b, ok := ParseDate(s)
		require.True(t, ok)
		return b
	}

	assert.Equal(t, 36, AgeAt(birth("1990-10-15"), now))
	assert.Equal(t, 35, AgeAt(birth("1990-10-16"), now))
	assert.Equal(t, 35, AgeAt(birth("1990-11-01"), now))
	assert.Equal(t, 36, AgeAt(birth("1990-09-30"), now))

	assert.True(t, IsValidAge("1910-01-01", now), "no upper bound")
	assert.False(t, IsValidAge("2027-01-01", now))
}

func TestIsValidCardExpiry(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsValidCardExpiry("13/2030", now), "invalid month")
	assert.False(t, IsValidCardExpiry("00/2030", now))
	assert.False(t, IsValidCardExpiry("01/2020", now), "past year")
	assert.True(t, IsValidCardExpiry("12/2030", now))
	assert.False(t, IsValidCardExpiry("1/2030", now), "must be exactly MM/YYYY")
	assert.False(t, IsValidCardExpiry("01-2030", now))
	assert.False(t, IsValidCardExpiry("+1/2030", now), "signed month")
	assert.False(t, IsValidCardExpiry("12/+203", now), "signed year")
	assert.False(t, IsValidCardExpiry(" 1/2030", now))

	// Granularité annuelle : janvier de l'année courante reste accepté en octobre
	assert.True(t, IsValidCardExpiry(fmt.Sprintf("01/%d", now.Year()), now))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
	assert.Equal(t, "123", FormatCPF("123"))
	assert.Equal(t, "01310-100", FormatCEP("01310100"))
	assert.Equal(t, "(11) 98765-4321", FormatPhone("11987654321"))
	assert.Equal(t, "(11) 3456-7890", FormatPhone("1134567890"))
}
