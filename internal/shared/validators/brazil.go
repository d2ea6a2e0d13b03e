package validators

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validateurs purs pour les documents et formats brésiliens.
// Aucun ne retourne d'erreur : le moteur de formulaire transforme les booléens
// en ValidationError avec le message adapté au champ.

const DateLayout = "2006-01-02"

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	ufRegex    = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Séquences CPF à chiffre répété, arithmétiquement valides mais refusées
var repeatedCPFs = map[string]struct{}{
	"00000000000": {}, "11111111111": {}, "22222222222": {}, "33333333333": {},
	"44444444444": {}, "55555555555": {}, "66666666666": {}, "77777777777": {},
	"88888888888": {}, "99999999999": {},
}

// OnlyDigits retire tout caractère non numérique
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF vérifie le format et les deux chiffres de contrôle d'un CPF
func IsValidCPF(value string) bool {
	cpf := OnlyDigits(value)
	if len(cpf) != 11 {
		return false
	}
	if _, repeated := repeatedCPFs[cpf]; repeated {
		return false
	}

	digits := make([]int, 11)
	for i, r := range cpf {
		digits[i] = int(r - '0')
	}

	return CPFCheckDigit(digits[:9]) == digits[9] &&
		CPFCheckDigit(digits[:10]) == digits[10]
}

// CPFCheckDigit calcule le chiffre de contrôle suivant pour 9 ou 10 chiffres.
// Poids décroissants de len+1 à 2, somme*10 mod 11, reste 10 ramené à 0.
func CPFCheckDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest >= 10 {
		return 0
	}
	return rest
}

// IsValidEmail contrôle de forme simple (un @, un point après le @)
func IsValidEmail(value string) bool {
	return emailRegex.MatchString(value)
}

// IsValidPhone accepte fixe (10 chiffres) ou mobile (11 chiffres) avec DDD
func IsValidPhone(value string) bool {
	n := len(OnlyDigits(value))
	return n == 10 || n == 11
}

// IsValidCEP code postal à 8 chiffres
func IsValidCEP(value string) bool {
	return len(OnlyDigits(value)) == 8
}

// IsValidRG numéro RG entre 7 et 12 chiffres
func IsValidRG(value string) bool {
	n := len(OnlyDigits(value))
	return n >= 7 && n <= 12
}

// IsValidUF sigle d'état sur deux lettres majuscules
func IsValidUF(value string) bool {
	return ufRegex.MatchString(value)
}

// IsValidName au moins 2 caractères, lettres (accentuées comprises) et espaces
func IsValidName(value string) bool {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) < 2 {
		return false
	}
	return nameRegex.MatchString(trimmed)
}

// ParseDate interprète une date AAAA-MM-JJ. Les dates impossibles (31/02) sont refusées.
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsValidDate date réelle, pas dans le futur, année > 1900
func IsValidDate(value string, now time.Time) bool {
	t, ok := ParseDate(value)
	if !ok {
		return false
	}
	if t.Year() <= 1900 {
		return false
	}
	return !t.After(startOfDay(now))
}

// AgeAt calcule l'âge révolu à la date now (mois et jour pris en compte)
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsValidAge âge calculé positif ou nul, sans borne supérieure
func IsValidAge(value string, now time.Time) bool {
	birth, ok := ParseDate(value)
	if !ok {
		return false
	}
	return AgeAt(birth, now) >= 0
}

// IsValidCardExpiry validité carte d'assurance au format MM/AAAA.
// Seule l'année est comparée : un mois déjà écoulé de l'année courante reste accepté.
func IsValidCardExpiry(value string, now time.Time) bool {
	if len(value) != 7 || value[2] != '/' {
		return false
	}
	// Atoi accepte un signe : "+1/2030" ne doit pas passer
	if OnlyDigits(value[:2]) != value[:2] || OnlyDigits(value[3:]) != value[3:] {
		return false
	}
	month, err := strconv.Atoi(value[:2])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(value[3:])
	if err != nil {
		return false
	}
	return year >= now.Year()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
