package services

import (
	"slices"
	"strings"
	"time"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/shared/validators"
)

// Bornes d'âge appliquées quand un seul côté est renseigné
const (
	defaultAgeMin = 0
	defaultAgeMax = 150
)

// FilterPatients applique les étapes du pipeline combinées en ET.
// Fonction pure : la collection d'entrée n'est pas modifiée.
func FilterPatients(records []dto.PatientListItem, term string, criteria dto.FilterCriteria, now time.Time) []dto.PatientListItem {
	matcher := newTermMatcher(term)
	ageMin, ageMax, ageActive := ageBounds(criteria)
	from, to, dateActive := dateBounds(criteria, now)

	out := make([]dto.PatientListItem, 0, len(records))
	for _, p := range records {
		if !matcher.match(p) {
			continue
		}
		if len(criteria.Statuses) > 0 && !slices.Contains(criteria.Statuses, p.Status) {
			continue
		}
		if len(criteria.Plans) > 0 && !slices.Contains(criteria.Plans, p.Plan) {
			continue
		}
		if len(criteria.Sexes) > 0 && !slices.Contains(criteria.Sexes, p.Sex) {
			continue
		}
		if ageActive && !ageWithin(p.BirthDate, ageMin, ageMax, now) {
			continue
		}
		if dateActive && !visitedWithin(p, from, to) {
			continue
		}
		if !insuranceMatches(criteria.Insurance, p.HasInsurance) {
			continue
		}
		out = append(out, p)
	}
	return out
}

type termMatcher struct {
	lower  string
	digits string
}

func newTermMatcher(term string) termMatcher {
	term = strings.TrimSpace(term)
	return termMatcher{
		lower:  strings.ToLower(term),
		digits: validators.OnlyDigits(term),
	}
}

// match : nom, e-mail (insensible à la casse) ou chiffres du CPF / téléphone
func (m termMatcher) match(p dto.PatientListItem) bool {
	if m.lower == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), m.lower) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Email), m.lower) {
		return true
	}
	if m.digits == "" {
		return false
	}
	return strings.Contains(validators.OnlyDigits(p.CPF), m.digits) ||
		strings.Contains(validators.OnlyDigits(p.Phone), m.digits)
}

func ageBounds(c dto.FilterCriteria) (int, int, bool) {
	if c.AgeMin == nil && c.AgeMax == nil {
		return 0, 0, false
	}
	lo, hi := defaultAgeMin, defaultAgeMax
	if c.AgeMin != nil {
		lo = *c.AgeMin
	}
	if c.AgeMax != nil {
		hi = *c.AgeMax
	}
	return lo, hi, true
}

// ageWithin bornes incluses ; date de naissance illisible => exclu
func ageWithin(birthDate string, lo, hi int, now time.Time) bool {
	birth, ok := validators.ParseDate(birthDate)
	if !ok {
		return false
	}
	age := validators.AgeAt(birth, now)
	return age >= lo && age <= hi
}

// dateBounds une borne illisible donne un intervalle vide : un critère
// malformé n'élargit jamais le résultat
func dateBounds(c dto.FilterCriteria, now time.Time) (time.Time, time.Time, bool) {
	if c.RegisteredFrom == "" && c.RegisteredTo == "" {
		return time.Time{}, time.Time{}, false
	}
	empty := func() (time.Time, time.Time, bool) {
		return dayOf(now), time.Time{}, true
	}

	from := time.Time{}
	if c.RegisteredFrom != "" {
		d, ok := validators.ParseDate(c.RegisteredFrom)
		if !ok {
			return empty()
		}
		from = d
	}
	to := dayOf(now)
	if c.RegisteredTo != "" {
		d, ok := validators.ParseDate(c.RegisteredTo)
		if !ok {
			return empty()
		}
		to = d
	}
	return from, to, true
}

// visitedWithin date d'inscription OU dernière visite dans [from, to], au jour près
func visitedWithin(p dto.PatientListItem, from, to time.Time) bool {
	in := func(t time.Time) bool {
		d := dayOf(t)
		return !d.Before(from) && !d.After(to)
	}
	if !p.RegisteredAt.IsZero() && in(p.RegisteredAt) {
		return true
	}
	return p.LastVisitAt != nil && in(*p.LastVisitAt)
}

func insuranceMatches(filter string, has bool) bool {
	switch filter {
	case dto.InsuranceYes:
		return has
	case dto.InsuranceNo:
		return !has
	case dto.InsuranceAny:
		return true
	default:
		return false
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
