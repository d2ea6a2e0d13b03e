package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Statuts administratifs d'un patient
const (
	PatientStatusActive   = "ativo"
	PatientStatusInactive = "inativo"
	PatientStatusPending  = "pendente"
)

// Valeurs du filtre tri-état sur la convention
const (
	InsuranceAny = ""
	InsuranceYes = "true"
	InsuranceNo  = "false"
)

// PatientListItem patient tel qu'il apparaît dans la collection filtrée
type PatientListItem struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	CPF          string     `json:"cpf"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Sex          string     `json:"sex"`
	BirthDate    string     `json:"birthDate"`
	Status       string     `json:"status"`
	Plan         string     `json:"plan"`
	HasInsurance bool       `json:"hasInsurance"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastVisitAt  *time.Time `json:"lastVisitAt,omitempty"`
}

// FilterCriteria critères combinés en ET par le pipeline de filtrage.
// Listes vides et pointeurs nil = critère inactif. Les règles binding
// s'appliquent aux corps de session (création et patch).
type FilterCriteria struct {
	Statuses       []string `json:"status" binding:"omitempty,dive,oneof=ativo inativo pendente"`
	Plans          []string `json:"plan"`
	Sexes          []string `json:"sex" binding:"omitempty,dive,oneof=M F O"`
	AgeMin         *int     `json:"ageMin" binding:"omitempty,min=0"`
	AgeMax         *int     `json:"ageMax" binding:"omitempty,min=0"`
	RegisteredFrom string   `json:"registeredFrom" binding:"omitempty,datetime=2006-01-02"`
	RegisteredTo   string   `json:"registeredTo" binding:"omitempty,datetime=2006-01-02"`
	Insurance      string   `json:"insurance" binding:"omitempty,oneof=true false"`
}

// Optional distingue un champ absent d'un champ explicitement remis à zéro (null)
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some construit une valeur présente
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON n'est appelé que pour les clés présentes, null compris
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CriteriaPatch fusion champ par champ des critères
type CriteriaPatch struct {
	Statuses       Optional[[]string] `json:"status"`
	Plans          Optional[[]string] `json:"plan"`
	Sexes          Optional[[]string] `json:"sex"`
	AgeMin         Optional[*int]     `json:"ageMin"`
	AgeMax         Optional[*int]     `json:"ageMax"`
	RegisteredFrom Optional[string]   `json:"registeredFrom"`
	RegisteredTo   Optional[string]   `json:"registeredTo"`
	Insurance      Optional[string]   `json:"insurance"`
}

// Values critères portés par le patch seul, pour validation avant fusion
func (p CriteriaPatch) Values() FilterCriteria {
	return FilterCriteria{}.Merge(p)
}

// Merge applique le patch sans toucher aux critères absents
func (c FilterCriteria) Merge(p CriteriaPatch) FilterCriteria {
	out := c
	if p.Statuses.Set {
		out.Statuses = append([]string(nil), p.Statuses.Value...)
	}
	if p.Plans.Set {
		out.Plans = append([]string(nil), p.Plans.Value...)
	}
	if p.Sexes.Set {
		out.Sexes = append([]string(nil), p.Sexes.Value...)
	}
	if p.AgeMin.Set {
		out.AgeMin = p.AgeMin.Value
	}
	if p.AgeMax.Set {
		out.AgeMax = p.AgeMax.Value
	}
	if p.RegisteredFrom.Set {
		out.RegisteredFrom = p.RegisteredFrom.Value
	}
	if p.RegisteredTo.Set {
		out.RegisteredTo = p.RegisteredTo.Value
	}
	if p.Insurance.Set {
		out.Insurance = p.Insurance.Value
	}
	return out
}

// IsEmpty retourne true si aucun critère n'est actif
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Statuses) == 0 &&
		len(c.Plans) == 0 &&
		len(c.Sexes) == 0 &&
		c.AgeMin == nil &&
		c.AgeMax == nil &&
		c.RegisteredFrom == "" &&
		c.RegisteredTo == "" &&
		c.Insurance == InsuranceAny
}

// AppliedFilters liste des critères actifs pour les métadonnées
func (c FilterCriteria) AppliedFilters(term string) []string {
	filters := []string{}
	if term != "" {
		filters = append(filters, "term")
	}
	if len(c.Statuses) > 0 {
		filters = append(filters, "status")
	}
	if len(c.Plans) > 0 {
		filters = append(filters, "plan")
	}
	if len(c.Sexes) > 0 {
		filters = append(filters, "sex")
	}
	if c.AgeMin != nil || c.AgeMax != nil {
		filters = append(filters, "age")
	}
	if c.RegisteredFrom != "" || c.RegisteredTo != "" {
		filters = append(filters, "registration_date")
	}
	if c.Insurance != InsuranceAny {
		filters = append(filters, "insurance")
	}
	return filters
}

// SearchPatientRequest recherche ponctuelle (paramètres de requête)
type SearchPatientRequest struct {
	Term           string   `form:"q"`
	Statuses       []string `form:"status" binding:"omitempty,dive,oneof=ativo inativo pendente"`
	Plans          []string `form:"plan"`
	Sexes          []string `form:"sex" binding:"omitempty,dive,oneof=M F O"`
	AgeMin         *int     `form:"age_min" binding:"omitempty,min=0"`
	AgeMax         *int     `form:"age_max" binding:"omitempty,min=0"`
	RegisteredFrom string   `form:"registered_from" binding:"omitempty,datetime=2006-01-02"`
	RegisteredTo   string   `form:"registered_to" binding:"omitempty,datetime=2006-01-02"`
	Insurance      string   `form:"insurance" binding:"omitempty,oneof=true false"`

	// PAGINATION
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Criteria convertit les paramètres en critères de filtrage
func (r *SearchPatientRequest) Criteria() FilterCriteria {
	return FilterCriteria{
		Statuses:       r.Statuses,
		Plans:          r.Plans,
		Sexes:          r.Sexes,
		AgeMin:         r.AgeMin,
		AgeMax:         r.AgeMax,
		RegisteredFrom: r.RegisteredFrom,
		RegisteredTo:   r.RegisteredTo,
		Insurance:      r.Insurance,
	}
}

// SetDefaults définit les valeurs par défaut de pagination
func (r *SearchPatientRequest) SetDefaults(maxLimit int) {
	r.Page, r.Limit = NormalizePage(r.Page, r.Limit, maxLimit)
}

// NormalizePage borne page et limite
func NormalizePage(page, limit, maxLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// SearchPatientResponse représente le résultat d'une recherche de patients
type SearchPatientResponse struct {
	Patients   []PatientListItem `json:"patients"`
	Pagination PaginationInfo    `json:"pagination"`
	SearchInfo SearchMetadata    `json:"search_info"`
}

// CreateSearchSessionRequest ouverture d'une session de recherche
type CreateSearchSessionRequest struct {
	Term     string          `json:"term"`
	Criteria *FilterCriteria `json:"criteria"`
}

// UpdateSearchSessionRequest terme remplacé si présent, critères fusionnés
type UpdateSearchSessionRequest struct {
	Term     *string        `json:"term"`
	Criteria *CriteriaPatch `json:"criteria"`
}

// SearchSessionResponse état courant d'une session de recherche
type SearchSessionResponse struct {
	SessionID   uuid.UUID             `json:"session_id"`
	Term        string                `json:"term"`
	Criteria    FilterCriteria        `json:"criteria"`
	IsFiltering bool                  `json:"is_filtering"`
	Results     SearchPatientResponse `json:"results"`
}

// PaginationInfo contient les informations de pagination
type PaginationInfo struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// SearchMetadata contient les métadonnées d'une recherche
type SearchMetadata struct {
	ExecutionTimeMs int      `json:"execution_time_ms"`
	CacheHit        bool     `json:"cache_hit"`
	TotalResults    int      `json:"total_results"`
	AppliedFilters  []string `json:"applied_filters"`
}

// NewPaginationInfo crée les informations de pagination
func NewPaginationInfo(page, limit, total int) PaginationInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Paginate découpe une page dans la collection filtrée
func Paginate(items []PatientListItem, page, limit int) []PatientListItem {
	start := (page - 1) * limit
	if start >= len(items) || start < 0 {
		return []PatientListItem{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
