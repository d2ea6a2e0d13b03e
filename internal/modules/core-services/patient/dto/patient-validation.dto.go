package dto

// ValidationError représente une erreur de validation métier sur un champ
type ValidationError struct {
	Field   Field  `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult représente le résultat d'une passe de validation.
// La liste est toujours produite à neuf, jamais fusionnée avec une précédente.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// ValidateRecordRequest validation sans état d'une fiche postée
type ValidateRecordRequest struct {
	Record PatientRecord `json:"record"`
	Step   int           `json:"step" binding:"omitempty,min=1,max=4"` // 0 = toutes les étapes
}

// Constantes pour les codes d'erreur de validation
const (
	ValidationErrorRequiredField  = "REQUIRED_FIELD"
	ValidationErrorInvalidFormat  = "INVALID_FORMAT"
	ValidationErrorInvalidCPF     = "INVALID_CPF"
	ValidationErrorInvalidRG      = "INVALID_RG"
	ValidationErrorInvalidName    = "INVALID_NAME"
	ValidationErrorInvalidPhone   = "INVALID_PHONE"
	ValidationErrorInvalidEmail   = "INVALID_EMAIL"
	ValidationErrorInvalidDate    = "INVALID_DATE"
	ValidationErrorInvalidAge     = "INVALID_AGE"
	ValidationErrorInvalidCEP     = "INVALID_CEP"
	ValidationErrorInvalidState   = "INVALID_STATE"
	ValidationErrorInvalidExpiry  = "INVALID_CARD_EXPIRY"
	ValidationErrorDuplicateFound = "DUPLICATE_FOUND"
)

// NewValidationError crée une nouvelle erreur de validation
func NewValidationError(field Field, code, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    code,
		Message: message,
	}
}

// NewValidationResult construit un résultat cohérent (IsValid dérivé de la liste)
func NewValidationResult(errs []ValidationError) ValidationResult {
	if errs == nil {
		errs = []ValidationError{}
	}
	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// ErrorFor retourne le premier message d'erreur du champ
func (r ValidationResult) ErrorFor(field Field) (string, bool) {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}
