package services

import (
	"strings"
	"time"

	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/shared/validators"
)

// PatientValidationService valide la fiche patient étape par étape
type PatientValidationService struct {
	now func() time.Time
}

// NewPatientValidationService crée une nouvelle instance du service
func NewPatientValidationService() *PatientValidationService {
	return &PatientValidationService{now: time.Now}
}

// NewPatientValidationServiceWithClock horloge injectée (tests)
func NewPatientValidationServiceWithClock(now func() time.Time) *PatientValidationService {
	return &PatientValidationService{now: now}
}

// Now horloge utilisée par le service
func (s *PatientValidationService) Now() time.Time {
	return s.now()
}

// ValidateStep valide uniquement les champs de l'étape demandée
func (s *PatientValidationService) ValidateStep(record dto.PatientRecord, step int) dto.ValidationResult {
	return ValidateStepAt(record, step, s.now())
}

// ValidateAll valide la fiche complète (étapes 1 à 4 concaténées)
func (s *PatientValidationService) ValidateAll(record dto.PatientRecord) dto.ValidationResult {
	return ValidateAllAt(record, s.now())
}

// ValidateStepAt version pure : même fiche, même étape, même date => même liste, même ordre
func ValidateStepAt(record dto.PatientRecord, step int, now time.Time) dto.ValidationResult {
	return dto.NewValidationResult(stepErrors(&record, step, now))
}

// ValidateAllAt concatène les passes de chaque étape dans l'ordre
func ValidateAllAt(record dto.PatientRecord, now time.Time) dto.ValidationResult {
	var errs []dto.ValidationError
	for step := dto.FirstStep; step <= dto.LastStep; step++ {
		errs = append(errs, stepErrors(&record, step, now)...)
	}
	return dto.NewValidationResult(errs)
}

// LowestFailingStep étape la plus basse possédant un champ en erreur (0 si aucune)
func LowestFailingStep(errs []dto.ValidationError) int {
	lowest := 0
	for _, e := range errs {
		if s := e.Field.Step(); lowest == 0 || s < lowest {
			lowest = s
		}
	}
	return lowest
}

func stepErrors(r *dto.PatientRecord, step int, now time.Time) []dto.ValidationError {
	// Étape 4 ignorée entièrement sans convention
	if step == dto.StepInsurance && !r.HasInsurance {
		return nil
	}

	var errs []dto.ValidationError
	for _, rule := range stepRules[step] {
		if e, failed := rule.apply(r, now); failed {
			errs = append(errs, e)
		}
	}
	return errs
}

// check contrôle de format appliqué à une valeur non vide
type check struct {
	ok      func(value string, r *dto.PatientRecord, now time.Time) bool
	code    string
	message string
}

// fieldRule une seule erreur par champ : la première règle en échec
type fieldRule struct {
	field       dto.Field
	required    bool
	requiredMsg string
	checks      []check
}

func (fr fieldRule) apply(r *dto.PatientRecord, now time.Time) (dto.ValidationError, bool) {
	value := fr.field.Get(r)
	if strings.TrimSpace(value) == "" {
		if fr.required {
			return dto.NewValidationError(fr.field, dto.ValidationErrorRequiredField, fr.requiredMsg), true
		}
		return dto.ValidationError{}, false
	}

	for _, c := range fr.checks {
		if !c.ok(value, r, now) {
			return dto.NewValidationError(fr.field, c.code, c.message), true
		}
	}
	return dto.ValidationError{}, false
}

func plain(fn func(string) bool) func(string, *dto.PatientRecord, time.Time) bool {
	return func(v string, _ *dto.PatientRecord, _ time.Time) bool { return fn(v) }
}

func dated(fn func(string, time.Time) bool) func(string, *dto.PatientRecord, time.Time) bool {
	return func(v string, _ *dto.PatientRecord, now time.Time) bool { return fn(v, now) }
}

var (
	nameCheck  = check{plain(validators.IsValidName), dto.ValidationErrorInvalidName, "Nome deve conter apenas letras e ter pelo menos 2 caracteres"}
	cpfCheck   = check{plain(validators.IsValidCPF), dto.ValidationErrorInvalidCPF, "CPF inválido"}
	rgCheck    = check{plain(validators.IsValidRG), dto.ValidationErrorInvalidRG, "RG deve ter entre 7 e 12 dígitos"}
	phoneCheck = check{plain(validators.IsValidPhone), dto.ValidationErrorInvalidPhone, "Telefone deve ter 10 ou 11 dígitos"}
	emailCheck = check{plain(validators.IsValidEmail), dto.ValidationErrorInvalidEmail, "E-mail inválido"}
	sexCheck   = check{plain(isValidSex), dto.ValidationErrorInvalidFormat, "Sexo inválido"}
	dateCheck  = check{dated(validators.IsValidDate), dto.ValidationErrorInvalidDate, "Data de nascimento inválida"}
	ageCheck   = check{dated(validators.IsValidAge), dto.ValidationErrorInvalidAge, "Idade inválida"}

	contactDistinctCheck = check{
		ok: func(v string, r *dto.PatientRecord, _ time.Time) bool {
			return validators.OnlyDigits(v) != validators.OnlyDigits(r.CPF)
		},
		code:    dto.ValidationErrorDuplicateFound,
		message: "CPF do contato de emergência deve ser diferente do CPF do paciente",
	}
)

func isValidSex(v string) bool {
	return v == dto.SexMale || v == dto.SexFemale || v == dto.SexOther
}

var stepRules = map[int][]fieldRule{
	dto.StepPersonal: {
		{field: dto.FieldName, required: true, requiredMsg: "Nome é obrigatório", checks: []check{nameCheck}},
		{field: dto.FieldCPF, required: true, requiredMsg: "CPF é obrigatório", checks: []check{cpfCheck}},
		{field: dto.FieldRG, required: true, requiredMsg: "RG é obrigatório", checks: []check{rgCheck}},
		{field: dto.FieldSex, required: true, requiredMsg: "Sexo é obrigatório", checks: []check{sexCheck}},
		{field: dto.FieldBirthDate, required: true, requiredMsg: "Data de nascimento é obrigatória", checks: []check{dateCheck, ageCheck}},
		{field: dto.FieldPhone, required: true, requiredMsg: "Telefone é obrigatório", checks: []check{phoneCheck}},
		{field: dto.FieldEmail, required: true, requiredMsg: "E-mail é obrigatório", checks: []check{emailCheck}},
		{field: dto.FieldMaritalStatus, required: true, requiredMsg: "Estado civil é obrigatório"},
	},
	dto.StepAddress: {
		{field: dto.FieldAddressCEP, required: true, requiredMsg: "CEP é obrigatório", checks: []check{
			{plain(validators.IsValidCEP), dto.ValidationErrorInvalidCEP, "CEP deve ter 8 dígitos"},
		}},
		{field: dto.FieldAddressStreet, required: true, requiredMsg: "Logradouro é obrigatório"},
		{field: dto.FieldAddressNumber, required: true, requiredMsg: "Número é obrigatório"},
		{field: dto.FieldAddressNeighborhood, required: true, requiredMsg: "Bairro é obrigatório"},
		{field: dto.FieldAddressCity, required: true, requiredMsg: "Cidade é obrigatória"},
		{field: dto.FieldAddressState, required: true, requiredMsg: "Estado é obrigatório", checks: []check{
			{plain(validators.IsValidUF), dto.ValidationErrorInvalidState, "Estado deve ser a sigla da UF (ex: SP)"},
		}},
	},
	dto.StepEmergencyContact: {
		{field: dto.FieldContactName, required: true, requiredMsg: "Nome do contato é obrigatório", checks: []check{nameCheck}},
		{field: dto.FieldContactCPF, required: true, requiredMsg: "CPF do contato é obrigatório", checks: []check{cpfCheck, contactDistinctCheck}},
		{field: dto.FieldContactRG, checks: []check{rgCheck}},
		{field: dto.FieldContactSex, checks: []check{sexCheck}},
		{field: dto.FieldContactBirthDate, checks: []check{dateCheck}},
		{field: dto.FieldContactPhone, required: true, requiredMsg: "Telefone do contato é obrigatório", checks: []check{phoneCheck}},
		{field: dto.FieldContactEmail, checks: []check{emailCheck}},
		{field: dto.FieldContactRelationship, required: true, requiredMsg: "Parentesco é obrigatório"},
	},
	dto.StepInsurance: {
		{field: dto.FieldInsuranceProvider, required: true, requiredMsg: "Convênio é obrigatório"},
		{field: dto.FieldInsuranceCardNumber, required: true, requiredMsg: "Número da carteirinha é obrigatório"},
		{field: dto.FieldInsuranceCardExpiry, required: true, requiredMsg: "Validade da carteirinha é obrigatória", checks: []check{
			{dated(validators.IsValidCardExpiry), dto.ValidationErrorInvalidExpiry, "Validade deve estar no formato MM/AAAA e não pode estar vencida"},
		}},
	},
}
