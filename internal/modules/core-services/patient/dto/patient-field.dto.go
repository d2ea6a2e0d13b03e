package dto

import (
	"strconv"
	"strings"
)

// Field identifie un champ du formulaire. La valeur est le chemin pointé
// exposé aux clients ("address.cep", "emergencyContact.cpf").
type Field string

// Étape 1 - personnel
const (
	FieldName          Field = "name"
	FieldCPF           Field = "cpf"
	FieldRG            Field = "rg"
	FieldSex           Field = "sex"
	FieldBirthDate     Field = "birthDate"
	FieldPhone         Field = "phone"
	FieldEmail         Field = "email"
	FieldMaritalStatus Field = "maritalStatus"
	FieldNationality   Field = "nationality"
	FieldOccupation    Field = "occupation"
	FieldHasInsurance  Field = "hasInsurance"
)

// Étape 2 - adresse
const (
	FieldAddressCEP          Field = "address.cep"
	FieldAddressStreet       Field = "address.street"
	FieldAddressNumber       Field = "address.number"
	FieldAddressComplement   Field = "address.complement"
	FieldAddressNeighborhood Field = "address.neighborhood"
	FieldAddressCity         Field = "address.city"
	FieldAddressState        Field = "address.state"
)

// Étape 3 - contact d'urgence
const (
	FieldContactName          Field = "emergencyContact.name"
	FieldContactCPF           Field = "emergencyContact.cpf"
	FieldContactRG            Field = "emergencyContact.rg"
	FieldContactSex           Field = "emergencyContact.sex"
	FieldContactBirthDate     Field = "emergencyContact.birthDate"
	FieldContactPhone         Field = "emergencyContact.phone"
	FieldContactEmail         Field = "emergencyContact.email"
	FieldContactMaritalStatus Field = "emergencyContact.maritalStatus"
	FieldContactNationality   Field = "emergencyContact.nationality"
	FieldContactOccupation    Field = "emergencyContact.occupation"
	FieldContactRelationship  Field = "emergencyContact.relationship"
)

// Étape 4 - convention
const (
	FieldInsuranceProvider   Field = "insuranceProvider"
	FieldInsuranceCardNumber Field = "insuranceCardNumber"
	FieldInsuranceCardExpiry Field = "insuranceCardExpiry"
)

// Préfixes de section acceptés par onFieldChange
const (
	SectionAddress          = "address"
	SectionEmergencyContact = "emergencyContact"
)

// Steps du formulaire
const (
	StepPersonal         = 1
	StepAddress          = 2
	StepEmergencyContact = 3
	StepInsurance        = 4

	FirstStep = StepPersonal
	LastStep  = StepInsurance
)

type fieldAccessor struct {
	get func(r *PatientRecord) string
	set func(r *PatientRecord, v string)
}

func stringField(ptr func(r *PatientRecord) *string) fieldAccessor {
	return fieldAccessor{
		get: func(r *PatientRecord) string { return *ptr(r) },
		set: func(r *PatientRecord, v string) { *ptr(r) = v },
	}
}

var accessors = map[Field]fieldAccessor{
	FieldName:          stringField(func(r *PatientRecord) *string { return &r.Name }),
	FieldCPF:           stringField(func(r *PatientRecord) *string { return &r.CPF }),
	FieldRG:            stringField(func(r *PatientRecord) *string { return &r.RG }),
	FieldSex:           stringField(func(r *PatientRecord) *string { return &r.Sex }),
	FieldBirthDate:     stringField(func(r *PatientRecord) *string { return &r.BirthDate }),
	FieldPhone:         stringField(func(r *PatientRecord) *string { return &r.Phone }),
	FieldEmail:         stringField(func(r *PatientRecord) *string { return &r.Email }),
	FieldMaritalStatus: stringField(func(r *PatientRecord) *string { return &r.MaritalStatus }),
	FieldNationality:   stringField(func(r *PatientRecord) *string { return &r.Nationality }),
	FieldOccupation:    stringField(func(r *PatientRecord) *string { return &r.Occupation }),
	FieldHasInsurance: {
		get: func(r *PatientRecord) string { return strconv.FormatBool(r.HasInsurance) },
		set: func(r *PatientRecord, v string) {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			r.HasInsurance = err == nil && b
		},
	},

	FieldAddressCEP:          stringField(func(r *PatientRecord) *string { return &r.Address.CEP }),
	FieldAddressStreet:       stringField(func(r *PatientRecord) *string { return &r.Address.Street }),
	FieldAddressNumber:       stringField(func(r *PatientRecord) *string { return &r.Address.Number }),
	FieldAddressComplement:   stringField(func(r *PatientRecord) *string { return &r.Address.Complement }),
	FieldAddressNeighborhood: stringField(func(r *PatientRecord) *string { return &r.Address.Neighborhood }),
	FieldAddressCity:         stringField(func(r *PatientRecord) *string { return &r.Address.City }),
	FieldAddressState:        stringField(func(r *PatientRecord) *string { return &r.Address.State }),

	FieldContactName:          stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Name }),
	FieldContactCPF:           stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.CPF }),
	FieldContactRG:            stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.RG }),
	FieldContactSex:           stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Sex }),
	FieldContactBirthDate:     stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.BirthDate }),
	FieldContactPhone:         stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Phone }),
	FieldContactEmail:         stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Email }),
	FieldContactMaritalStatus: stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.MaritalStatus }),
	FieldContactNationality:   stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Nationality }),
	FieldContactOccupation:    stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Occupation }),
	FieldContactRelationship:  stringField(func(r *PatientRecord) *string { return &r.EmergencyContact.Relationship }),

	FieldInsuranceProvider:   stringField(func(r *PatientRecord) *string { return &r.InsuranceProvider }),
	FieldInsuranceCardNumber: stringField(func(r *PatientRecord) *string { return &r.InsuranceCardNumber }),
	FieldInsuranceCardExpiry: stringField(func(r *PatientRecord) *string { return &r.InsuranceCardExpiry }),
}

// stepFields liste ordonnée des champs appartenant à chaque étape
var stepFields = map[int][]Field{
	StepPersonal: {
		FieldName, FieldCPF, FieldRG, FieldSex, FieldBirthDate, FieldPhone,
		FieldEmail, FieldMaritalStatus, FieldNationality, FieldOccupation, FieldHasInsurance,
	},
	StepAddress: {
		FieldAddressCEP, FieldAddressStreet, FieldAddressNumber, FieldAddressComplement,
		FieldAddressNeighborhood, FieldAddressCity, FieldAddressState,
	},
	StepEmergencyContact: {
		FieldContactName, FieldContactCPF, FieldContactRG, FieldContactSex, FieldContactBirthDate,
		FieldContactPhone, FieldContactEmail, FieldContactMaritalStatus, FieldContactNationality,
		FieldContactOccupation, FieldContactRelationship,
	},
	StepInsurance: {
		FieldInsuranceProvider, FieldInsuranceCardNumber, FieldInsuranceCardExpiry,
	},
}

// StepFields retourne les champs d'une étape (nil hors 1..4)
func StepFields(step int) []Field {
	return stepFields[step]
}

// AllFields retourne tous les champs dans l'ordre des étapes
func AllFields() []Field {
	var all []Field
	for step := FirstStep; step <= LastStep; step++ {
		all = append(all, stepFields[step]...)
	}
	return all
}

// ParseField valide un chemin pointé reçu d'un client
func ParseField(path string) (Field, bool) {
	f := Field(path)
	_, ok := accessors[f]
	return f, ok
}

// ResolveField combine un nom de champ et une section optionnelle ("address" + "cep")
func ResolveField(name, section string) (Field, bool) {
	if section != "" && !strings.Contains(name, ".") {
		name = section + "." + name
	}
	return ParseField(name)
}

// Get lit la valeur du champ dans la fiche
func (f Field) Get(r *PatientRecord) string {
	acc, ok := accessors[f]
	if !ok {
		return ""
	}
	return acc.get(r)
}

// Set écrit la valeur du champ. Retourne false pour un champ inconnu.
func (f Field) Set(r *PatientRecord, value string) bool {
	acc, ok := accessors[f]
	if !ok {
		return false
	}
	acc.set(r, value)
	return true
}

// IsFilled vrai si la valeur n'est pas vide
func (f Field) IsFilled(r *PatientRecord) bool {
	return f.Get(r) != ""
}

// Step étape à revisiter lorsqu'une erreur porte sur ce champ
func (f Field) Step() int {
	s := string(f)
	switch {
	case strings.HasPrefix(s, SectionAddress+"."):
		return StepAddress
	case strings.HasPrefix(s, SectionEmergencyContact+"."):
		return StepEmergencyContact
	case f == FieldInsuranceProvider, f == FieldInsuranceCardNumber, f == FieldInsuranceCardExpiry:
		return StepInsurance
	default:
		return StepPersonal
	}
}

func (f Field) String() string {
	return string(f)
}
