package dto

// PatientRecord représente la fiche patient complète saisie dans le formulaire en 4 étapes
type PatientRecord struct {
	// ÉTAPE 1 - DONNÉES PERSONNELLES
	Name          string `json:"name" bson:"name"`
	CPF           string `json:"cpf" bson:"cpf"`
	RG            string `json:"rg" bson:"rg"`
	Sex           string `json:"sex" bson:"sex"` // M, F, O
	BirthDate     string `json:"birthDate" bson:"birth_date"` // AAAA-MM-JJ tel que saisi
	Phone         string `json:"phone" bson:"phone"`
	Email         string `json:"email" bson:"email"`
	MaritalStatus string `json:"maritalStatus" bson:"marital_status"`
	Nationality   string `json:"nationality" bson:"nationality"`
	Occupation    string `json:"occupation" bson:"occupation"`
	HasInsurance  bool   `json:"hasInsurance" bson:"has_insurance"`

	// ÉTAPE 2 - ADRESSE
	Address Address `json:"address" bson:"address"`

	// ÉTAPE 3 - CONTACT D'URGENCE
	EmergencyContact EmergencyContact `json:"emergencyContact" bson:"emergency_contact"`

	// ÉTAPE 4 - CONVENTION (ignorée si HasInsurance = false)
	InsuranceProvider   string `json:"insuranceProvider" bson:"insurance_provider"`
	InsuranceCardNumber string `json:"insuranceCardNumber" bson:"insurance_card_number"`
	InsuranceCardExpiry string `json:"insuranceCardExpiry" bson:"insurance_card_expiry"` // MM/AAAA
}

// Address adresse brésilienne (CEP + UF)
type Address struct {
	CEP          string `json:"cep" bson:"cep"`
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number" bson:"number"`
	Complement   string `json:"complement" bson:"complement"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	City         string `json:"city" bson:"city"`
	State        string `json:"state" bson:"state"`
}

// EmergencyContact personne à contacter, distincte du patient (CPF différent)
type EmergencyContact struct {
	Name          string `json:"name" bson:"name"`
	CPF           string `json:"cpf" bson:"cpf"`
	RG            string `json:"rg" bson:"rg"`
	Sex           string `json:"sex" bson:"sex"`
	BirthDate     string `json:"birthDate" bson:"birth_date"`
	Phone         string `json:"phone" bson:"phone"`
	Email         string `json:"email" bson:"email"`
	MaritalStatus string `json:"maritalStatus" bson:"marital_status"`
	Nationality   string `json:"nationality" bson:"nationality"`
	Occupation    string `json:"occupation" bson:"occupation"`
	Relationship  string `json:"relationship" bson:"relationship"`
}

// Valeurs autorisées pour le sexe
const (
	SexMale   = "M"
	SexFemale = "F"
	SexOther  = "O"
)
