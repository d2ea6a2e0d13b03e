package services

import (
	"strconv"

	"clinica-suite-core/internal/shared/utils"
	"clinica-suite-core/internal/shared/validators"
)

// PatientRedisKeys contient les helpers type-safe pour les identifiants de clés du domaine patient
type PatientRedisKeys struct{}

// NewPatientRedisKeys crée une nouvelle instance des helpers Redis
func NewPatientRedisKeys() *PatientRedisKeys {
	return &PatientRedisKeys{}
}

// CPFLockIdentifier identifiant du verrou de soumission : empreinte des chiffres du CPF
// Format: clinica_suite_{clinique}_lock_cpf:{blake2b(cpf)}
func (k *PatientRedisKeys) CPFLockIdentifier(cpf string) string {
	return utils.HashIdentifier(validators.OnlyDigits(cpf))
}

// SequenceIdentifier identifiant de la séquence annuelle des codes
// Format: clinica_suite_{clinique}_seq_patient_code:{year}
func (k *PatientRedisKeys) SequenceIdentifier(year int) string {
	return strconv.Itoa(year)
}
