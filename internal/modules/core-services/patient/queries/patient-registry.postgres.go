package queries

// PatientCPFConstraint contrainte d'unicité du CPF sur la table patients
const PatientCPFConstraint = "patients_cpf_key"

// PatientRegistryQueries regroupe toutes les requêtes SQL du registre patient
var PatientRegistryQueries = struct {
	EnsureSchema   string
	ExistsByCPF    string
	InsertPatient  string
	UpdatePatient  string
	GetPatientByID string
	ListPatients   string
}{
	/**
	 * Création idempotente des tables du registre
	 * La fiche complète est conservée en JSONB, les colonnes filtrables sont extraites
	 */
	EnsureSchema: `
		CREATE TABLE IF NOT EXISTS patients (
			id             UUID PRIMARY KEY,
			code_patient   VARCHAR(32) NOT NULL UNIQUE,
			cpf            CHAR(11) NOT NULL CONSTRAINT patients_cpf_key UNIQUE,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL,
			phone          VARCHAR(11) NOT NULL,
			sex            CHAR(1) NOT NULL,
			birth_date     CHAR(10) NOT NULL,
			status         VARCHAR(16) NOT NULL DEFAULT 'ativo',
			plan           TEXT NOT NULL,
			has_insurance  BOOLEAN NOT NULL DEFAULT FALSE,
			record         JSONB NOT NULL,
			registered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_visit_at  TIMESTAMPTZ,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS patients_code_sequences (
			clinic_code     VARCHAR(20) NOT NULL,
			year            INT NOT NULL,
			sequence        BIGINT NOT NULL DEFAULT 0,
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (clinic_code, year)
		);
	`,

	/**
	 * Vérifie l'unicité du CPF (chiffres uniquement)
	 * Paramètres: $1 = cpf, $2 = id exclu (NULL en création)
	 */
	ExistsByCPF: `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE cpf = $1 AND ($2::uuid IS NULL OR id <> $2::uuid)
		)
	`,

	/**
	 * Insertion d'un patient soumis
	 * Paramètres: $1..$14 dans l'ordre des colonnes
	 */
	InsertPatient: `
		INSERT INTO patients (
			id, code_patient, cpf, name, email, phone, sex, birth_date,
			status, plan, has_insurance, record, registered_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,

	/**
	 * Mise à jour de la fiche d'un patient existant (mode édition)
	 * Paramètres: $1 = id, $2..$10 colonnes modifiables
	 */
	UpdatePatient: `
		UPDATE patients SET
			cpf = $2,
			name = $3,
			email = $4,
			phone = $5,
			sex = $6,
			birth_date = $7,
			plan = $8,
			has_insurance = $9,
			record = $10,
			updated_at = NOW()
		WHERE id = $1
	`,

	/**
	 * Récupère un patient complet
	 * Paramètres: $1 = id
	 */
	GetPatientByID: `
		SELECT id, code_patient, record, status, plan, registered_at, last_visit_at, updated_at
		FROM patients
		WHERE id = $1
	`,

	/**
	 * Collection utilisée par le pipeline de filtrage (ordre d'inscription décroissant)
	 */
	ListPatients: `
		SELECT id, code_patient, name, cpf, email, phone, sex, birth_date,
		       status, plan, has_insurance, registered_at, last_visit_at
		FROM patients
		ORDER BY registered_at DESC, name ASC
	`,
}
