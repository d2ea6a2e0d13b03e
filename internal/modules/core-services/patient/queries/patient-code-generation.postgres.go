package queries

// PatientCodeGenerationQueries regroupe les requêtes SQL de la séquence des codes patient
var PatientCodeGenerationQueries = struct {
	GetSequenceState             string
	GenerateNextCodeFromPostgres string
	SyncSequenceFromRedis        string
}{
	/**
	 * Récupère l'état actuel de la séquence pour une clinique/année
	 * Paramètres: $1 = clinic_code, $2 = year
	 * Retour: sequence
	 */
	GetSequenceState: `
		SELECT sequence
		FROM patients_code_sequences
		WHERE clinic_code = $1 AND year = $2
	`,

	/**
	 * Incrémente la séquence de manière atomique (UPSERT)
	 * Paramètres: $1 = clinic_code, $2 = year
	 * Retour: nouvelle valeur de séquence
	 */
	GenerateNextCodeFromPostgres: `
		INSERT INTO patients_code_sequences (clinic_code, year, sequence)
		VALUES ($1, $2, 1)
		ON CONFLICT (clinic_code, year)
		DO UPDATE SET
			sequence = patients_code_sequences.sequence + 1,
			updated_at = NOW()
		RETURNING sequence
	`,

	/**
	 * Aligne la séquence PostgreSQL sur la valeur produite par Redis (jamais en arrière)
	 * Paramètres: $1 = clinic_code, $2 = year, $3 = sequence
	 */
	SyncSequenceFromRedis: `
		INSERT INTO patients_code_sequences (clinic_code, year, sequence)
		VALUES ($1, $2, $3)
		ON CONFLICT (clinic_code, year)
		DO UPDATE SET
			sequence = GREATEST(patients_code_sequences.sequence, EXCLUDED.sequence),
			updated_at = NOW()
	`,
}
