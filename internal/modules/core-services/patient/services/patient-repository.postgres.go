package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"clinica-suite-core/internal/infrastructure/database/postgres"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/queries"
	"clinica-suite-core/internal/shared/validators"
)

// ErrDuplicateCPF un autre patient possède déjà ce CPF
var ErrDuplicateCPF = errors.New("cpf déjà enregistré")

// PatientPostgresRepository implémente PatientRepository sur PostgreSQL
type PatientPostgresRepository struct {
	db        *postgres.Client
	txManager *postgres.TransactionManager
}

// NewPatientPostgresRepository crée une nouvelle instance du repository
func NewPatientPostgresRepository(db *postgres.Client, txManager *postgres.TransactionManager) *PatientPostgresRepository {
	return &PatientPostgresRepository{
		db:        db,
		txManager: txManager,
	}
}

// EnsureSchema crée les tables si elles n'existent pas
func (r *PatientPostgresRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Exec(ctx, queries.PatientRegistryQueries.EnsureSchema); err != nil {
		return fmt.Errorf("failed to ensure patient schema: %w", err)
	}
	return nil
}

// Insert vérifie l'unicité du CPF et insère dans la même transaction sérialisable,
// rejouée si une écriture concurrente entre en conflit
func (r *PatientPostgresRepository) Insert(ctx context.Context, patient *dto.PatientDetail) error {
	recordJSON, err := json.Marshal(patient.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal patient record: %w", err)
	}
	cpf := validators.OnlyDigits(patient.Record.CPF)

	err = r.txManager.WithSerializable(ctx, func(tx *postgres.Transaction) error {
		var exists bool
		if err := tx.QueryRow(ctx, queries.PatientRegistryQueries.ExistsByCPF, cpf, nil).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check cpf uniqueness: %w", err)
		}
		if exists {
			return ErrDuplicateCPF
		}

		err := tx.Exec(ctx,
			queries.PatientRegistryQueries.InsertPatient,
			patient.ID,                                   // $1
			patient.Code,                                 // $2
			cpf,                                          // $3
			patient.Record.Name,                          // $4
			patient.Record.Email,                         // $5
			validators.OnlyDigits(patient.Record.Phone),  // $6
			patient.Record.Sex,                           // $7
			patient.Record.BirthDate,                     // $8
			patient.Status,                               // $9
			patient.Plan,                                 // $10
			patient.Record.HasInsurance,                  // $11
			string(recordJSON),                           // $12
			patient.RegisteredAt,                         // $13
			patient.UpdatedAt,                            // $14
		)
		if err != nil {
			return fmt.Errorf("failed to insert patient: %w", err)
		}
		return nil
	})
	return mapWriteError(err)
}

// Update remplace la fiche d'un patient existant
func (r *PatientPostgresRepository) Update(ctx context.Context, patient *dto.PatientDetail) error {
	recordJSON, err := json.Marshal(patient.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal patient record: %w", err)
	}
	cpf := validators.OnlyDigits(patient.Record.CPF)

	err = r.txManager.WithSerializable(ctx, func(tx *postgres.Transaction) error {
		var exists bool
		if err := tx.QueryRow(ctx, queries.PatientRegistryQueries.ExistsByCPF, cpf, patient.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check cpf uniqueness: %w", err)
		}
		if exists {
			return ErrDuplicateCPF
		}

		return tx.Exec(ctx,
			queries.PatientRegistryQueries.UpdatePatient,
			patient.ID,
			cpf,
			patient.Record.Name,
			patient.Record.Email,
			validators.OnlyDigits(patient.Record.Phone),
			patient.Record.Sex,
			patient.Record.BirthDate,
			patient.Plan,
			patient.Record.HasInsurance,
			string(recordJSON),
		)
	})
	return mapWriteError(err)
}

// mapWriteError la contrainte UNIQUE sur le CPF tranche en dernier recours
// entre deux écritures concurrentes
func mapWriteError(err error) error {
	if postgres.IsUniqueViolation(err, queries.PatientCPFConstraint) {
		return ErrDuplicateCPF
	}
	return err
}

// GetByID récupère un patient complet
func (r *PatientPostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*dto.PatientDetail, error) {
	var patient dto.PatientDetail
	var recordJSON []byte

	err := r.db.QueryRow(ctx, queries.PatientRegistryQueries.GetPatientByID, id).Scan(
		&patient.ID,
		&patient.Code,
		&recordJSON,
		&patient.Status,
		&patient.Plan,
		&patient.RegisteredAt,
		&patient.LastVisitAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.NewPatientNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if err := json.Unmarshal(recordJSON, &patient.Record); err != nil {
		return nil, fmt.Errorf("failed to decode patient record: %w", err)
	}
	return &patient, nil
}

// ExistsByCPF vérifie l'unicité hors transaction (pré-contrôle)
func (r *PatientPostgresRepository) ExistsByCPF(ctx context.Context, cpf string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, queries.PatientRegistryQueries.ExistsByCPF, validators.OnlyDigits(cpf), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cpf: %w", err)
	}
	return exists, nil
}

// ListAll charge la collection complète utilisée par le filtrage
func (r *PatientPostgresRepository) ListAll(ctx context.Context) ([]dto.PatientListItem, error) {
	rows, err := r.db.Query(ctx, queries.PatientRegistryQueries.ListPatients)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	items := []dto.PatientListItem{}
	for rows.Next() {
		var p dto.PatientListItem
		if err := rows.Scan(
			&p.ID,
			&p.Code,
			&p.Name,
			&p.CPF,
			&p.Email,
			&p.Phone,
			&p.Sex,
			&p.BirthDate,
			&p.Status,
			&p.Plan,
			&p.HasInsurance,
			&p.RegisteredAt,
			&p.LastVisitAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}
	return items, nil
}
