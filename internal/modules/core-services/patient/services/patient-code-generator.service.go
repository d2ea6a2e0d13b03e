package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	"clinica-suite-core/internal/infrastructure/database/postgres"
	redisinfra "clinica-suite-core/internal/infrastructure/database/redis"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/modules/core-services/patient/queries"
)

// Capacité annuelle : 999 numéros x 26^3 suffixes
const (
	codeNumbersPerSuffix = 999
	codeSuffixCount      = 26 * 26 * 26
	codeCapacity         = int64(codeNumbersPerSuffix * codeSuffixCount)
)

// PatientCodeGeneratorService gère la génération atomique des codes patient uniques
type PatientCodeGeneratorService struct {
	db         *postgres.Client
	redis      *redisinfra.Client
	redisKeys  *PatientRedisKeys
	clinicCode string
	logger     *zap.Logger
}

// NewPatientCodeGeneratorService crée une nouvelle instance du service
func NewPatientCodeGeneratorService(db *postgres.Client, redis *redisinfra.Client, cfg *config.PatientConfig, logger *zap.Logger) *PatientCodeGeneratorService {
	return &PatientCodeGeneratorService{
		db:         db,
		redis:      redis,
		redisKeys:  NewPatientRedisKeys(),
		clinicCode: cfg.ClinicCode,
		logger:     logger.Named("patient-code"),
	}
}

// GeneratePatientCode génère un code patient unique atomiquement
// Format: {CLINIQUE}-{YYYY}-{NNN}-{LLL}
// Exemple: CLINICA-2026-001-AAA
func (s *PatientCodeGeneratorService) GeneratePatientCode(ctx context.Context) (*dto.CodeGenerationResponse, error) {
	startTime := time.Now()
	year := startTime.Year()

	// 1. INCR Redis
	seq, source, err := s.nextFromRedis(ctx, year)
	if err != nil {
		s.logger.Warn("séquence redis indisponible, repli postgres", zap.Error(err))

		// 2. Fallback PostgreSQL
		seq, err = s.nextFromPostgres(ctx, year)
		if err != nil {
			return nil, dto.NewCodeGenerationError(dto.ErrCodePostgresUnavailable, err.Error(), s.clinicCode, year)
		}
		source = dto.CodeSourcePostgres
	}

	response, err := BuildPatientCode(s.clinicCode, year, seq)
	if err != nil {
		return nil, err
	}
	response.Source = source
	response.GeneratedAt = startTime
	response.GenerationTimeMs = int(time.Since(startTime).Milliseconds())
	return response, nil
}

// nextFromRedis incrémente le compteur ; un compteur recréé (perte Redis) est
// réaligné sur PostgreSQL avant d'être utilisé
func (s *PatientCodeGeneratorService) nextFromRedis(ctx context.Context, year int) (int64, string, error) {
	id := s.redisKeys.SequenceIdentifier(year)

	seq, err := s.redis.IncrWithPattern(ctx, redisinfra.PatternPatientCode, s.clinicCode, id)
	if err != nil {
		return 0, "", err
	}

	if seq == 1 {
		persisted, err := s.sequenceState(ctx, year)
		if err != nil {
			return 0, "", err
		}
		if persisted > 0 {
			seq, err = s.nextFromPostgres(ctx, year)
			if err != nil {
				return 0, "", err
			}
			if err := s.redis.SetWithPattern(ctx, redisinfra.PatternPatientCode, s.clinicCode, strconv.FormatInt(seq, 10), id); err != nil {
				s.logger.Warn("réalignement séquence redis échoué", zap.Error(err))
			}
			return seq, dto.CodeSourcePostgres, nil
		}
	}

	// Persistance de la position pour survivre à une perte Redis
	if err := s.db.Exec(ctx, queries.PatientCodeGenerationQueries.SyncSequenceFromRedis, s.clinicCode, year, seq); err != nil {
		s.logger.Warn("synchronisation séquence postgres échouée", zap.Int64("sequence", seq), zap.Error(err))
	}
	return seq, dto.CodeSourceRedis, nil
}

func (s *PatientCodeGeneratorService) nextFromPostgres(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, queries.PatientCodeGenerationQueries.GenerateNextCodeFromPostgres, s.clinicCode, year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to generate code from postgres: %w", err)
	}
	return seq, nil
}

func (s *PatientCodeGeneratorService) sequenceState(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, queries.PatientCodeGenerationQueries.GetSequenceState, s.clinicCode, year).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence state: %w", err)
	}
	return seq, nil
}

// BuildPatientCode convertit une position de séquence (1..capacité) en code
func BuildPatientCode(clinicCode string, year int, seq int64) (*dto.CodeGenerationResponse, error) {
	if clinicCode == "" {
		return nil, dto.NewCodeGenerationError(dto.ErrCodeInvalidClinic, "code clinique requis", clinicCode, year)
	}
	if seq < 1 || seq > codeCapacity {
		return nil, dto.NewCodeGenerationError(dto.ErrCodeCapacityExceeded,
			fmt.Sprintf("capacité annuelle atteinte (%d codes)", codeCapacity), clinicCode, year)
	}

	idx := seq - 1
	number := int(idx%codeNumbersPerSuffix) + 1
	suffix := alphaSuffix(int(idx / codeNumbersPerSuffix))

	return &dto.CodeGenerationResponse{
		CodePatient: fmt.Sprintf("%s-%d-%03d-%s", clinicCode, year, number, suffix),
		ClinicCode:  clinicCode,
		Year:        year,
		Number:      number,
		Suffix:      suffix,
		Sequence:    seq,
	}, nil
}

// alphaSuffix 0 -> AAA, 1 -> AAB, 26 -> ABA
func alphaSuffix(n int) string {
	b := []byte("AAA")
	for i := 2; i >= 0; i-- {
		b[i] = byte('A' + n%26)
		n /= 26
	}
	return string(b)
}
