package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"clinica-suite-core/internal/app/config"
	redisinfra "clinica-suite-core/internal/infrastructure/database/redis"
	"clinica-suite-core/internal/modules/core-services/patient/dto"
	"clinica-suite-core/internal/shared/utils"
)

// ErrCPFLocked une soumission du même CPF est déjà en cours
var ErrCPFLocked = errors.New("soumission du même CPF déjà en cours")

// PatientCacheService instantané Redis de la collection de recherche et verrous de soumission.
// Toute erreur Redis est dégradée en cache miss : PostgreSQL reste la source de vérité.
type PatientCacheService struct {
	redis      *redisinfra.Client
	redisKeys  *PatientRedisKeys
	clinicCode string
	logger     *zap.Logger
}

// NewPatientCacheService crée une nouvelle instance du service
func NewPatientCacheService(redis *redisinfra.Client, cfg *config.PatientConfig, logger *zap.Logger) (*PatientCacheService, error) {
	if cfg.ListCacheTTL > 0 {
		if err := redis.KeyGenerator().SetTTL(redisinfra.PatternPatientList, cfg.ListCacheTTL); err != nil {
			return nil, err
		}
	}
	return &PatientCacheService{
		redis:      redis,
		redisKeys:  NewPatientRedisKeys(),
		clinicCode: cfg.ClinicCode,
		logger:     logger.Named("patient-cache"),
	}, nil
}

// GetPatientList lit l'instantané ; false si absent ou illisible
func (s *PatientCacheService) GetPatientList(ctx context.Context) ([]dto.PatientListItem, bool) {
	raw, err := s.redis.GetWithPattern(ctx, redisinfra.PatternPatientList, s.clinicCode)
	if err != nil {
		if !errors.Is(err, redisinfra.Nil) {
			s.logger.Warn("lecture cache liste patients échouée", zap.Error(err))
		}
		return nil, false
	}

	var items []dto.PatientListItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("cache liste patients corrompu", zap.Error(err))
		return nil, false
	}
	return items, true
}

// SetPatientList écrit l'instantané (best effort)
func (s *PatientCacheService) SetPatientList(ctx context.Context, items []dto.PatientListItem) {
	payload, err := json.Marshal(items)
	if err != nil {
		s.logger.Warn("sérialisation liste patients échouée", zap.Error(err))
		return
	}
	if err := s.redis.SetWithPattern(ctx, redisinfra.PatternPatientList, s.clinicCode, payload); err != nil {
		s.logger.Warn("écriture cache liste patients échouée", zap.Error(err))
		return
	}
	s.logger.Debug("liste patients mise en cache", zap.Int("count", len(items)))
}

// InvalidatePatientList supprime l'instantané après une écriture
func (s *PatientCacheService) InvalidatePatientList(ctx context.Context) {
	if err := s.redis.DelWithPattern(ctx, redisinfra.PatternPatientList, s.clinicCode); err != nil {
		s.logger.Warn("invalidation cache liste patients échouée", zap.Error(err))
	}
}

// AcquireCPFLock verrou court sur l'empreinte du CPF ; release ne supprime que son propre jeton
func (s *PatientCacheService) AcquireCPFLock(ctx context.Context, cpf string) (func(), error) {
	token, err := utils.GenerateToken(16)
	if err != nil {
		return nil, err
	}
	id := s.redisKeys.CPFLockIdentifier(cpf)

	acquired, err := s.redis.SetNXWithPattern(ctx, redisinfra.PatternCPFLock, s.clinicCode, token, id)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cpf lock: %w", err)
	}
	if !acquired {
		return nil, ErrCPFLocked
	}

	release := func() {
		if err := s.redis.CompareAndDeleteWithPattern(context.Background(), redisinfra.PatternCPFLock, s.clinicCode, token, id); err != nil {
			s.logger.Warn("libération verrou cpf échouée", zap.String("cpf_hash", id), zap.Error(err))
		}
	}
	return release, nil
}
