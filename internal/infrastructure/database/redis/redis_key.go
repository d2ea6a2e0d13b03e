package redis

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Préfixe commun à toutes les clés
const KeyPrefix = "clinica_suite_"

var (
	validKeyRegex   = regexp.MustCompile(`^[a-zA-Z0-9_:\-]+$`)
	clinicCodeRegex = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)
)

// RedisKeyGenerator génère et valide les clés Redis selon les conventions Clinica Suite
type RedisKeyGenerator struct {
	patterns map[string]RedisKeyPattern
}

// NewRedisKeyGenerator crée une nouvelle instance du générateur
func NewRedisKeyGenerator() *RedisKeyGenerator {
	patterns := make(map[string]RedisKeyPattern, len(RedisKeyPatterns))
	for name, p := range RedisKeyPatterns {
		patterns[name] = p
	}
	return &RedisKeyGenerator{patterns: patterns}
}

// RedisKeyPattern définit les patterns standards des clés selon les conventions
// Pattern: clinica_suite_{code_clinique}_{domain}_{context}:{identifier}
type RedisKeyPattern struct {
	Domain  string        // cache, lock, seq
	Context string        // patient_list, cpf, patient_code
	TTL     time.Duration // 0 = pas d'expiration
}

// Patterns prédéfinis selon les conventions du projet
var RedisKeyPatterns = map[string]RedisKeyPattern{
	// Instantané de la collection de recherche, invalidé à chaque soumission
	PatternPatientList: {Domain: "cache", Context: "patient_list", TTL: 5 * time.Minute},
	// Verrou court pendant la soumission d'un CPF (identifiant = hash blake2b)
	PatternCPFLock: {Domain: "lock", Context: "cpf", TTL: 10 * time.Second},
	// Séquence annuelle des codes patient
	PatternPatientCode: {Domain: "seq", Context: "patient_code", TTL: 0},
}

// Noms des patterns
const (
	PatternPatientList = "patient_list"
	PatternCPFLock     = "cpf_lock"
	PatternPatientCode = "patient_code"
)

// SetTTL surcharge le TTL d'un pattern (configuration)
func (rkg *RedisKeyGenerator) SetTTL(patternName string, ttl time.Duration) error {
	pattern, exists := rkg.patterns[patternName]
	if !exists {
		return fmt.Errorf("pattern Redis non trouvé: %s", patternName)
	}
	pattern.TTL = ttl
	rkg.patterns[patternName] = pattern
	return nil
}

// GenerateKey génère une clé Redis selon la convention : clinica_suite_{clinique}_{domain}_{context}:{identifier}
func (rkg *RedisKeyGenerator) GenerateKey(patternName, clinicCode string, identifier ...string) (string, error) {
	pattern, exists := rkg.patterns[patternName]
	if !exists {
		return "", fmt.Errorf("pattern Redis non trouvé: %s", patternName)
	}

	if clinicCode == "" {
		return "", fmt.Errorf("code clinique requis pour la génération de clé")
	}
	if !clinicCodeRegex.MatchString(clinicCode) {
		return "", fmt.Errorf("code clinique invalide: %s", clinicCode)
	}

	prefix := fmt.Sprintf("%s%s_%s_%s", KeyPrefix, clinicCode, pattern.Domain, pattern.Context)
	if len(identifier) == 0 {
		return prefix, nil
	}
	return fmt.Sprintf("%s:%s", prefix, strings.Join(identifier, "_")), nil
}

// GetTTL récupère le TTL d'un pattern
func (rkg *RedisKeyGenerator) GetTTL(patternName string) (time.Duration, error) {
	pattern, exists := rkg.patterns[patternName]
	if !exists {
		return 0, fmt.Errorf("pattern Redis non trouvé: %s", patternName)
	}
	return pattern.TTL, nil
}

// ValidateKey valide qu'une clé respecte les conventions
func (rkg *RedisKeyGenerator) ValidateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("clé vide")
	}
	if len(key) > 250 {
		return fmt.Errorf("clé trop longue (max 250 caractères): %d", len(key))
	}
	if !validKeyRegex.MatchString(key) {
		return fmt.Errorf("clé contient des caractères invalides: %s", key)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		return fmt.Errorf("clé doit commencer par '%s': %s", KeyPrefix, key)
	}

	prefix := strings.SplitN(key, ":", 2)[0]
	parts := strings.Split(strings.TrimPrefix(prefix, KeyPrefix), "_")
	if len(parts) < 3 {
		return fmt.Errorf("structure préfixe invalide (format: clinica_suite_clinique_domain_context): %s", prefix)
	}
	if !clinicCodeRegex.MatchString(parts[0]) {
		return fmt.Errorf("code clinique invalide: %s", parts[0])
	}
	return nil
}
