package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clinica-suite-core/internal/infrastructure/database/mongodb"
	"clinica-suite-core/internal/infrastructure/database/postgres"
	"clinica-suite-core/internal/infrastructure/database/redis"

	"github.com/joho/godotenv"
)

// Uniquement variables d'environnement

// Config structure unifiée
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	MongoDB     MongoConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	Patient     PatientConfig

	// Avertissements produits avant que le logger existe, journalisés au démarrage
	Warnings []string
}

// ServerConfig configuration serveur HTTP
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"`
	Port         int           `env:"SERVER_PORT"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT"`
}

// DatabaseConfig configuration PostgreSQL
type DatabaseConfig struct {
	Host           string        `env:"DB_HOST"`
	Port           int           `env:"DB_PORT"`
	Database       string        `env:"DB_NAME"`
	Username       string        `env:"DB_USERNAME"`
	Password       string        `env:"DB_PASSWORD"`
	MaxConnections int           `env:"DB_MAX_CONNECTIONS"`
	ConnectionTTL  time.Duration `env:"DB_CONNECTION_TTL"`
	QueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT"`
	SSLMode        string        `env:"DB_SSL_MODE"`
}

// RedisConfig configuration Redis
type RedisConfig struct {
	Host        string        `env:"REDIS_HOST"`
	Port        int           `env:"REDIS_PORT"`
	Password    string        `env:"REDIS_PASSWORD"`
	Database    int           `env:"REDIS_DATABASE"`
	MaxRetries  int           `env:"REDIS_MAX_RETRIES"`
	PoolSize    int           `env:"REDIS_POOL_SIZE"`
	PoolTimeout time.Duration `env:"REDIS_POOL_TIMEOUT"`
}

// MongoConfig configuration MongoDB (brouillons de formulaire)
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI"`
	Database       string        `env:"MONGODB_DATABASE"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT"`
	MaxPoolSize    int           `env:"MONGODB_MAX_POOL_SIZE"`
}

// LoggingConfig configuration logging
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL"`
}

// CORSConfig configuration CORS
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `env:"CORS_MAX_AGE"`
}

// PatientConfig paramètres du domaine patient
type PatientConfig struct {
	ClinicCode     string        `env:"PATIENT_CLINIC_CODE"`
	FormSessionTTL time.Duration `env:"PATIENT_FORM_SESSION_TTL"`
	SearchDebounce time.Duration `env:"PATIENT_SEARCH_DEBOUNCE_MS"`
	ListCacheTTL   time.Duration `env:"PATIENT_LIST_CACHE_TTL"`
	MaxPageSize    int           `env:"PATIENT_MAX_PAGE_SIZE"`
	DraftTTL       time.Duration `env:"PATIENT_DRAFT_TTL_HOURS"`
}

// NewConfig charge la configuration depuis les variables d'environnement uniquement
func NewConfig() (*Config, error) {
	config := &Config{}

	// Fichier .env optionnel
	if err := godotenv.Load(".env"); err != nil {
		config.Warnings = append(config.Warnings, fmt.Sprintf("fichier .env non chargé: %v", err))
	}

	config.Environment = getEnv("APP_ENV", "development")

	config.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "localhost"),
		Port:         getEnvInt("SERVER_PORT", 4000),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30) * time.Second,
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30) * time.Second,
	}

	config.Database = DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvInt("DB_PORT", 5432),
		Database:       getEnv("DB_NAME", "clinica_suite"),
		Username:       getEnv("DB_USERNAME", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 25),
		ConnectionTTL:  getEnvDuration("DB_CONNECTION_TTL", 300) * time.Second,
		QueryTimeout:   getEnvDuration("DB_QUERY_TIMEOUT", 30) * time.Second,
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
	}

	config.Redis = RedisConfig{
		Host:        getEnv("REDIS_HOST", "localhost"),
		Port:        getEnvInt("REDIS_PORT", 6379),
		Password:    getEnv("REDIS_PASSWORD", ""),
		Database:    getEnvInt("REDIS_DATABASE", 0),
		MaxRetries:  getEnvInt("REDIS_MAX_RETRIES", 3),
		PoolSize:    getEnvInt("REDIS_POOL_SIZE", 10),
		PoolTimeout: getEnvDuration("REDIS_POOL_TIMEOUT", 30) * time.Second,
	}

	// MongoDB vide hors développement : brouillons désactivés
	defaultMongoURI := ""
	if config.Environment == "development" {
		defaultMongoURI = "mongodb://localhost:27017"
	}
	config.MongoDB = MongoConfig{
		URI:            getEnv("MONGODB_URI", defaultMongoURI),
		Database:       getEnv("MONGODB_DATABASE", "clinica_suite_forms"),
		ConnectTimeout: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10) * time.Second,
		MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
	}

	config.Logging = LoggingConfig{
		Level: getEnv("LOG_LEVEL", "debug"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID"}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}

	config.Patient = PatientConfig{
		ClinicCode:     strings.ToUpper(getEnv("PATIENT_CLINIC_CODE", "CLINICA")),
		FormSessionTTL: getEnvDuration("PATIENT_FORM_SESSION_TTL", 1800) * time.Second,
		SearchDebounce: getEnvDuration("PATIENT_SEARCH_DEBOUNCE_MS", 300) * time.Millisecond,
		ListCacheTTL:   getEnvDuration("PATIENT_LIST_CACHE_TTL", 60) * time.Second,
		MaxPageSize:    getEnvInt("PATIENT_MAX_PAGE_SIZE", 50),
		DraftTTL:       getEnvDuration("PATIENT_DRAFT_TTL_HOURS", 72) * time.Hour,
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validation configuration échouée: %w", err)
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

// Providers par sous-configuration
func NewPatientConfig(config *Config) *PatientConfig {
	return &config.Patient
}

func NewPostgresConfig(config *Config) *postgres.DatabaseConfig {
	return &postgres.DatabaseConfig{
		Host:           config.Database.Host,
		Port:           config.Database.Port,
		Database:       config.Database.Database,
		Username:       config.Database.Username,
		Password:       config.Database.Password,
		SSLMode:        config.Database.SSLMode,
		MaxConnections: int32(config.Database.MaxConnections),
		ConnectionTTL:  config.Database.ConnectionTTL,
		QueryTimeout:   config.Database.QueryTimeout,
	}
}

func NewRedisConfig(config *Config) *redis.RedisConfig {
	return &redis.RedisConfig{
		Host:        config.Redis.Host,
		Port:        config.Redis.Port,
		Password:    config.Redis.Password,
		Database:    config.Redis.Database,
		MaxRetries:  config.Redis.MaxRetries,
		PoolSize:    config.Redis.PoolSize,
		PoolTimeout: config.Redis.PoolTimeout,
	}
}

func NewMongoConfig(config *Config) *mongodb.MongoConfig {
	maxPool := config.MongoDB.MaxPoolSize
	if maxPool < 0 {
		maxPool = 0
	}
	return &mongodb.MongoConfig{
		URI:            config.MongoDB.URI,
		Database:       config.MongoDB.Database,
		ConnectTimeout: config.MongoDB.ConnectTimeout,
		MaxPoolSize:    uint64(maxPool),
	}
}

// Helpers pour parsing variables d'environnement
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration valeur brute, l'appelant applique l'unité
func getEnvDuration(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue))
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validateConfig valide la configuration selon l'environnement
func validateConfig(config *Config) error {
	env := config.Environment

	if env != "development" && env != "docker" {
		return fmt.Errorf("environnement non supporté: %s (utilisez 'development' ou 'docker')", env)
	}

	if config.Patient.MaxPageSize < 1 {
		return fmt.Errorf("PATIENT_MAX_PAGE_SIZE doit être positif")
	}
	if config.Patient.ClinicCode == "" {
		return fmt.Errorf("PATIENT_CLINIC_CODE ne peut pas être vide")
	}

	missingVars := []string{}

	// Variables critiques en mode docker
	if env == "docker" {
		if config.Database.Password == "" {
			missingVars = append(missingVars, "DB_PASSWORD")
		}
		if config.Redis.Password == "" {
			config.Warnings = append(config.Warnings, "REDIS_PASSWORD non défini pour environnement docker")
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("variables critiques manquantes pour environnement docker: %v", missingVars)
	}

	return nil
}
