package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil réexporté pour que les services n'importent pas go-redis
var Nil = redis.Nil

type Client struct {
	rdb          *redis.Client
	keyGenerator *RedisKeyGenerator
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	Database    int
	MaxRetries  int
	PoolSize    int
	PoolTimeout time.Duration
}

func NewClient(config *RedisConfig, keyGenerator *RedisKeyGenerator) (*Client, error) {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.Database,
		MaxRetries:   orDefault(config.MaxRetries, 3),
		PoolSize:     orDefault(config.PoolSize, 10),
		PoolTimeout:  30 * time.Second,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}

	client := &Client{
		rdb:          redis.NewClient(opts),
		keyGenerator: keyGenerator,
	}

	if err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return fmt.Errorf("Redis client is nil")
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

func (c *Client) Close() {
	if c.rdb != nil {
		c.rdb.Close()
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return err
	}

	stats := c.rdb.PoolStats()
	if stats.TotalConns == 0 {
		return fmt.Errorf("no Redis connections available")
	}

	return nil
}

// KeyGenerator expose le générateur (surcharge des TTL par la configuration)
func (c *Client) KeyGenerator() *RedisKeyGenerator {
	return c.keyGenerator
}

// ============================================
// MÉTHODES AVEC GÉNÉRATION AUTOMATIQUE DE CLÉS
// ============================================

// SetWithPattern sauvegarde une valeur avec le TTL du pattern
func (c *Client) SetWithPattern(ctx context.Context, patternName, clinicCode string, value interface{}, identifier ...string) error {
	key, ttl, err := c.keyAndTTL(patternName, clinicCode, identifier...)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// GetWithPattern récupère une valeur ; Nil si absente
func (c *Client) GetWithPattern(ctx context.Context, patternName, clinicCode string, identifier ...string) (string, error) {
	key, err := c.keyGenerator.GenerateKey(patternName, clinicCode, identifier...)
	if err != nil {
		return "", fmt.Errorf("erreur génération clé: %w", err)
	}

	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", Nil
	}
	return val, err
}

// DelWithPattern supprime une valeur
func (c *Client) DelWithPattern(ctx context.Context, patternName, clinicCode string, identifier ...string) error {
	key, err := c.keyGenerator.GenerateKey(patternName, clinicCode, identifier...)
	if err != nil {
		return fmt.Errorf("erreur génération clé: %w", err)
	}
	return c.rdb.Del(ctx, key).Err()
}

// SetNXWithPattern pose la clé uniquement si elle n'existe pas (verrou)
func (c *Client) SetNXWithPattern(ctx context.Context, patternName, clinicCode string, value interface{}, identifier ...string) (bool, error) {
	key, ttl, err := c.keyAndTTL(patternName, clinicCode, identifier...)
	if err != nil {
		return false, err
	}
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// CompareAndDeleteWithPattern supprime la clé seulement si elle porte encore la valeur attendue
func (c *Client) CompareAndDeleteWithPattern(ctx context.Context, patternName, clinicCode, expected string, identifier ...string) error {
	key, err := c.keyGenerator.GenerateKey(patternName, clinicCode, identifier...)
	if err != nil {
		return fmt.Errorf("erreur génération clé: %w", err)
	}
	return compareAndDelete.Run(ctx, c.rdb, []string{key}, expected).Err()
}

// IncrWithPattern incrémente un compteur ; le TTL du pattern est posé à la création
func (c *Client) IncrWithPattern(ctx context.Context, patternName, clinicCode string, identifier ...string) (int64, error) {
	key, ttl, err := c.keyAndTTL(patternName, clinicCode, identifier...)
	if err != nil {
		return 0, err
	}

	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		c.rdb.Expire(ctx, key, ttl)
	}
	return n, nil
}

func (c *Client) keyAndTTL(patternName, clinicCode string, identifier ...string) (string, time.Duration, error) {
	key, err := c.keyGenerator.GenerateKey(patternName, clinicCode, identifier...)
	if err != nil {
		return "", 0, fmt.Errorf("erreur génération clé: %w", err)
	}
	ttl, err := c.keyGenerator.GetTTL(patternName)
	if err != nil {
		return "", 0, fmt.Errorf("erreur récupération TTL: %w", err)
	}
	return key, ttl, nil
}

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
