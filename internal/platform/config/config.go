package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr              string
	SessionSigningKey string
	DIDMethod         string

	PostgresDSN      string
	Redis            RedisConfig
	KafkaBrokers     []string
	AuditTopic       string
	RegistryEndpoint string
}

// RedisConfig holds connection tuning for the optional Redis cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryCacheTTL bounds how long cached registry validity answers may be
// served before re-checking the registry.
var RegistryCacheTTL = 5 * time.Minute

// ChallengeTTL bounds how long an authentication challenge stays redeemable.
var ChallengeTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SPHYRE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	signingKey := os.Getenv("SESSION_SIGNING_KEY")
	if signingKey == "" {
		// Development default, override in production.
		signingKey = "dev-secret-key-change-in-production"
	}

	method := os.Getenv("DID_METHOD")
	if method == "" {
		method = "alyra"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "sphyre.audit"
	}

	return Server{
		Addr:              addr,
		SessionSigningKey: signingKey,
		DIDMethod:         method,
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		Redis:             redisFromEnv(),
		KafkaBrokers:      brokers,
		AuditTopic:        topic,
		RegistryEndpoint:  os.Getenv("REGISTRY_ENDPOINT"),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
