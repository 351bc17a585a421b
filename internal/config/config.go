package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Langfuse LangfuseConfig
	Gateway  GatewayConfig
	Cache    CacheConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type LangfuseConfig struct {
	SecretKey string
	PublicKey string
	BaseURL   string
}

type GatewayConfig struct {
	APIKey      string
	BaseURL     string
	VirtualKeys map[string]string // provider -> virtual key
	Timeout     time.Duration
	MaxRetries  int
}

type CacheConfig struct {
	TemplateTTL time.Duration
}

type SweeperConfig struct {
	StalePendingAfter time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	gatewayTimeout, err := getEnvInt("GATEWAY_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT_SECONDS: %w", err)
	}

	// Retries are off unless explicitly enabled; a transient gateway
	// error is terminal for that model's attempt by default.
	gatewayRetries, err := getEnvInt("GATEWAY_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_MAX_RETRIES: %w", err)
	}

	stalePending, err := getEnvInt("STALE_PENDING_MINUTES", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_PENDING_MINUTES: %w", err)
	}

	cacheTTL, err := getEnvInt("TEMPLATE_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid TEMPLATE_CACHE_TTL_SECONDS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		},
		Langfuse: LangfuseConfig{
			SecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
			PublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
			BaseURL:   getEnv("LANGFUSE_BASE_URL", "https://cloud.langfuse.com"),
		},
		Gateway: GatewayConfig{
			APIKey:  getEnv("PORTKEY_API_KEY", ""),
			BaseURL: getEnv("PORTKEY_BASE_URL", "https://api.portkey.ai/v1"),
			VirtualKeys: map[string]string{
				"anthropic": getEnv("PORTKEY_VIRTUAL_KEY_ANTHROPIC", ""),
				"openai":    getEnv("PORTKEY_VIRTUAL_KEY_OPENAI", ""),
				"google":    getEnv("PORTKEY_VIRTUAL_KEY_GOOGLE", ""),
			},
			Timeout:    time.Duration(gatewayTimeout) * time.Second,
			MaxRetries: gatewayRetries,
		},
		Cache: CacheConfig{
			TemplateTTL: time.Duration(cacheTTL) * time.Second,
		},
		Sweeper: SweeperConfig{
			StalePendingAfter: time.Duration(stalePending) * time.Minute,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if c.Langfuse.SecretKey == "" {
		missing = append(missing, "LANGFUSE_SECRET_KEY")
	}
	if c.Langfuse.PublicKey == "" {
		missing = append(missing, "LANGFUSE_PUBLIC_KEY")
	}
	if c.Gateway.APIKey == "" {
		missing = append(missing, "PORTKEY_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
