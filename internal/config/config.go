package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/chalkak/chalkak-server/pkg/config"
)

// defaultJWTSecret is only acceptable in development mode.
const defaultJWTSecret = "chalkak-development-secret-change-me-now"

// Config holds all configuration for the chalkak server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"chalkak"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"chalkak_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"chalkak"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool tuning
	DBMaxConns            int `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"chalkak-development-secret-change-me-now"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"1h"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"336h"`

	// Social login providers
	KakaoUserInfoURL string `env:"KAKAO_USER_INFO_URL" envDefault:"https://kapi.kakao.com/v2/user/me"`
	NaverUserInfoURL string `env:"NAVER_USER_INFO_URL" envDefault:"https://openapi.naver.com/v1/nid/me"`
	AppleKeysURL     string `env:"APPLE_KEYS_URL" envDefault:"https://appleid.apple.com/auth/keys"`
	AppleClientID    string `env:"APPLE_CLIENT_ID" envDefault:""`

	// Token janitor
	JanitorInterval    time.Duration `env:"TOKEN_JANITOR_INTERVAL" envDefault:"1h"`
	UsedTokenRetention time.Duration `env:"USED_TOKEN_RETENTION" envDefault:"24h"`

	// Rate limiting on auth endpoints
	AuthRateLimitRPS   int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Profiling endpoints are exposed only to these CIDRs. Empty disables them.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load chalkak config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Signing keys shorter than 32 bytes are rejected outright.
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes long, got %d", len(cfg.JWTSecret))
	}

	// In non-development environments, require an explicitly set secret.
	if cfg.Environment != "development" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
	}

	if cfg.JWTAccessExpiry <= 0 {
		return nil, fmt.Errorf("invalid access token expiry: %s", cfg.JWTAccessExpiry)
	}
	if cfg.JWTRefreshExpiry <= cfg.JWTAccessExpiry {
		return nil, fmt.Errorf("refresh token expiry %s must exceed access token expiry %s",
			cfg.JWTRefreshExpiry, cfg.JWTAccessExpiry)
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
