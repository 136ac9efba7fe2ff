package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting for the giftway service.
type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseDSN string

	// Activation webhook.
	WebhookSecret    string
	RequireSignature bool

	// Matrix redemption provider.
	MatrixBaseURL string
	MatrixAPIKey  string
	MatrixTimeout time.Duration
	MatrixStub    bool

	// Staff sessions.
	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string

	ScanRateLimit  int
	ScanRateWindow time.Duration

	SchedulerEnabled bool

	Tracing TracingConfig

	Bootstrap BootstrapConfig
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// BootstrapConfig controls startup seeding.
type BootstrapConfig struct {
	EnsureDefaultCompanyAndAdmin bool
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: envString("GIFTWAY_ENV", "development"),
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),
		DatabaseDSN: envString("DATABASE_DSN", ""),

		WebhookSecret:    envString("ACTIVATION_WEBHOOK_SECRET", ""),
		RequireSignature: envBool("ACTIVATION_REQUIRE_SIGNATURE", false),

		MatrixBaseURL: envString("MATRIX_BASE_URL", ""),
		MatrixAPIKey:  envString("MATRIX_API_KEY", ""),
		MatrixTimeout: envDuration("MATRIX_TIMEOUT", 10*time.Second),
		MatrixStub:    envBool("MATRIX_STUB", false),

		JWTSecret: envString("JWT_SECRET", ""),
		JWTTTL:    envDuration("JWT_TTL", 12*time.Hour),

		RedisAddr:     envString("REDIS_ADDR", ""),
		RedisPassword: envString("REDIS_PASSWORD", ""),

		ScanRateLimit:  envInt("SCAN_RATE_LIMIT", 30),
		ScanRateWindow: envDuration("SCAN_RATE_WINDOW", time.Minute),

		SchedulerEnabled: envBool("SCHEDULER_ENABLED", true),

		Tracing: TracingConfig{
			Enabled:          envBool("OTEL_ENABLED", false),
			ServiceName:      envString("OTEL_SERVICE_NAME", "giftway"),
			ServiceVersion:   envString("OTEL_SERVICE_VERSION", "dev"),
			ExporterEndpoint: envString("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			ExporterProtocol: envString("OTEL_EXPORTER_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("OTEL_SAMPLING_RATIO", 1.0),
		},

		Bootstrap: BootstrapConfig{
			EnsureDefaultCompanyAndAdmin: envBool("BOOTSTRAP_DEFAULT_COMPANY", true),
		},
	}

	// When no signature is required the webhook secret may stay empty;
	// requiring one without a secret is a misconfiguration.
	if cfg.RequireSignature && strings.TrimSpace(cfg.WebhookSecret) == "" {
		return cfg, ErrMissingWebhookSecret
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
