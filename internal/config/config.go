package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderCasdoor = "casdoor"
	AuthProviderLocal   = "local"

	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Port         string
	Environment  string
	ServiceName  string
	LogLevel     slog.Level
	RedisURL     string
	SeedDemoData bool

	// CORSAllowedOrigins empty means any origin
	CORSAllowedOrigins []string

	Database   DatabaseConfig
	Casdoor    CasdoorConfig
	Auth       AuthConfig
	Kafka      KafkaConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// CasdoorConfig holds the Casdoor application credentials
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type AuthConfig struct {
	Provider  string
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// KafkaConfig is optional; with no brokers events stay in-process
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

type AttendanceConfig struct {
	LowAttendanceThreshold float64
}

// LoadConfig reads .env (if present) and the process environment
func LoadConfig() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		ServiceName:  getEnv("SERVICE_NAME", "attendance-service"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:     getEnv("REDIS_URL", ""),
		SeedDemoData: getEnvBool("SEED_DEMO_DATA", false),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DBDriverPostgres)),
			DSN:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Cert:         getEnv("CASDOOR_CERT", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Auth: AuthConfig{
			Provider:  strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderCasdoor)),
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
			Issuer:    getEnv("JWT_ISSUER", "attendance-service"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:         getEnv("KAFKA_TOPIC", "attendance.events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "attendance-service"),
		},
		Attendance: AttendanceConfig{
			LowAttendanceThreshold: getEnvFloat("LOW_ATTENDANCE_THRESHOLD", 75),
		},
	}

	// Casdoor certificates are usually supplied with escaped newlines
	cfg.Casdoor.Cert = strings.ReplaceAll(cfg.Casdoor.Cert, `\n`, "\n")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DBDriverPostgres:
		if c.Database.DSN == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres driver")
		}
	case DBDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	switch c.Auth.Provider {
	case AuthProviderCasdoor:
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
			problems = append(problems, "CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required for the casdoor provider")
		}
	case AuthProviderLocal:
		if c.Auth.JWTSecret == "" {
			if c.IsProduction() {
				problems = append(problems, "JWT_SECRET is required in production")
			} else {
				c.Auth.JWTSecret = "development-secret-change-me"
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported AUTH_PROVIDER %q", c.Auth.Provider))
	}

	if c.Attendance.LowAttendanceThreshold < 0 || c.Attendance.LowAttendanceThreshold > 100 {
		problems = append(problems, "LOW_ATTENDANCE_THRESHOLD must be between 0 and 100")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
