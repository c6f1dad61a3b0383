package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("AUTH_PROVIDER", "local")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("expected development JWT secret to be filled in")
	}
	if cfg.Attendance.LowAttendanceThreshold != 75 {
		t.Errorf("LowAttendanceThreshold = %v, want 75", cfg.Attendance.LowAttendanceThreshold)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("Kafka.Brokers = %v, want none", cfg.Kafka.Brokers)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("JWT_TOKEN_TTL", "2h")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://attendance.example.com,http://localhost:5173")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if !cfg.SeedDemoData {
		t.Error("SeedDemoData should be true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "postgres without dsn",
			cfg: Config{
				Database: DatabaseConfig{Driver: DBDriverPostgres},
				Auth:     AuthConfig{Provider: AuthProviderLocal, JWTSecret: "x"},
			},
			wantErr: true,
		},
		{
			name: "casdoor without endpoint",
			cfg: Config{
				Database: DatabaseConfig{Driver: DBDriverMemory},
				Auth:     AuthConfig{Provider: AuthProviderCasdoor},
			},
			wantErr: true,
		},
		{
			name: "local in production without secret",
			cfg: Config{
				Environment: "production",
				Database:    DatabaseConfig{Driver: DBDriverMemory},
				Auth:        AuthConfig{Provider: AuthProviderLocal},
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			cfg: Config{
				Database: DatabaseConfig{Driver: DBDriverMemory},
				Auth:     AuthConfig{Provider: "ldap"},
			},
			wantErr: true,
		},
		{
			name: "threshold out of range",
			cfg: Config{
				Database:   DatabaseConfig{Driver: DBDriverMemory},
				Auth:       AuthConfig{Provider: AuthProviderLocal, JWTSecret: "x"},
				Attendance: AttendanceConfig{LowAttendanceThreshold: 120},
			},
			wantErr: true,
		},
		{
			name: "valid casdoor",
			cfg: Config{
				Database: DatabaseConfig{Driver: DBDriverPostgres, DSN: "postgres://localhost/attendance"},
				Auth:     AuthConfig{Provider: AuthProviderCasdoor},
				Casdoor:  CasdoorConfig{Endpoint: "http://casdoor:8000", ClientID: "client"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
