package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"RUN_ADDRESS", "DATABASE_URI", "BROKER_URL", "REDIS_ADDR", "JWT_SECRET", "TOKEN_EXPIRATION",
	"TIMEZONE", "MAX_ACTIVE", "DEFAULT_LOCATION", "LOG_LEVEL", "SYNC_BUFFER", "CONFIG_FILE",
}

// resetEnv очищает окружение и восстанавливает его после теста.
func resetEnv(t *testing.T) {
	t.Helper()
	originalArgs := os.Args
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		os.Args = originalArgs
		for key, value := range originalEnv {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
		flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	})
}

func load(t *testing.T, args []string) *Config {
	t.Helper()
	os.Args = args
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		envVars      map[string]string
		wantAddress  string
		wantDBURI    string
		wantBroker   string
		wantSecret   string
		wantTokenExp time.Duration
		wantMax      int
	}{
		{
			name:         "default values",
			args:         []string{"cmd"},
			envVars:      map[string]string{},
			wantAddress:  "localhost:8080",
			wantDBURI:    "",
			wantBroker:   "",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 24 * time.Hour,
			wantMax:      5,
		},
		{
			name:         "flags only",
			args:         []string{"cmd", "-a", "localhost:9090", "-d", "postgresql://db", "-b", "amqp://rabbit", "-t", "36h"},
			envVars:      map[string]string{},
			wantAddress:  "localhost:9090",
			wantDBURI:    "postgresql://db",
			wantBroker:   "amqp://rabbit",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 36 * time.Hour,
			wantMax:      5,
		},
		{
			name: "env only",
			args: []string{"cmd"},
			envVars: map[string]string{
				"RUN_ADDRESS":      "localhost:7070",
				"DATABASE_URI":     "postgresql://envdb",
				"BROKER_URL":       "kafka://localhost:9092",
				"JWT_SECRET":       "env-secret",
				"TOKEN_EXPIRATION": "48h",
				"MAX_ACTIVE":       "8",
			},
			wantAddress:  "localhost:7070",
			wantDBURI:    "postgresql://envdb",
			wantBroker:   "kafka://localhost:9092",
			wantSecret:   "env-secret",
			wantTokenExp: 48 * time.Hour,
			wantMax:      8,
		},
		{
			name: "env overrides flags",
			args: []string{"cmd", "-a", "localhost:9090", "-d", "postgresql://flagdb", "-b", "amqp://flag", "-t", "72h"},
			envVars: map[string]string{
				"RUN_ADDRESS":      "localhost:7070",
				"DATABASE_URI":     "postgresql://envdb",
				"BROKER_URL":       "amqp://env",
				"TOKEN_EXPIRATION": "12h",
			},
			wantAddress:  "localhost:7070",
			wantDBURI:    "postgresql://envdb",
			wantBroker:   "amqp://env",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 12 * time.Hour,
			wantMax:      5,
		},
		{
			name: "invalid numeric env fallback",
			args: []string{"cmd"},
			envVars: map[string]string{
				"TOKEN_EXPIRATION": "invalid",
				"MAX_ACTIVE":       "-3",
			},
			wantAddress:  "localhost:8080",
			wantDBURI:    "",
			wantBroker:   "",
			wantSecret:   "default-secret-change-in-production",
			wantTokenExp: 24 * time.Hour,
			wantMax:      5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnv(t)
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			cfg := load(t, tt.args)

			if cfg.RunAddress != tt.wantAddress {
				t.Errorf("RunAddress = %v, want %v", cfg.RunAddress, tt.wantAddress)
			}
			if cfg.DatabaseURI != tt.wantDBURI {
				t.Errorf("DatabaseURI = %v, want %v", cfg.DatabaseURI, tt.wantDBURI)
			}
			if cfg.BrokerURL != tt.wantBroker {
				t.Errorf("BrokerURL = %v, want %v", cfg.BrokerURL, tt.wantBroker)
			}
			if cfg.JWTSecret != tt.wantSecret {
				t.Errorf("JWTSecret = %v, want %v", cfg.JWTSecret, tt.wantSecret)
			}
			if cfg.TokenExpiration != tt.wantTokenExp {
				t.Errorf("TokenExpiration = %v, want %v", cfg.TokenExpiration, tt.wantTokenExp)
			}
			if cfg.MaxActive != tt.wantMax {
				t.Errorf("MaxActive = %v, want %v", cfg.MaxActive, tt.wantMax)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "cafetrack.yaml")
	content := []byte(`
run_address: "0.0.0.0:8000"
database_uri: "sqlite://cafe.db"
token_expiration: "2h"
timezone: "UTC"
max_active: 3
default_location: "annex"
sync_buffer: 16
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	os.Setenv("MAX_ACTIVE", "4")
	cfg := load(t, []string{"cmd", "-c", path, "-a", "localhost:9999"})

	if cfg.RunAddress != "localhost:9999" {
		t.Errorf("flag must override file: RunAddress = %v", cfg.RunAddress)
	}
	if cfg.DatabaseURI != "sqlite://cafe.db" {
		t.Errorf("DatabaseURI = %v", cfg.DatabaseURI)
	}
	if cfg.TokenExpiration != 2*time.Hour {
		t.Errorf("TokenExpiration = %v, want 2h", cfg.TokenExpiration)
	}
	if cfg.MaxActive != 4 {
		t.Errorf("env must override file: MaxActive = %v", cfg.MaxActive)
	}
	if cfg.DefaultLocation != "annex" || cfg.SyncBuffer != 16 {
		t.Errorf("DefaultLocation = %v, SyncBuffer = %v", cfg.DefaultLocation, cfg.SyncBuffer)
	}

	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		resetEnv(t)
		os.Args = []string{"cmd", "-c", filepath.Join(t.TempDir(), "missing.yaml")}
		flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("unknown timezone", func(t *testing.T) {
		resetEnv(t)
		os.Setenv("TIMEZONE", "Mars/Olympus")
		os.Args = []string{"cmd"}
		flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
		if _, err := Load(); err == nil {
			t.Error("expected error for unknown timezone")
		}
	})
}

func TestJWTSecretPriority(t *testing.T) {
	tests := []struct {
		name       string
		envSecret  string
		wantSecret string
	}{
		{
			name:       "env JWT secret set",
			envSecret:  "custom-jwt-secret",
			wantSecret: "custom-jwt-secret",
		},
		{
			name:       "env JWT secret empty",
			envSecret:  "",
			wantSecret: "default-secret-change-in-production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnv(t)
			if tt.envSecret != "" {
				os.Setenv("JWT_SECRET", tt.envSecret)
			}

			cfg := load(t, []string{"cmd"})

			if cfg.JWTSecret != tt.wantSecret {
				t.Errorf("JWTSecret = %v, want %v", cfg.JWTSecret, tt.wantSecret)
			}
		})
	}
}
