package config

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			config:  Config{Port: "8080", DataBackend: "memory"},
			wantErr: false,
		},
		{
			name:    "valid sqlite backend config",
			config:  Config{Port: "8080", DataBackend: "sqlite", SQLiteDBPath: "./test.db"},
			wantErr: false,
		},
		{
			name:    "valid postgres backend config",
			config:  Config{Port: "8080", DataBackend: "postgres", DatabaseURL: "postgres://localhost/finance"},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			config:      Config{Port: "abc", DataBackend: "memory"},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			config:      Config{Port: "70000", DataBackend: "memory"},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			config:      Config{Port: "8080", DataBackend: "redis"},
			wantErr:     true,
			errorString: "invalid data backend 'redis'",
		},
		{
			name:        "postgres backend missing database url",
			config:      Config{Port: "8080", DataBackend: "postgres"},
			wantErr:     true,
			errorString: "DATABASE_URL is required when using postgres backend",
		},
		{
			name:        "sqlite backend missing database path",
			config:      Config{Port: "8080", DataBackend: "sqlite", SQLiteDBPath: ""},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"PORT", "DATA_BACKEND", "DATABASE_URL", "SQLITE_DB_PATH", "MIGRATE_ON_START", "DEV_SEED"} {
			t.Setenv(key, "")
		}
		cfg := Load()
		if cfg.Port != "8080" {
			t.Errorf("Load() Port = %v, want 8080", cfg.Port)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("Load() DataBackend = %v, want memory", cfg.DataBackend)
		}
		if !cfg.MigrateOnStart {
			t.Errorf("Load() MigrateOnStart = false, want true")
		}
		if cfg.DevSeed {
			t.Errorf("Load() DevSeed = true, want false")
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_BACKEND", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("DEV_SEED", "true")
		t.Setenv("MIGRATE_ON_START", "false")

		cfg := Load()
		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if !cfg.DevSeed {
			t.Errorf("Load() DevSeed = false, want true")
		}
		if cfg.MigrateOnStart {
			t.Errorf("Load() MigrateOnStart = true, want false")
		}
	})

	t.Run("invalid boolean uses default", func(t *testing.T) {
		t.Setenv("DEV_SEED", "maybe")
		cfg := Load()
		if cfg.DevSeed {
			t.Errorf("Load() DevSeed = true, want false (default for invalid input)")
		}
	})
}
