package config

import (
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				App:   AppConfig{Name: "test-solver"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10},
			},
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: Config{
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10},
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "invalid"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10},
			},
			wantErr: true,
		},
		{
			name: "valid debug level",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "debug"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10},
			},
			wantErr: false,
		},
		{
			name: "non-positive truck capacity",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 0, FleetSize: 10},
			},
			wantErr: true,
		},
		{
			name: "non-positive fleet size",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 0},
			},
			wantErr: true,
		},
		{
			name: "invalid input format",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10, InputFormat: "xml"},
			},
			wantErr: true,
		},
		{
			name: "valid csvset input format",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10, InputFormat: "csvset", OutputFormat: "json"},
			},
			wantErr: false,
		},
		{
			name: "invalid output format",
			cfg: Config{
				App:   AppConfig{Name: "test"},
				Log:   LogConfig{Level: "info"},
				Solve: SolveConfig{TruckCapacity: 40000, FleetSize: 10, OutputFormat: "csv"},
			},
			wantErr: true,
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

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		cfg    DatabaseConfig
		expect string
	}{
		{
			name: "postgres",
			cfg: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
				SSLMode:  "disable",
			},
			expect: "host=localhost port=5432 user=user password=pass dbname=testdb sslmode=disable",
		},
		{
			name: "mysql",
			cfg: DatabaseConfig{
				Driver:   "mysql",
				Host:     "localhost",
				Port:     3306,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expect: "user:pass@tcp(localhost:3306)/testdb?parseTime=true",
		},
		{
			name: "sqlite",
			cfg: DatabaseConfig{
				Driver:   "sqlite",
				Database: "/path/to/db.sqlite",
			},
			expect: "/path/to/db.sqlite",
		},
		{
			name: "unknown",
			cfg: DatabaseConfig{
				Driver: "unknown",
			},
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := tt.cfg.DSN()
			if dsn != tt.expect {
				t.Errorf("expected DSN %s, got %s", tt.expect, dsn)
			}
		})
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{
		Host: "redis.local",
		Port: 6379,
	}

	addr := cfg.Address()
	if addr != "redis.local:6379" {
		t.Errorf("expected 'redis.local:6379', got %s", addr)
	}
}
