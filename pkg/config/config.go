// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	Database DatabaseConfig `koanf:"database"`
	Cache   CacheConfig   `koanf:"cache"`
	Retry   RetryConfig   `koanf:"retry"`
	Solve   SolveConfig   `koanf:"solve"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig - настройки базы данных
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres, mysql, sqlite
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	MigrationsPath  string        `koanf:"migrations_path"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// DSN возвращает строку подключения
func (d DatabaseConfig) DSN() string {
	switch strings.ToLower(d.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.Username, d.Password, d.Host, d.Port, d.Database,
		)
	case "sqlite":
		return d.Database
	default:
		return ""
	}
}

// CacheConfig - настройки кэширования
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RetryConfig конфигурация retry
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
}

// SolveConfig конфигурация генерации колонок и ввода-вывода решателя.
// Значения по умолчанию совпадают с cvrp.DefaultParameters; конфиг
// позволяет переопределить их без изменения кода.
type SolveConfig struct {
	TruckCapacity               float64       `koanf:"truck_capacity"`
	FleetSize                   int           `koanf:"fleet_size"`
	MaxSolveTime                time.Duration `koanf:"max_solve_time"`
	ColumnGenerationSolveRatio  float64       `koanf:"column_generation_solve_ratio"`
	MasterProblemMIPGap         float64       `koanf:"master_problem_mip_gap"`
	PricingProblemMIPGap        float64       `koanf:"pricing_problem_mip_gap"`
	PricingProblemTimeLimit     time.Duration `koanf:"pricing_problem_time_limit"`
	MinColumnGenerationProgress float64       `koanf:"min_column_generation_progress"`
	MaxCountNoImprovements      int           `koanf:"max_count_no_improvements"`

	// Ввод и вывод
	InputFormat  string `koanf:"input_format"`  // csvset, solomon
	InputPath    string `koanf:"input_path"`
	OutputFormat string `koanf:"output_format"` // json, xlsx, pdf
	OutputPath   string `koanf:"output_path"`
	PersistRuns  bool   `koanf:"persist_runs"` // записывать ли результат в internal/store
	UseCache     bool   `koanf:"use_cache"`    // пропускать решение, если результат уже в кэше
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Solve.TruckCapacity <= 0 {
		errs = append(errs, "solve.truck_capacity must be positive")
	}
	if c.Solve.FleetSize <= 0 {
		errs = append(errs, "solve.fleet_size must be positive")
	}

	validInputFormats := map[string]bool{"csvset": true, "solomon": true}
	if c.Solve.InputFormat != "" && !validInputFormats[c.Solve.InputFormat] {
		errs = append(errs, fmt.Sprintf("solve.input_format must be one of: csvset, solomon, got %s", c.Solve.InputFormat))
	}

	validOutputFormats := map[string]bool{"json": true, "xlsx": true, "pdf": true}
	if c.Solve.OutputFormat != "" && !validOutputFormats[c.Solve.OutputFormat] {
		errs = append(errs, fmt.Sprintf("solve.output_format must be one of: json, xlsx, pdf, got %s", c.Solve.OutputFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
