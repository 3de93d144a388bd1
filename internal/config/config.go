package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port        int    `env:"PORT" env-default:"8080"`
	DataBackend string `env:"DATA_BACKEND" env-default:"postgres" env-description:"Storage backend: postgres or memory"`

	Postgres Postgres

	CategoryDeletePolicy domain.CategoryDeletePolicy `env:"CATEGORY_DELETE_POLICY" env-default:"cascade" env-description:"What deleting a category does to its expenses: cascade or orphan"`
	EmailCheckHost       bool                        `env:"EMAIL_CHECK_HOST" env-default:"false"`
	BcryptCost           int                         `env:"BCRYPT_COST" env-default:"12"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000" env-separator:","`
}

type Postgres struct {
	ConnectionString string `env:"DB_CONNECTION_STRING"`
	MaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	RunMigrations    bool   `env:"DB_RUN_MIGRATIONS" env-default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, continuing with system environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendPostgres:
		if c.Postgres.ConnectionString == "" {
			return fmt.Errorf("missing DB_CONNECTION_STRING in environment variables")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q, expected postgres or memory", c.DataBackend)
	}
	if !c.CategoryDeletePolicy.Valid() {
		return fmt.Errorf("unknown CATEGORY_DELETE_POLICY %q, expected cascade or orphan", c.CategoryDeletePolicy)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q, expected text or json", c.LogFormat)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Usage describes every supported variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
