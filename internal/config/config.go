package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Plan      PlanConfig      `yaml:"plan" mapstructure:"plan"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Invalid response value policies.
const (
	InvalidValuesReject = "reject"
	InvalidValuesCoerce = "coerce"
)

// Legacy/current indicator resolution modes.
const (
	LegacyFieldsPreferCurrent = "prefer_current"
	LegacyFieldsAdditive      = "additive"
)

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	// InvalidValues is "reject" (fail with an invalid-input error) or
	// "coerce" (count the value as 0).
	InvalidValues string `yaml:"invalid_values" mapstructure:"invalid_values"`
	// LegacyFields is "prefer_current" or "additive".
	LegacyFields         string `yaml:"legacy_fields" mapstructure:"legacy_fields"`
	MaxConcurrentLookups int    `yaml:"max_concurrent_lookups" mapstructure:"max_concurrent_lookups"`
}

// PlanConfig configures action plan generation.
type PlanConfig struct {
	IncludeEnvironmental bool `yaml:"include_environmental" mapstructure:"include_environmental"`
}

// BenchmarkConfig configures spreadsheet benchmark imports.
type BenchmarkConfig struct {
	SheetName     string `yaml:"sheet_name" mapstructure:"sheet_name"`
	DefaultSource string `yaml:"default_source" mapstructure:"default_source"`
}

// CatalogConfig configures the question catalog. An empty Path uses the
// embedded catalog.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory, when present, is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CIRCULARITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "circularity.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("scoring.invalid_values", InvalidValuesReject)
	v.SetDefault("scoring.legacy_fields", LegacyFieldsPreferCurrent)
	v.SetDefault("scoring.max_concurrent_lookups", 8)
	v.SetDefault("plan.include_environmental", true)
	v.SetDefault("benchmark.sheet_name", "")
	v.SetDefault("benchmark.default_source", "Import manuel")
	v.SetDefault("catalog.path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "store" (database only), "score" (database and scoring policy) and
// "serve" (everything the HTTP API needs).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store":
		errs = c.validateStore(errs)
	case "score":
		errs = c.validateStore(errs)
		errs = c.validateScoring(errs)
	case "serve":
		errs = c.validateStore(errs)
		errs = c.validateScoring(errs)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore(errs []string) []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateScoring(errs []string) []string {
	switch c.Scoring.InvalidValues {
	case InvalidValuesReject, InvalidValuesCoerce:
	default:
		errs = append(errs, "scoring.invalid_values must be reject or coerce")
	}
	switch c.Scoring.LegacyFields {
	case LegacyFieldsPreferCurrent, LegacyFieldsAdditive:
	default:
		errs = append(errs, "scoring.legacy_fields must be prefer_current or additive")
	}
	if c.Scoring.MaxConcurrentLookups < 0 {
		errs = append(errs, "scoring.max_concurrent_lookups must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
