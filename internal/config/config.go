package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/rollcut/internal/cutting"
	"github.com/eugenenazirov/rollcut/internal/logging"
	"github.com/eugenenazirov/rollcut/internal/solver"
	"github.com/eugenenazirov/rollcut/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// defaultMaxConcurrentSolves allows one solve per core, minus one.
var defaultMaxConcurrentSolves = max(1, runtime.NumCPU()-1)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	StockLength          int
	SolverTimeLimit      time.Duration
	SolverMaxVariables   int
	ModelMaxVariables    int
	MaxConcurrentSolves  int
	CombinedObjective    bool
	Variants             []cutting.Variant
	PlanHistory          int
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	StockLength          int           `yaml:"stock_length"`
	PlanHistory          int           `yaml:"plan_history"`
	LogLevel             string        `yaml:"log_level"`
	Solver               yamlSolver    `yaml:"solver"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlSolver represents the solver section in YAML.
type yamlSolver struct {
	TimeLimit         string   `yaml:"time_limit"`
	MaxVariables      int      `yaml:"max_variables"`
	MaxModelVariables *int     `yaml:"max_model_variables"`
	MaxConcurrent     *int     `yaml:"max_concurrent"`
	CombinedObjective *bool    `yaml:"combined_objective"`
	Variants          []string `yaml:"variants"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile        string
	Port              *string
	StockLength       *int
	SolverTimeLimit   *time.Duration
	CombinedObjective *bool
	VariantsStr       *string
	LogLevel          *string
	RateLimitRPS      *float64
	RateLimitBurst    *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (lowest explicit source)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		StockLength:          storage.DefaultStockLength,
		SolverTimeLimit:      solver.DefaultTimeLimit,
		SolverMaxVariables:   solver.DefaultMaxVariables,
		ModelMaxVariables:    cutting.DefaultMaxModelVariables,
		MaxConcurrentSolves:  defaultMaxConcurrentSolves,
		Variants:             append([]cutting.Variant(nil), cutting.DefaultVariants...),
		PlanHistory:          storage.DefaultPlanHistory,
		LogLevel:             logging.DefaultLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         60 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.StockLength > 0 {
		cfg.StockLength = yamlCfg.StockLength
	}
	if yamlCfg.PlanHistory > 0 {
		cfg.PlanHistory = yamlCfg.PlanHistory
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.Solver.TimeLimit != "" {
		d, err := time.ParseDuration(yamlCfg.Solver.TimeLimit)
		if err != nil {
			return fmt.Errorf("solver.time_limit: %w", err)
		}
		cfg.SolverTimeLimit = d
	}
	if yamlCfg.Solver.MaxVariables > 0 {
		cfg.SolverMaxVariables = yamlCfg.Solver.MaxVariables
	}
	if yamlCfg.Solver.MaxModelVariables != nil {
		cfg.ModelMaxVariables = *yamlCfg.Solver.MaxModelVariables
	}
	if yamlCfg.Solver.MaxConcurrent != nil {
		cfg.MaxConcurrentSolves = *yamlCfg.Solver.MaxConcurrent
	}
	if yamlCfg.Solver.CombinedObjective != nil {
		cfg.CombinedObjective = *yamlCfg.Solver.CombinedObjective
	}
	if len(yamlCfg.Solver.Variants) > 0 {
		variants, err := parseVariants(yamlCfg.Solver.Variants)
		if err != nil {
			return fmt.Errorf("solver.variants: %w", err)
		}
		cfg.Variants = variants
	}

	durations := []struct {
		raw    string
		target *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if value, err := time.ParseDuration(d.raw); err == nil {
			*d.target = value
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("STOCK_LENGTH")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.StockLength = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SOLVER_TIME_LIMIT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.SolverTimeLimit = d
		}
	}

	if raw := strings.TrimSpace(os.Getenv("COMBINED_OBJECTIVE")); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.CombinedObjective = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SOLVER_VARIANTS")); raw != "" {
		variants, err := parseVariants(strings.Split(raw, ","))
		if err != nil {
			return fmt.Errorf("SOLVER_VARIANTS: %w", err)
		}
		cfg.Variants = variants
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_MODEL_VARIABLES")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.ModelMaxVariables = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("MAX_CONCURRENT_SOLVES")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.MaxConcurrentSolves = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("PLAN_HISTORY")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.PlanHistory = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.StockLength != nil && *overrides.StockLength > 0 {
		cfg.StockLength = *overrides.StockLength
	}

	if overrides.SolverTimeLimit != nil && *overrides.SolverTimeLimit > 0 {
		cfg.SolverTimeLimit = *overrides.SolverTimeLimit
	}

	if overrides.CombinedObjective != nil {
		cfg.CombinedObjective = *overrides.CombinedObjective
	}

	if overrides.VariantsStr != nil && *overrides.VariantsStr != "" {
		variants, err := parseVariants(strings.Split(*overrides.VariantsStr, ","))
		if err != nil {
			return fmt.Errorf("parse variants: %w", err)
		}
		cfg.Variants = variants
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.StockLength <= 0 {
		return fmt.Errorf("stock length must be positive")
	}
	if cfg.MaxConcurrentSolves < 0 {
		return fmt.Errorf("max concurrent solves must be >= 0")
	}
	if cfg.ModelMaxVariables < 0 {
		return fmt.Errorf("max model variables must be >= 0")
	}
	if cfg.SolverTimeLimit < 0 {
		return fmt.Errorf("solver time limit must be >= 0")
	}
	if len(cfg.Variants) == 0 {
		return fmt.Errorf("at least one model variant is required")
	}
	return nil
}

// parseVariants parses variant names or numbers, keeping their order.
func parseVariants(raw []string) ([]cutting.Variant, error) {
	variants := make([]cutting.Variant, 0, len(raw))
	for _, part := range raw {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := cutting.ParseVariant(part)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants provided")
	}
	return variants, nil
}
