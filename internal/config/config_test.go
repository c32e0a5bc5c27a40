package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/eugenenazirov/rollcut/internal/cutting"
	"github.com/eugenenazirov/rollcut/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STOCK_LENGTH", "SOLVER_TIME_LIMIT", "COMBINED_OBJECTIVE", "SOLVER_VARIANTS",
		"PLAN_HISTORY", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MAX_CONCURRENT_SOLVES", "MAX_MODEL_VARIABLES",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.StockLength != storage.DefaultStockLength {
		t.Fatalf("expected default stock length, got %d", cfg.StockLength)
	}
	if cfg.SolverTimeLimit != 10*time.Second {
		t.Fatalf("unexpected solver time limit: %s", cfg.SolverTimeLimit)
	}
	if !slices.Equal(cfg.Variants, cutting.DefaultVariants) {
		t.Fatalf("unexpected variants: %v", cfg.Variants)
	}
	if cfg.CombinedObjective {
		t.Fatalf("combined objective should be off by default")
	}
	if cfg.MaxConcurrentSolves < 1 {
		t.Fatalf("expected at least one solve slot, got %d", cfg.MaxConcurrentSolves)
	}
	if cfg.ModelMaxVariables != cutting.DefaultMaxModelVariables {
		t.Fatalf("unexpected model size budget: %d", cfg.ModelMaxVariables)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STOCK_LENGTH", "60")
	t.Setenv("SOLVER_TIME_LIMIT", "2s")
	t.Setenv("COMBINED_OBJECTIVE", "true")
	t.Setenv("SOLVER_VARIANTS", "unbucketed, 1")
	t.Setenv("MAX_CONCURRENT_SOLVES", "3")
	t.Setenv("MAX_MODEL_VARIABLES", "2500")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.StockLength != 60 {
		t.Fatalf("expected stock length 60, got %d", cfg.StockLength)
	}
	if cfg.SolverTimeLimit != 2*time.Second {
		t.Fatalf("expected 2s time limit, got %s", cfg.SolverTimeLimit)
	}
	if !cfg.CombinedObjective {
		t.Fatalf("expected combined objective from env")
	}
	if cfg.MaxConcurrentSolves != 3 {
		t.Fatalf("expected 3 solve slots, got %d", cfg.MaxConcurrentSolves)
	}
	if cfg.ModelMaxVariables != 2500 {
		t.Fatalf("expected model size budget 2500, got %d", cfg.ModelMaxVariables)
	}
	if want := []cutting.Variant{cutting.VariantUnbucketed, cutting.VariantWideBand}; !slices.Equal(cfg.Variants, want) {
		t.Fatalf("expected variants %v, got %v", want, cfg.Variants)
	}
}

func TestLoadRejectsUnknownVariant(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOLVER_VARIANTS", "wide-band,greedy")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("STOCK_LENGTH", "50")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfigFile(t, `
port: "7500"
stock_length: 120
plan_history: 5
enable_request_logging: false
solver:
  time_limit: 3s
  max_variables: 5000
  max_concurrent: 0
  max_model_variables: 0
  combined_objective: true
  variants: [narrow-band, unbucketed]
rate_limit:
  rps: 0
`)

	port := "8500"
	limit := 4 * time.Second
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port, SolverTimeLimit: &limit})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8500" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.StockLength != 120 {
		t.Fatalf("expected YAML stock length to override env, got %d", cfg.StockLength)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env log level when YAML is silent, got %s", cfg.LogLevel)
	}
	if cfg.SolverTimeLimit != 4*time.Second {
		t.Fatalf("expected CLI time limit, got %s", cfg.SolverTimeLimit)
	}
	if cfg.SolverMaxVariables != 5000 || !cfg.CombinedObjective || cfg.PlanHistory != 5 {
		t.Fatalf("unexpected solver settings: %+v", cfg)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled by YAML")
	}
	if cfg.MaxConcurrentSolves != 0 {
		t.Fatalf("expected solve cap disabled by YAML, got %d", cfg.MaxConcurrentSolves)
	}
	if cfg.ModelMaxVariables != 0 {
		t.Fatalf("expected model size budget disabled by YAML, got %d", cfg.ModelMaxVariables)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected rate limiting disabled by YAML, got %v", cfg.RateLimitRPS)
	}
	if want := []cutting.Variant{cutting.VariantNarrowBand, cutting.VariantUnbucketed}; !slices.Equal(cfg.Variants, want) {
		t.Fatalf("expected variants %v, got %v", want, cfg.Variants)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestParseVariants(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parseVariants([]string{"3", " ", "wide-band"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []cutting.Variant{cutting.VariantLongestSplit, cutting.VariantWideBand}; !slices.Equal(got, want) {
			t.Fatalf("unexpected variants: %v", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := parseVariants([]string{" ", ""}); err == nil {
			t.Fatalf("expected error for empty list")
		}
		if _, err := parseVariants([]string{"1", "x"}); err == nil {
			t.Fatalf("expected error for invalid variant")
		}
	})
}
