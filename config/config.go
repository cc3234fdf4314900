// Package config loads the worldloop configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/worldloop/controller"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/planning"
	"github.com/hupe1980/worldloop/tracker"
)

// Config holds all worldloop configuration.
type Config struct {
	Tracker    tracker.Config   `yaml:"tracker"`
	Planning   PlanningConfig   `yaml:"planning"`
	Planner    PlannerConfig    `yaml:"planner"`
	Controller ControllerConfig `yaml:"controller"`
	Logging    LoggingConfig    `yaml:"logging"`
	Report     ReportConfig     `yaml:"report"`
}

// PlanningConfig configures the planning helper.
type PlanningConfig struct {
	// Goal names one of domain.Goals.
	Goal         string        `yaml:"goal"`
	SlowPlanning time.Duration `yaml:"slow_planning"`
	Timeout      time.Duration `yaml:"timeout"`
}

// PlannerConfig selects and configures the planner.
type PlannerConfig struct {
	Provider    string  `yaml:"provider"` // anthropic, openai, scripted
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	MaxCalls    int     `yaml:"max_calls"`
	Stream      bool    `yaml:"stream"`
	// Script holds the plan answered by the scripted planner, one
	// "(action arg...)" line per task.
	Script string `yaml:"script"`
}

// ControllerConfig configures the controller.
type ControllerConfig struct {
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text, zap
}

// ReportConfig selects the report store.
type ReportConfig struct {
	Store string `yaml:"store"` // memory, sqlite
	Path  string `yaml:"path"`
}

// Planner providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderScripted  = "scripted"
)

// Report stores.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ValidProviders lists all supported planner providers.
var ValidProviders = []string{ProviderAnthropic, ProviderOpenAI, ProviderScripted}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tracker: tracker.DefaultConfig(),
		Planning: PlanningConfig{
			Goal:         domain.EngageableHumansAreGreeted.Name,
			SlowPlanning: planning.DefaultSlowPlanning,
		},
		Planner: PlannerConfig{
			Provider:  ProviderScripted,
			MaxTokens: 1024,
		},
		Controller: ControllerConfig{
			RetryDelay: controller.DefaultRetryDelay,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Report: ReportConfig{
			Store: StoreMemory,
			Path:  filepath.Join(".worldloop", "reports.db"),
		},
	}
}

// Load loads configuration from a YAML file over the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides fills the API key of the selected provider from the
// environment when the file leaves it empty.
func (c *Config) applyEnvOverrides() {
	if c.Planner.APIKey != "" {
		return
	}
	switch c.Planner.Provider {
	case ProviderAnthropic:
		c.Planner.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		c.Planner.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidProviders, c.Planner.Provider) {
		return fmt.Errorf("invalid planner provider: %s (valid: %v)", c.Planner.Provider, ValidProviders)
	}
	if c.Planner.Provider != ProviderScripted && c.Planner.APIKey == "" {
		return fmt.Errorf("planner API key not configured (set api_key, ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}
	if _, err := domain.GoalByName(c.Planning.Goal); err != nil {
		return err
	}
	switch c.Report.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Report.Path == "" {
			return fmt.Errorf("sqlite report store needs a path")
		}
	default:
		return fmt.Errorf("invalid report store: %s (valid: [%s %s])", c.Report.Store, StoreMemory, StoreSQLite)
	}
	if c.Tracker.ZoneRadius <= 0 {
		return fmt.Errorf("tracker zone radius must be positive, got %v", c.Tracker.ZoneRadius)
	}
	return nil
}
