package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const configBaseName = "allocator_config"

// ErrConfigNotFound is returned when no config file exists in the search locations
var ErrConfigNotFound = errors.New("config file not found")

// BudgetOverride replaces the volunteer budget or fairness weight on dates matching RRule
type BudgetOverride struct {
	RRule               string   `yaml:"rrule" validate:"required"`
	AvailableVolunteers *int     `yaml:"availableVolunteers,omitempty" validate:"omitempty,min=0"`
	FairnessWeight      *float64 `yaml:"fairnessWeight,omitempty" validate:"omitempty,min=0"`
}

// Config represents the application configuration
type Config struct {
	DefaultFairnessWeight float64          `yaml:"defaultFairnessWeight" validate:"min=0"`
	SolveTimeout          string           `yaml:"solveTimeout" validate:"required"`
	MaxNodes              int              `yaml:"maxNodes" validate:"min=1"`
	CacheSize             int              `yaml:"cacheSize" validate:"min=0"`
	DatabaseURL           string           `yaml:"databaseURL,omitempty"`
	ListenAddr            string           `yaml:"listenAddr" validate:"required"`
	ScenarioWorkers       int              `yaml:"scenarioWorkers" validate:"min=1"`
	LogsDir               string           `yaml:"logsDir" validate:"required"`
	BudgetOverrides       []BudgetOverride `yaml:"budgetOverrides,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when a field is absent from the file
func Default() *Config {
	return &Config{
		DefaultFairnessWeight: 0.6,
		SolveTimeout:          "30s",
		MaxNodes:              100000,
		CacheSize:             256,
		ListenAddr:            ":8080",
		ScenarioWorkers:       4,
		LogsDir:               "logs",
	}
}

// Timeout returns the parsed per-solve timeout
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.SolveTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Load loads and validates allocator_config.yaml.
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads allocator_config.<env>.yaml, or allocator_config.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct, the timeout and the override rules
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	d, err := time.ParseDuration(cfg.SolveTimeout)
	if err != nil {
		return fmt.Errorf("invalid solveTimeout %q: %w", cfg.SolveTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("solveTimeout must be positive, got %s", cfg.SolveTimeout)
	}

	for i, override := range cfg.BudgetOverrides {
		if _, err := ParseOverrideRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in budgetOverrides[%d]: %w", i, err)
		}
	}

	return nil
}

func configFileName(env string) string {
	if env == "" {
		return configBaseName + ".yaml"
	}
	return fmt.Sprintf("%s.%s.yaml", configBaseName, env)
}

// findConfigFile searches for the named file in the current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%w: %s not in current directory or home directory", ErrConfigNotFound, name)
}

// overrideEpoch anchors override rules that carry no DTSTART
var overrideEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseOverrideRule parses a budget override rule. The rule may carry its own
// anchor, inline (FREQ=WEEKLY;DTSTART=20250301) or as a DTSTART line. A rule
// without one must pick its days the same way from any start date: it needs a
// day selector (BYDAY, BYMONTHDAY, BYYEARDAY, BYWEEKNO or BYEASTER) unless it
// is a plain FREQ=DAILY, and it may not use INTERVAL or COUNT.
// Frequencies finer than DAILY are rejected.
func ParseOverrideRule(s string) (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, err
	}

	if opt.Freq > rrule.DAILY {
		return nil, fmt.Errorf("frequency %s is finer than DAILY", opt.Freq)
	}

	if opt.Dtstart.IsZero() {
		if opt.Interval > 1 || opt.Count > 0 {
			return nil, errors.New("INTERVAL and COUNT need a DTSTART")
		}
		if opt.Freq != rrule.DAILY && !hasDaySelector(opt) {
			return nil, fmt.Errorf("FREQ=%s without a day selector needs a DTSTART", opt.Freq)
		}
		opt.Dtstart = overrideEpoch
	}

	return rrule.NewRRule(*opt)
}

func hasDaySelector(opt *rrule.ROption) bool {
	return len(opt.Byweekday) > 0 ||
		len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 ||
		len(opt.Byeaster) > 0
}
