package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"micromeda/internal/assign"
)

// DefaultPath is the project file looked up when no --config flag is given.
const DefaultPath = "micromeda.yaml"

type ProjectConfig struct {
	Catalog    string           `yaml:"catalog"`
	Store      StoreConfig      `yaml:"store"`
	Workers    int              `yaml:"workers" validate:"gte=1"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type AssignmentConfig struct {
	Threshold       string `yaml:"threshold" validate:"oneof=at-least exceeds"`
	Category        string `yaml:"category" validate:"oneof=counted unthresholded"`
	HonorSufficient bool   `yaml:"honor_sufficient"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no project file exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Workers: runtime.NumCPU(),
		Assignment: AssignmentConfig{
			Threshold: assign.ThresholdAtLeast.String(),
			Category:  assign.CategoryCounted.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadProjectConfig reads path over the defaults. A missing file is not an
// error.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("loading project config %s: %w", path, err)
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field tags and then the rules that span fields.
func Validate(cfg *ProjectConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "ProjectConfig.")
			if fe.Param() != "" {
				return fmt.Errorf("%s: must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("%s: failed %s", field, fe.Tag())
		}
		return err
	}
	return validateProjectConfig(cfg)
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if dsn := strings.TrimSpace(cfg.Store.DSN); dsn != "" {
		scheme, _, found := strings.Cut(dsn, "://")
		if found && scheme != "sqlite" && scheme != "postgres" && scheme != "postgresql" {
			return fmt.Errorf("store.dsn: unsupported scheme %q", scheme)
		}
	}
	if cfg.Metrics.Textfile != "" && !strings.HasSuffix(cfg.Metrics.Textfile, ".prom") {
		return fmt.Errorf("metrics.textfile: %q must end in .prom", cfg.Metrics.Textfile)
	}
	return nil
}

// Policy converts the assignment section into an engine policy.
func (c *ProjectConfig) Policy() (assign.Policy, error) {
	threshold, err := assign.ParseThresholdRule(c.Assignment.Threshold)
	if err != nil {
		return assign.Policy{}, err
	}
	category, err := assign.ParseCategoryRule(c.Assignment.Category)
	if err != nil {
		return assign.Policy{}, err
	}
	return assign.Policy{
		Threshold:       threshold,
		Category:        category,
		HonorSufficient: c.Assignment.HonorSufficient,
	}, nil
}

// WriteProjectConfig validates cfg and writes it to path as YAML.
func WriteProjectConfig(path string, cfg *ProjectConfig) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	return nil
}
