package scrapbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/shibukawa/scrapbook/dispatch"
	"github.com/shibukawa/scrapbook/filter"
	"github.com/shibukawa/scrapbook/formatter"
	"github.com/shibukawa/scrapbook/markdownparser"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = "scrapbook.yaml"

// Config represents the scrapbook configuration
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Check    CheckConfig    `yaml:"check"`
	Plan     PlanConfig     `yaml:"plan"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `yaml:"format"` // text, json or yaml
	Color  *bool  `yaml:"color"`
}

// MarkdownConfig selects the fenced blocks of Markdown files that hold scrapbook code
type MarkdownConfig struct {
	Languages []string `yaml:"languages"`
}

// CheckConfig controls the check command
type CheckConfig struct {
	FailOnError *bool `yaml:"fail_on_error"`
}

// PlanConfig controls how commands become operations
type PlanConfig struct {
	AllowUnknown   bool   `yaml:"allow_unknown"`
	AllowDangerous bool   `yaml:"allow_dangerous"`
	Timeout        string `yaml:"timeout"`
	Filter         string `yaml:"filter"` // CEL expression selecting commands
}

// LoadConfig loads configuration from the specified file. A missing file at
// the default location yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	// Load .env files first
	err := loadEnvFiles(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	config := &Config{}

	data, err := os.ReadFile(configPath)

	switch {
	case os.IsNotExist(err) && explicit:
		return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Parse YAML with strict mode to detect unknown fields
		err = yaml.UnmarshalWithOptions(data, config, yaml.Strict())
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	expandConfigEnvVars(config)
	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func applyDefaults(config *Config) {
	if config.Output.Format == "" {
		config.Output.Format = string(formatter.FormatText)
	}

	if config.Output.Color == nil {
		config.Output.Color = boolPtr(true)
	}

	if len(config.Markdown.Languages) == 0 {
		config.Markdown.Languages = slices.Clone(markdownparser.DefaultLanguages)
	}

	for i, language := range config.Markdown.Languages {
		config.Markdown.Languages[i] = strings.ToLower(strings.TrimSpace(language))
	}

	if config.Check.FailOnError == nil {
		config.Check.FailOnError = boolPtr(true)
	}
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if _, err := formatter.ParseFormat(config.Output.Format); err != nil {
		return fmt.Errorf("%w: output.format: %w", ErrConfigValidation, err)
	}

	for _, language := range config.Markdown.Languages {
		if language == "" || strings.ContainsAny(language, " \t`") {
			return fmt.Errorf("%w: markdown.languages: invalid fence language '%s'", ErrConfigValidation, language)
		}
	}

	if config.Plan.Timeout != "" {
		timeout, err := time.ParseDuration(config.Plan.Timeout)
		if err != nil {
			return fmt.Errorf("%w: plan.timeout: %w", ErrConfigValidation, err)
		}

		if timeout < 0 {
			return fmt.Errorf("%w: plan.timeout must not be negative", ErrConfigValidation)
		}
	}

	if config.Plan.Filter != "" {
		if _, err := filter.New(config.Plan.Filter); err != nil {
			return fmt.Errorf("%w: plan.filter: %w", ErrConfigValidation, err)
		}
	}

	return nil
}

// loadEnvFiles loads .env files next to the configuration file and in the
// current directory. Variables already set are kept.
func loadEnvFiles(dir string) error {
	paths := []string{".env"}
	if dir != "." && dir != "" {
		paths = append([]string{filepath.Join(dir, ".env")}, paths...)
	}

	for _, path := range paths {
		if !fileExists(path) {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

func expandConfigEnvVars(config *Config) {
	config.Output.Format = expandEnvVars(config.Output.Format)
	config.Plan.Timeout = expandEnvVars(config.Plan.Timeout)

	for i, language := range config.Markdown.Languages {
		config.Markdown.Languages[i] = expandEnvVars(language)
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Format returns the validated output format.
func (c *Config) Format() formatter.Format {
	format, _ := formatter.ParseFormat(c.Output.Format)
	return format
}

// FailOnError reports whether check should fail when a scrapbook has errors.
func (c *Config) FailOnError() bool {
	return c.Check.FailOnError == nil || *c.Check.FailOnError
}

// Colored reports whether text output uses colors.
func (c *Config) Colored() bool {
	return c.Output.Color == nil || *c.Output.Color
}

// PlanOptions converts the plan section into dispatch options.
func (c *Config) PlanOptions(logger *slog.Logger) dispatch.Options {
	options := dispatch.Options{
		AllowUnknown:   c.Plan.AllowUnknown,
		AllowDangerous: c.Plan.AllowDangerous,
		Logger:         logger,
	}

	if c.Plan.Timeout != "" {
		options.Timeout, _ = time.ParseDuration(c.Plan.Timeout)
	}

	return options
}
