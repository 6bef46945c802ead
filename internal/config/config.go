// =============================================================================
// Receipt Normalizer - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// SOURCES (highest priority first):
//   1. Environment variables prefixed RECEIPTS_ (e.g. RECEIPTS_OUTPUT_DIR)
//   2. The YAML config file (config.yaml unless --config says otherwise)
//   3. Built-in defaults
//
// A missing config file is not an error; defaults and environment apply.
// Command-line flags are layered on top by the cmd package.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RECEIPTS"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for raw *.json payload files.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir" yaml:"input_dir"`

	// OutputDir receives normalized receipts and run logs.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// InputArchiveDir receives payload files after successful processing.
	// Empty disables input archival.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir" yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every written receipt.
	// Empty disables output archival.
	// Default: ""
	OutputArchiveDir string `mapstructure:"output_archive_dir" yaml:"output_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile additionally receives every log line. Empty logs to stderr only.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines output file names.
	// Placeholders: {uuid} {timestamp} {date} {time} {original} {receipt}
	// Default: "{original}_{uuid}"
	OutputNameFormat string `mapstructure:"output_name_format" yaml:"output_name_format"`

	// OutputFormat is the encoding of written receipts: "json" or "yaml".
	// Default: "json"
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// SchemaVersion overrides the version stamped into meta.schemaVersion.
	// Empty uses the built-in version.
	SchemaVersion string `mapstructure:"schema_version" yaml:"schema_version"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files after one fails.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`

	// Strict rejects receipts whose validation report has any issue.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	// Redact masks merchant phone, ABN and card fields before output.
	Redact bool `mapstructure:"redact" yaml:"redact"`

	// EnforceRedaction fails a receipt that still exposes sensitive digits
	// after redaction. It implies Redact.
	EnforceRedaction bool `mapstructure:"enforce_redaction" yaml:"enforce_redaction"`

	// =========================================================================
	// HTTP SETTINGS
	// =========================================================================

	// HTTPAddr is the listen address of the serve command.
	// Default: ":8080"
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`

	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	// Empty disables CORS handling. Env: comma-separated.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`

	// HTTPRateLimit is the sustained requests per second allowed per client
	// IP. Zero disables rate limiting.
	HTTPRateLimit float64 `mapstructure:"http_rate_limit" yaml:"http_rate_limit"`

	// HTTPRateBurst is the burst size of the per-client limiter.
	// Default: 20
	HTTPRateBurst int `mapstructure:"http_rate_burst" yaml:"http_rate_burst"`
}

// defaults lists every key with its default value. Registering each key is
// also what lets viper see its environment override during Unmarshal.
var defaults = map[string]any{
	"input_dir":            "./input",
	"output_dir":           "./output",
	"input_archive_dir":    "./input_archive",
	"output_archive_dir":   "",
	"log_file":             "",
	"log_level":            "info",
	"output_name_format":   "{original}_{uuid}",
	"output_format":        "json",
	"schema_version":       "",
	"max_concurrency":      4,
	"continue_on_error":    true,
	"strict":               false,
	"redact":               false,
	"enforce_redaction":    false,
	"http_addr":            ":8080",
	"cors_allowed_origins": []string{},
	"http_rate_limit":      0.0,
	"http_rate_burst":      20,
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// New returns a viper instance with defaults and environment overrides
// registered, reading configPath when it is set.
func New(configPath string) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadMainConfig loads the configuration from configPath, the environment
// and defaults.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	return Load(New(configPath))
}

// Load reads the config file of v, if any, and decodes the result.
func Load(v *viper.Viper) (*MainConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults repairs values that decode to unusable zero values.
func applyMainConfigDefaults(config *MainConfig) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{original}_{uuid}"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "json"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.EnforceRedaction {
		config.Redact = true
	}
	if config.HTTPRateBurst <= 0 {
		config.HTTPRateBurst = 20
	}

	config.LogLevel = strings.ToLower(config.LogLevel)
	config.OutputFormat = strings.ToLower(config.OutputFormat)
}

// validateMainConfig checks enumerated values.
func validateMainConfig(config *MainConfig) error {
	switch config.OutputFormat {
	case "json", "yaml":
	default:
		return fmt.Errorf("output_format must be json or yaml, got %q", config.OutputFormat)
	}

	for _, origin := range config.CORSAllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors_allowed_origins entries must be * or start with http:// or https://, got %q", origin)
		}
	}

	if config.HTTPRateLimit < 0 {
		return fmt.Errorf("http_rate_limit must not be negative, got %v", config.HTTPRateLimit)
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", config.LogLevel)
	}

	return nil
}

// EnsureDirectories creates the input, output and archive directories that
// are configured.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.InputDir, c.OutputDir, c.InputArchiveDir, c.OutputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
