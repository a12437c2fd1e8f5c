package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dl-alexandre/gdmirror/internal/mirror"
	"github.com/dl-alexandre/gdmirror/internal/naming"
	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "GDMIRROR_"
)

func init() {
	// report field names as they appear in the config file
	validation.ErrorTag = "yaml"
}

// Config holds everything a mirror run needs. It is loaded once, then
// handed to the components that need it.
type Config struct {
	// RootFolderID is the remote folder mirrored into Destination
	RootFolderID string `yaml:"root_folder_id" json:"rootFolderId"`

	// Destination is the local root directory
	Destination string `yaml:"destination" json:"destination"`

	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`
	Documents   DocumentsConfig   `yaml:"documents" json:"documents"`

	// Concurrency bounds simultaneous remote operations; 0 is unbounded
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Exclude lists remote path patterns to skip
	Exclude []string `yaml:"exclude" json:"exclude"`

	Registry RegistryConfig `yaml:"registry" json:"registry"`
	Log      LogConfig      `yaml:"log" json:"log"`

	// Output is the default output format (json, table)
	Output types.OutputFormat `yaml:"output" json:"output"`
}

// CredentialsConfig selects exactly one source of service account credentials
type CredentialsConfig struct {
	// KeyFile is a path to a service account JSON key
	KeyFile string `yaml:"key_file" json:"keyFile,omitempty"`
	// ClientEmail and PrivateKey form an inline key
	ClientEmail string `yaml:"client_email" json:"clientEmail,omitempty"`
	PrivateKey  string `yaml:"private_key" json:"-"`
	// KeyringProfile loads an inline key stored with `auth import`
	KeyringProfile string `yaml:"keyring_profile" json:"keyringProfile,omitempty"`
}

// HasInlineKey reports whether any inline key field is set
func (c CredentialsConfig) HasInlineKey() bool {
	return c.ClientEmail != "" || c.PrivateKey != ""
}

// Validate checks that exactly one credential source is configured
func (c CredentialsConfig) Validate() error {
	sources := 0
	if c.KeyFile != "" {
		sources++
	}
	if c.HasInlineKey() {
		sources++
	}
	if c.KeyringProfile != "" {
		sources++
	}
	switch {
	case sources == 0:
		return errors.New("one of key_file, client_email/private_key or keyring_profile is required")
	case sources > 1:
		return errors.New("key_file, client_email/private_key and keyring_profile are mutually exclusive")
	}
	if c.HasInlineKey() {
		return validation.ValidateStruct(&c,
			validation.Field(&c.ClientEmail, validation.Required),
			validation.Field(&c.PrivateKey, validation.Required),
		)
	}
	return nil
}

// DocumentsConfig controls handling of native documents
type DocumentsConfig struct {
	Include bool `yaml:"include" json:"include"`
	// ExportMimeType accepts a MIME type or a short name such as "html"
	ExportMimeType string `yaml:"export_mime_type" json:"exportMimeType"`
	// Transform names a built-in transform applied to exported bytes
	Transform string `yaml:"transform" json:"transform"`
}

// Validate validates the document settings
func (c DocumentsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ExportMimeType, validation.When(c.Include,
			validation.Required,
			validation.By(func(value interface{}) error {
				_, err := naming.ExtensionFor(utils.ResolveExportMimeType(value.(string)))
				return err
			}),
		)),
		validation.Field(&c.Transform, validation.By(func(value interface{}) error {
			_, err := mirror.LookupTransform(value.(string))
			return err
		})),
	)
}

// RetryConfig configures waiting between rate-limited attempts
type RetryConfig struct {
	Policy     string `yaml:"policy" json:"policy"`
	DelayMs    int    `yaml:"delay_ms" json:"delayMs"`
	MaxDelayMs int    `yaml:"max_delay_ms" json:"maxDelayMs"`
}

// Validate validates the retry settings
func (c RetryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Policy, validation.Required, validation.In(utils.RetryPolicyFixed, utils.RetryPolicyExponential)),
		validation.Field(&c.DelayMs, validation.Required, validation.Min(1), validation.Max(utils.MaxRetryDelayMs)),
		validation.Field(&c.MaxDelayMs, validation.Required, validation.Min(c.DelayMs)),
	)
}

// RegistryConfig selects where records are written besides stdout
type RegistryConfig struct {
	// Manifest is a JSON Lines file records are appended to
	Manifest string `yaml:"manifest" json:"manifest,omitempty"`
	// Index is a SQLite database records are upserted into
	Index string `yaml:"index" json:"index,omitempty"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file,omitempty"`
	Color bool   `yaml:"color" json:"color"`
}

// Validate validates the log settings
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Include:        true,
			ExportMimeType: utils.DefaultExportMimeType,
			Transform:      mirror.TransformIdentity,
		},
		Concurrency: 0,
		Retry: RetryConfig{
			Policy:     utils.RetryPolicyExponential,
			DelayMs:    utils.DefaultRetryDelayMs,
			MaxDelayMs: utils.MaxRetryDelayMs,
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
		Output: types.OutputFormatTable,
	}
}

// Load reads configuration with precedence: env vars > config file > defaults.
// An explicit path must exist; the default path may be missing. The result
// is not validated, so callers can apply flag overrides first.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, utils.NewConfigError("failed to locate config file", err)
		}
	}

	if err := cfg.loadFromFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, utils.NewConfigError(fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, utils.NewConfigError("invalid environment override", err)
	}

	return cfg, nil
}

// loadFromFile parses a YAML (or JSON) file after expanding ${VAR} references
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	return yaml.Unmarshal([]byte(expanded), c)
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	if v := os.Getenv(EnvPrefix + "ROOT_FOLDER_ID"); v != "" {
		c.RootFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "DESTINATION"); v != "" {
		c.Destination = v
	}
	if v := os.Getenv(EnvPrefix + "KEY_FILE"); v != "" {
		c.Credentials.KeyFile = v
	}
	if v := os.Getenv(EnvPrefix + "CLIENT_EMAIL"); v != "" {
		c.Credentials.ClientEmail = v
	}
	if v := os.Getenv(EnvPrefix + "PRIVATE_KEY"); v != "" {
		c.Credentials.PrivateKey = v
	}
	if v := os.Getenv(EnvPrefix + "KEYRING_PROFILE"); v != "" {
		c.Credentials.KeyringProfile = v
	}
	if v := os.Getenv(EnvPrefix + "INCLUDE_DOCUMENTS"); v != "" {
		c.Documents.Include = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "EXPORT_MIME_TYPE"); v != "" {
		c.Documents.ExportMimeType = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSFORM"); v != "" {
		c.Documents.Transform = v
	}
	if v := os.Getenv(EnvPrefix + "CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONCURRENCY: %w", EnvPrefix, err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv(EnvPrefix + "RETRY_POLICY"); v != "" {
		c.Retry.Policy = v
	}
	if v := os.Getenv(EnvPrefix + "RETRY_DELAY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_DELAY_MS: %w", EnvPrefix, err)
		}
		c.Retry.DelayMs = n
	}
	if v := os.Getenv(EnvPrefix + "MAX_RETRY_DELAY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_RETRY_DELAY_MS: %w", EnvPrefix, err)
		}
		c.Retry.MaxDelayMs = n
	}
	if v := os.Getenv(EnvPrefix + "EXCLUDE"); v != "" {
		c.Exclude = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "MANIFEST"); v != "" {
		c.Registry.Manifest = v
	}
	if v := os.Getenv(EnvPrefix + "INDEX"); v != "" {
		c.Registry.Index = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT"); v != "" {
		c.Output = types.OutputFormat(v)
	}
	return nil
}

// Validate validates everything a sync run needs
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.RootFolderID, validation.Required),
		validation.Field(&c.Destination, validation.Required),
		validation.Field(&c.Credentials),
		validation.Field(&c.Documents),
		validation.Field(&c.Concurrency, validation.Min(0)),
		validation.Field(&c.Retry),
		validation.Field(&c.Log),
		validation.Field(&c.Output, validation.In(types.OutputFormatJSON, types.OutputFormatTable)),
	)
	if err != nil {
		return utils.NewConfigError("invalid configuration", err)
	}
	return nil
}

// ValidateAccess validates only what remote read-only commands need
func (c *Config) ValidateAccess() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Credentials),
		validation.Field(&c.Retry),
	)
	if err != nil {
		return utils.NewConfigError("invalid configuration", err)
	}
	return nil
}

// ExportMimeType returns the resolved export MIME type
func (c *Config) ExportMimeType() string {
	return utils.ResolveExportMimeType(c.Documents.ExportMimeType)
}

// GetRetryDelay returns the retry base delay as a duration
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}

// GetMaxRetryDelay returns the retry cap as a duration
func (c *Config) GetMaxRetryDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
}

// Save writes the configuration as YAML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the default config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "gdmirror"), nil
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
