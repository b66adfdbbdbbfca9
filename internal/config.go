package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daymark/internal/policy"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Default numeric stamp settings. Out-of-range config values fall back to
// these silently; a bad debounce never becomes an engine-runtime error.
const (
	DefaultDebounceMs       = 1500
	DefaultTemplaterDelayMs = 100
	DefaultIndentWidth      = 2
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Stamp  StampConfig       `yaml:"stamp"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Stamp.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory and the scope
// folders eligible for automatic stamping. Empty Folders means the whole
// vault is in scope.
type VaultConfig struct {
	Path    string   `yaml:"path"`
	Folders []string `yaml:"folders"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the stamp journal database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// StampConfig holds the frontmatter stamping switches.
type StampConfig struct {
	BaseTag                string `yaml:"base_tag"`
	UpdateModifiedOnEdit   bool   `yaml:"update_modified_on_edit"`
	DelegateModified       bool   `yaml:"delegate_modified"`
	AddTypeIfMissing       bool   `yaml:"add_type_if_missing"`
	TypeValue              string `yaml:"type_value"`
	DebounceMs             int    `yaml:"debounce_ms"`
	PreserveCreationTag    bool   `yaml:"preserve_creation_tag"`
	TemplaterDelayMs       int    `yaml:"templater_delay_ms"`
	IndentWidth            int    `yaml:"indent_width"`
	AppendDuplicateDayTags bool   `yaml:"append_duplicate_day_tags"`
}

// Validate normalises the stamp configuration. Invalid numeric values are
// replaced with defaults rather than rejected.
func (c *StampConfig) Validate() error {
	if c.BaseTag == "" {
		c.BaseTag = "date"
	}
	if c.TypeValue == "" {
		c.TypeValue = "note"
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = DefaultDebounceMs
	}
	if c.TemplaterDelayMs <= 0 {
		c.TemplaterDelayMs = DefaultTemplaterDelayMs
	}
	if c.IndentWidth <= 0 {
		c.IndentWidth = DefaultIndentWidth
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseTag, validation.Required),
	)
}

// PolicyOptions maps the stamp configuration to the policy's option set.
func (c *StampConfig) PolicyOptions() policy.Options {
	return policy.Options{
		BaseTag:                c.BaseTag,
		UpdateModifiedOnEdit:   c.UpdateModifiedOnEdit,
		DelegateModified:       c.DelegateModified,
		AddTypeIfMissing:       c.AddTypeIfMissing,
		TypeValue:              c.TypeValue,
		PreserveCreationTag:    c.PreserveCreationTag,
		AppendDuplicateDayTags: c.AppendDuplicateDayTags,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
// Loading a config file overlays these, so omitted keys keep their defaults.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./daymark.db",
		},
		Stamp: StampConfig{
			BaseTag:              "date",
			UpdateModifiedOnEdit: true,
			AddTypeIfMissing:     true,
			TypeValue:            "note",
			DebounceMs:           DefaultDebounceMs,
			PreserveCreationTag:  true,
			TemplaterDelayMs:     DefaultTemplaterDelayMs,
			IndentWidth:          DefaultIndentWidth,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
