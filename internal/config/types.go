// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	// BackendMemory keeps state in process memory; it is lost on exit.
	BackendMemory StoreBackend = "memory"
	// BackendBadger persists state in a BadgerDB directory.
	BackendBadger StoreBackend = "badger"

	FormatText   LogFormat = "text"
	FormatJSON   LogFormat = "json"
	FormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidStoreBackend is returned when a StoreBackend value is not recognized.
	ErrInvalidStoreBackend = errors.New("invalid store backend")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// StoreBackend selects where host state lives.
	StoreBackend string

	// LogFormat selects the log formatter.
	LogFormat string

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the CLI configuration.
	Config struct {
		// StateDir holds the store and the deployment record.
		StateDir string         `json:"state_dir" mapstructure:"state_dir"`
		Store    StoreConfig    `json:"store" mapstructure:"store"`
		Log      LogConfig      `json:"log" mapstructure:"log"`
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		API      APIConfig      `json:"api" mapstructure:"api"`
		Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
	}

	// StoreConfig selects the state backend.
	StoreConfig struct {
		Backend StoreBackend `json:"backend" mapstructure:"backend"`
		// Path of the badger directory. Defaults to <state_dir>/data.
		Path       string `json:"path,omitempty" mapstructure:"path"`
		SyncWrites bool   `json:"sync_writes" mapstructure:"sync_writes"`
	}

	LogConfig struct {
		Level  string    `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}

	// RegistryConfig holds the settings `abstract init` deploys the registry with.
	RegistryConfig struct {
		Admin           types.Addr `json:"admin" mapstructure:"admin"`
		SecurityEnabled bool       `json:"security_enabled" mapstructure:"security_enabled"`
		// NamespaceLimit of 0 means unlimited.
		NamespaceLimit uint32    `json:"namespace_limit" mapstructure:"namespace_limit"`
		NamespaceFee   FeeConfig `json:"namespace_fee" mapstructure:"namespace_fee"`
	}

	FeeConfig struct {
		Denom  string `json:"denom,omitempty" mapstructure:"denom"`
		Amount uint64 `json:"amount,omitempty" mapstructure:"amount"`
	}

	APIConfig struct {
		Listen string `json:"listen" mapstructure:"listen"`
	}

	MetricsConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		StateDir: "~/.abstract",
		Store:    StoreConfig{Backend: BackendBadger},
		Log:      LogConfig{Level: "info", Format: FormatText},
		Registry: RegistryConfig{Admin: "admin"},
		API:      APIConfig{Listen: "127.0.0.1:8420"},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// IsValid returns whether b is a known backend.
func (b StoreBackend) IsValid() (bool, []error) {
	switch b {
	case BackendMemory, BackendBadger:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (expected memory or badger)", ErrInvalidStoreBackend, string(b))}
	}
}

// IsValid returns whether f is a known log format.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case FormatText, FormatJSON, FormatLogfmt:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (expected text, json or logfmt)", ErrInvalidLogFormat, string(f))}
	}
}

// Coin returns the namespace fee, or nil when none is configured.
func (f FeeConfig) Coin() *types.Coin {
	if f.Amount == 0 {
		return nil
	}
	return &types.Coin{Denom: f.Denom, Amount: f.Amount}
}

// Validate checks fields that environment overrides may have set without
// passing through the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if _, fieldErrs := c.Store.Backend.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if _, fieldErrs := c.Log.Format.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level %q: %w", c.Log.Level, err))
	}
	if err := c.Registry.Admin.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("registry admin: %w", err))
	}
	if fee := c.Registry.NamespaceFee.Coin(); fee != nil && fee.Denom == "" {
		errs = append(errs, errors.New("registry namespace fee needs a denom"))
	}
	if strings.TrimSpace(c.StateDir) == "" {
		errs = append(errs, errors.New("state_dir must not be empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// NewLogger builds the process logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	l := log.NewWithOptions(w, log.Options{Level: level, ReportTimestamp: true})
	switch c.Format {
	case FormatJSON:
		l.SetFormatter(log.JSONFormatter)
	case FormatLogfmt:
		l.SetFormatter(log.LogfmtFormatter)
	case FormatText:
		l.SetFormatter(log.TextFormatter)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Format)
	}
	return l, nil
}
