package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Default returns baseline settings used before file values and overrides.
func Default() Config {
	return Config{
		Target:       DefaultTarget,
		Interval:     DefaultInterval,
		Timeout:      DefaultTimeout,
		AddressIndex: DefaultAddressIndex,
		LogFile:      DefaultLogFile,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads path from fs (when path is non-empty) over the defaults, applies
// overrides and validates the result. Unknown keys are ignored.
func Load(fs afero.Fs, path string, overrides CLIOverrides) (*Config, error) {
	cfg := Default()
	if path != "" {
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyCLIOverrides(&cfg, overrides)
	cfg.MetricsListen = normalizeListen(cfg.MetricsListen)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, errors.New("target must not be empty"))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Interval))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.AddressIndex < 0 {
		errs = append(errs, fmt.Errorf("address_index must not be negative, got %d", c.AddressIndex))
	}
	if strings.TrimSpace(c.LogFile) == "" {
		errs = append(errs, errors.New("log_file must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func applyCLIOverrides(cfg *Config, overrides CLIOverrides) {
	if overrides.Target != nil {
		cfg.Target = *overrides.Target
	}
	if overrides.Interval != nil {
		cfg.Interval = *overrides.Interval
	}
	if overrides.Timeout != nil {
		cfg.Timeout = *overrides.Timeout
	}
	if overrides.AddressIndex != nil {
		cfg.AddressIndex = *overrides.AddressIndex
	}
	if overrides.LogFile != nil {
		cfg.LogFile = *overrides.LogFile
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.DiagLog != nil {
		cfg.DiagLog = *overrides.DiagLog
	}
	if overrides.MetricsListen != nil {
		cfg.MetricsListen = *overrides.MetricsListen
	}
	if overrides.UI != nil {
		cfg.UI = *overrides.UI
	}
}

// normalizeListen turns a bare port such as "9100" into ":9100".
func normalizeListen(value string) string {
	if isDigits(value) {
		return ":" + value
	}
	return value
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
