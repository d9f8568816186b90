package config

import "time"

// Defaults match the behavior of running with no flags and no config file.
const (
	DefaultTarget       = "www.google.com:80"
	DefaultInterval     = 1 * time.Second
	DefaultTimeout      = 1 * time.Second
	DefaultAddressIndex = 1
	DefaultLogFile      = "internet.log"
	DefaultLogLevel     = "info"
)

// Config holds the settings read from the optional YAML file and flags.
type Config struct {
	Target        string        `yaml:"target"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	AddressIndex  int           `yaml:"address_index"`
	LogFile       string        `yaml:"log_file"`
	LogLevel      string        `yaml:"log_level"`
	DiagLog       string        `yaml:"diag_log"`
	MetricsListen string        `yaml:"metrics_listen"`
	UI            bool          `yaml:"ui"`
}

// CLIOverrides holds optional CLI values that override config file values.
type CLIOverrides struct {
	Target        *string
	Interval      *time.Duration
	Timeout       *time.Duration
	AddressIndex  *int
	LogFile       *string
	LogLevel      *string
	DiagLog       *string
	MetricsListen *string
	UI            *bool
}
