// Package config loads and validates govscan configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigDirName is the directory holding govscan state and configuration.
const ConfigDirName = ".govscan"

// Config represents the complete govscan configuration.
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Scan      ScanConfig      `json:"scan" mapstructure:"scan"`
	Detection DetectionConfig `json:"detection" mapstructure:"detection"`
	Store     StoreConfig     `json:"store" mapstructure:"store"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls the scan orchestrator.
type ScanConfig struct {
	// Workers is the size of the per-file analysis pool.
	Workers int `json:"workers" mapstructure:"workers"`
	// MaxFileSizeBytes is the per-file size ceiling; larger files are skipped.
	MaxFileSizeBytes int64 `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	// ProgressInterval is how many files are analyzed between progress checkpoints.
	ProgressInterval int `json:"progressInterval" mapstructure:"progressInterval"`
	// BatchSize is the number of file analysis rows persisted per insert batch.
	BatchSize int `json:"batchSize" mapstructure:"batchSize"`
	// StaleJobTimeoutMinutes is the age after which pending/running jobs are reaped.
	StaleJobTimeoutMinutes int `json:"staleJobTimeoutMinutes" mapstructure:"staleJobTimeoutMinutes"`
	// PollIntervalSeconds is the worker's idle poll interval.
	PollIntervalSeconds int `json:"pollIntervalSeconds" mapstructure:"pollIntervalSeconds"`
}

// DetectionConfig controls the AI-authorship analyzers.
type DetectionConfig struct {
	// MLEndpoint is the optional classification endpoint. Empty disables the ML signal.
	MLEndpoint string `json:"mlEndpoint" mapstructure:"mlEndpoint"`
	// MLTimeoutSeconds bounds the ML classification call.
	MLTimeoutSeconds int `json:"mlTimeoutSeconds" mapstructure:"mlTimeoutSeconds"`
}

// StoreConfig controls the SQLite store.
type StoreConfig struct {
	// Path is the database file path. Empty means <repoRoot>/.govscan/govscan.db.
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Scan: ScanConfig{
			Workers:                4,
			MaxFileSizeBytes:       1024 * 1024,
			ProgressInterval:       10,
			BatchSize:              50,
			StaleJobTimeoutMinutes: 10,
			PollIntervalSeconds:    5,
		},
		Detection: DetectionConfig{
			MLTimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <repoRoot>/.govscan/config.json with
// GOVSCAN_* environment overrides. A missing file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("repoRoot", repoRoot)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("scan.maxFileSizeBytes", def.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.progressInterval", def.Scan.ProgressInterval)
	v.SetDefault("scan.batchSize", def.Scan.BatchSize)
	v.SetDefault("scan.staleJobTimeoutMinutes", def.Scan.StaleJobTimeoutMinutes)
	v.SetDefault("scan.pollIntervalSeconds", def.Scan.PollIntervalSeconds)
	v.SetDefault("detection.mlEndpoint", "")
	v.SetDefault("detection.mlTimeoutSeconds", def.Detection.MLTimeoutSeconds)
	v.SetDefault("store.path", "")
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDirName))

	v.SetEnvPrefix("GOVSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.RepoRoot == "" {
		cfg.RepoRoot = repoRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DBPath returns the effective database path.
func (c *Config) DBPath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.RepoRoot, ConfigDirName, "govscan.db")
}

// Save writes the configuration to <repoRoot>/.govscan/config.json.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scan.Workers < 1 {
		return &ConfigError{Field: "scan.workers", Message: "must be at least 1"}
	}
	if c.Scan.BatchSize < 1 {
		return &ConfigError{Field: "scan.batchSize", Message: "must be at least 1"}
	}
	if c.Scan.MaxFileSizeBytes < 1 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be positive"}
	}
	if c.Scan.StaleJobTimeoutMinutes < 1 {
		return &ConfigError{Field: "scan.staleJobTimeoutMinutes", Message: "must be at least 1"}
	}
	if c.Detection.MLTimeoutSeconds < 1 {
		return &ConfigError{Field: "detection.mlTimeoutSeconds", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
