package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents run history persistence configuration
type HistoryConfig struct {
	// Enabled enables recording finished runs to the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents foreman configuration options
type Config struct {
	// DefaultTimeout is the per-invocation ceiling applied when a tool
	// call does not specify its own (0 = keep the built-in default)
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// WorkflowTimeout is the maximum execution time for a whole run
	// (0 = unlimited)
	WorkflowTimeout time.Duration `yaml:"workflow_timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// AuditTrailPath is the JSONL file audit events are appended to
	// (empty = audit trail export disabled)
	AuditTrailPath string `yaml:"audit_trail"`

	// StandardTools registers the probed standard toolset before a run
	StandardTools bool `yaml:"standard_tools"`

	// History contains run history persistence configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeout:  30 * time.Second,
		WorkflowTimeout: 2 * time.Hour,
		LogLevel:        "info",
		LogDir:          ".foreman/logs",
		AuditTrailPath:  ".foreman/audit.jsonl",
		StandardTools:   true,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  ".foreman/history/runs.db",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	// Use a temporary struct to handle duration parsing
	type yamlConfig struct {
		DefaultTimeout  string        `yaml:"default_timeout"`
		WorkflowTimeout string        `yaml:"workflow_timeout"`
		LogLevel        string        `yaml:"log_level"`
		LogDir          string        `yaml:"log_dir"`
		AuditTrail      *string       `yaml:"audit_trail"`
		StandardTools   *bool         `yaml:"standard_tools"`
		History         HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply values from file (merging with defaults)
	if yamlCfg.DefaultTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.DefaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid default_timeout format %q: %w", yamlCfg.DefaultTimeout, err)
		}
		cfg.DefaultTimeout = d
	}
	if yamlCfg.WorkflowTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.WorkflowTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid workflow_timeout format %q: %w", yamlCfg.WorkflowTimeout, err)
		}
		cfg.WorkflowTimeout = d
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	// Pointer fields distinguish "absent" from explicit zero values, so
	// audit_trail: "" disables the trail and standard_tools: false
	// disables probing.
	if yamlCfg.AuditTrail != nil {
		cfg.AuditTrailPath = *yamlCfg.AuditTrail
	}
	if yamlCfg.StandardTools != nil {
		cfg.StandardTools = *yamlCfg.StandardTools
	}

	// Merge History config - need to check if the section was provided
	// at all, so an explicit enabled: false survives the merge.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			history := yamlCfg.History
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = history.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				// Explicitly set db_path, even if empty string
				cfg.History.DBPath = history.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .foreman/config.yaml in the
// specified directory
// If the directory or file doesn't exist, returns default configuration
// without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".foreman", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(defaultTimeout, workflowTimeout *time.Duration, logLevel *string, logDir *string, auditTrail *string, historyEnabled *bool, standardTools *bool) {
	if defaultTimeout != nil {
		c.DefaultTimeout = *defaultTimeout
	}
	if workflowTimeout != nil {
		c.WorkflowTimeout = *workflowTimeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if auditTrail != nil {
		c.AuditTrailPath = *auditTrail
	}
	if historyEnabled != nil {
		c.History.Enabled = *historyEnabled
	}
	if standardTools != nil {
		c.StandardTools = *standardTools
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must be >= 0, got %v", c.DefaultTimeout)
	}

	// WorkflowTimeout can be 0 (no timeout) or positive, negative is invalid
	if c.WorkflowTimeout < 0 {
		return fmt.Errorf("workflow_timeout must be >= 0, got %v", c.WorkflowTimeout)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
