package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "postgres"
	DSN    string `yaml:"dsn"`
}

// LogConfig selects the logger flavour and level.
type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// FileConfig represents the structure of ~/.fairscrape/config.yaml.
//
// Profiles are kept as raw YAML nodes so they can be decoded on top of a
// built-in profile of the same name, overriding only the keys they set.
type FileConfig struct {
	Storage  StorageConfig        `yaml:"storage"`
	Log      LogConfig            `yaml:"log"`
	Profile  string               `yaml:"profile"`
	Output   string               `yaml:"output"`
	Profiles map[string]yaml.Node `yaml:"profiles"`
}

// DefaultConfigPath returns ~/.fairscrape/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".fairscrape", "config.yaml"), nil
}

// LoadConfigFile loads configuration from configPath, or from
// ~/.fairscrape/config.yaml when configPath is empty. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func LoadConfigFile(configPath string) (*FileConfig, error) {
	if configPath == "" {
		var err error
		configPath, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
