package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Dataset names one reviewable partition of records and where its votes
// are routed in the ledger.
type Dataset struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	// Tab routes this dataset's votes to a ledger partition (e.g. a
	// spreadsheet tab). Empty means the ledger's default partition.
	Tab string `yaml:"tab"`
}

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	// Datasets reviewers can page through. Order is the order offered
	// in the UI.
	Datasets []Dataset `yaml:"datasets"`

	// ImagesDir is served statically under /images
	ImagesDir string `yaml:"images_dir"`

	// Reviewers is the fixed roster of selectable reviewer identities
	Reviewers []string `yaml:"reviewers"`

	Ledger struct {
		Backend string `yaml:"backend"` // "sheets", "csv" or "sqlite"

		Sheets struct {
			SpreadsheetID   string `yaml:"spreadsheet_id"`
			DefaultTab      string `yaml:"default_tab"`
			CredentialsFile string `yaml:"credentials_file"`
			// CredentialsJSON takes precedence over CredentialsFile;
			// typically set via ${GOOGLE_CREDENTIALS}.
			CredentialsJSON string `yaml:"credentials_json"`
		} `yaml:"sheets"`

		CSV struct {
			Path string `yaml:"path"`
		} `yaml:"csv"`

		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
	} `yaml:"ledger"`

	Session struct {
		IdleTTLMinutes       int `yaml:"idle_ttl_minutes"`
		SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	} `yaml:"session"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "3001"
	}

	if config.ImagesDir == "" {
		config.ImagesDir = "./data/jpg"
	}

	if config.Ledger.Backend == "" {
		config.Ledger.Backend = "csv"
	}

	if config.Ledger.CSV.Path == "" {
		config.Ledger.CSV.Path = "./data/votes.csv"
	}

	if config.Ledger.SQLite.Path == "" {
		config.Ledger.SQLite.Path = "./data/votes.db"
	}

	if config.Ledger.Sheets.DefaultTab == "" {
		config.Ledger.Sheets.DefaultTab = "Sheet1"
	}

	if config.Session.IdleTTLMinutes == 0 {
		config.Session.IdleTTLMinutes = 120
	}

	if config.Session.SweepIntervalMinutes == 0 {
		config.Session.SweepIntervalMinutes = 10
	}

	if len(config.Datasets) == 0 {
		return nil, fmt.Errorf("no datasets configured")
	}

	if len(config.Reviewers) == 0 {
		return nil, fmt.Errorf("no reviewers configured")
	}

	// Expand environment variables in secret-bearing fields
	config.Ledger.Sheets.SpreadsheetID = os.ExpandEnv(config.Ledger.Sheets.SpreadsheetID)
	config.Ledger.Sheets.CredentialsFile = os.ExpandEnv(config.Ledger.Sheets.CredentialsFile)
	config.Ledger.Sheets.CredentialsJSON = os.ExpandEnv(config.Ledger.Sheets.CredentialsJSON)

	return config, nil
}

// DatasetNames returns the configured dataset names in order
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for _, d := range c.Datasets {
		names = append(names, d.Name)
	}
	return names
}

// DatasetDirs maps dataset name to its record directory
func (c *Config) DatasetDirs() map[string]string {
	dirs := make(map[string]string, len(c.Datasets))
	for _, d := range c.Datasets {
		dirs[d.Name] = d.Dir
	}
	return dirs
}

// PartitionMap maps dataset name to its ledger partition
func (c *Config) PartitionMap() map[string]string {
	tabs := make(map[string]string, len(c.Datasets))
	for _, d := range c.Datasets {
		tabs[d.Name] = d.Tab
	}
	return tabs
}

// IdleTTL returns the session idle timeout
func (c *Config) IdleTTL() time.Duration {
	return time.Duration(c.Session.IdleTTLMinutes) * time.Minute
}

// SweepInterval returns how often idle sessions are collected
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalMinutes) * time.Minute
}
