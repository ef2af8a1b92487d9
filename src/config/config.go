package config

import (
	"fmt"
	"os"

	"nepse-observer/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the optional scraper and schedule knobs that most
// deployments never override.
func (c *Config) applyDefaults() {
	if c.Scraper.PageLimit == 0 {
		c.Scraper.PageLimit = 50
	}
	if c.Scraper.PageSettleDelaySeconds == 0 {
		c.Scraper.PageSettleDelaySeconds = 2
	}
	if c.Scraper.DetailBatchSize == 0 {
		c.Scraper.DetailBatchSize = 10
	}
	if c.Scraper.NavTimeoutSeconds == 0 {
		c.Scraper.NavTimeoutSeconds = 30
	}
	if c.Scraper.PriceNavTimeoutSeconds == 0 {
		c.Scraper.PriceNavTimeoutSeconds = 60
	}
	if c.Scraper.PriceTableTimeoutSeconds == 0 {
		c.Scraper.PriceTableTimeoutSeconds = 10
	}
	if c.Scraper.DetailTitleTimeoutSeconds == 0 {
		c.Scraper.DetailTitleTimeoutSeconds = 5
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Kathmandu"
	}
	if c.Schedule.UTCOffsetMinutes == 0 {
		c.Schedule.UTCOffsetMinutes = 345
	}
	if c.Schedule.PriceCron == "" {
		c.Schedule.PriceCron = "*/2 10-15 * * 1-5"
	}
	if c.Schedule.CloseCron == "" {
		c.Schedule.CloseCron = "2 15 * * 1-5"
	}
	if c.Schedule.DetailCron == "" {
		c.Schedule.DetailCron = "3 11 * * 0-4"
	}
	if len(c.Browser.BlockedResources) == 0 {
		c.Browser.BlockedResources = []string{"Media", "Font"}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Scraper configuration
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL cannot be empty")
	}
	if c.Scraper.PriceURL == "" {
		return fmt.Errorf("scraper price URL cannot be empty")
	}
	if c.Scraper.PageLimit <= 0 {
		return fmt.Errorf("page limit must be greater than 0")
	}
	if c.Scraper.DetailBatchSize <= 0 {
		return fmt.Errorf("detail batch size must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
