package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Import    ImportConfig    `mapstructure:"import"`
	Export    ExportConfig    `mapstructure:"export"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

// ServerConfig defines the HTTP server settings
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// ImportConfig defines ingestion settings
type ImportConfig struct {
	// BatchSize is how many records the builder processes between yields.
	BatchSize int `mapstructure:"batch_size"`
	// PreviewRows is how many rows the mapping preview materializes.
	PreviewRows int `mapstructure:"preview_rows"`
}

// ExportConfig defines how exported files are written
type ExportConfig struct {
	// Delimiter is ";" for the historical format or "," for later variants.
	Delimiter string `mapstructure:"delimiter"`
	// InterestDateColumn names the raw column backing the legacy
	// "Interest Date" export column. Empty omits the column.
	InterestDateColumn string `mapstructure:"interest_date_column"`
}

// StorageConfig locates the durable key/value file
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// AssistantConfig defines the Gemini proxy settings
type AssistantConfig struct {
	Model string `mapstructure:"model"`
}

// Load reads configuration from an optional file plus environment variables
// (prefix BTR_). An empty path loads defaults only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("import.batch_size", 100)
	v.SetDefault("import.preview_rows", 20)
	v.SetDefault("export.delimiter", ";")
	v.SetDefault("export.interest_date_column", "")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("assistant.model", "")

	v.SetEnvPrefix("BTR")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// ExportDelimiter returns the configured delimiter as a rune, defaulting to
// semicolon for anything unrecognized.
func (c *Config) ExportDelimiter() rune {
	if c.Export.Delimiter == "," {
		return ','
	}
	return ';'
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "storage.json"
	}
	return filepath.Join(home, ".bank-transaction-review", "storage.json")
}
