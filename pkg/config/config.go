package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	APIs     APIConfig      `json:"apis" yaml:"apis"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
}

// ServerConfig for HTTP server settings
type ServerConfig struct {
	Port         string `json:"port" yaml:"port"`
	ReadTimeout  int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds" envconfig:"READ_TIMEOUT"`
	WriteTimeout int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds" envconfig:"WRITE_TIMEOUT"`
}

// DatabaseConfig for the SQLite entity store
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// APIConfig holds all external API configurations
type APIConfig struct {
	Ticketmaster TicketmasterConfig `json:"ticketmaster" yaml:"ticketmaster"`
	Places       PlacesConfig       `json:"places" yaml:"places"`
	Checkout     CheckoutConfig     `json:"checkout" yaml:"checkout"`
}

// TicketmasterConfig for the Ticketmaster Discovery API
type TicketmasterConfig struct {
	APIKey string `json:"api_key" yaml:"api_key" envconfig:"API_KEY"`
}

// PlacesConfig for the Google Places API
type PlacesConfig struct {
	APIKey string `json:"api_key" yaml:"api_key" envconfig:"API_KEY"`
}

// CheckoutConfig for the payment gateway used by ticket purchases
type CheckoutConfig struct {
	SecretKey string `json:"secret_key" yaml:"secret_key" envconfig:"SECRET_KEY"`
}

// EngineConfig tunes the interaction engine
type EngineConfig struct {
	VisitedHistorySize int     `json:"visited_history_size" yaml:"visited_history_size" envconfig:"VISITED_HISTORY_SIZE"`
	SimilarLimit       int     `json:"similar_limit" yaml:"similar_limit" envconfig:"SIMILAR_LIMIT"`
	SimilarRadiusKm    float64 `json:"similar_radius_km" yaml:"similar_radius_km" envconfig:"SIMILAR_RADIUS_KM"`
	DetailCacheSize    int     `json:"detail_cache_size" yaml:"detail_cache_size" envconfig:"DETAIL_CACHE_SIZE"`
}

// Load reads configuration from file and environment variables.
// YAML and JSON files are both accepted, picked by extension.
// Environment variables override file values using the pattern OAA_SECTION_KEY.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			switch filepath.Ext(configPath) {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(data, config); err != nil {
					return nil, fmt.Errorf("failed to parse config file: %w", err)
				}
			default:
				if err := json.Unmarshal(data, config); err != nil {
					return nil, fmt.Errorf("failed to parse config file: %w", err)
				}
			}
		}
	}

	applyDefaults(config)

	if err := envconfig.Process("oaa", config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30
	}
	if config.Database.Path == "" {
		config.Database.Path = "out-and-about.db"
	}
	if config.Engine.VisitedHistorySize == 0 {
		config.Engine.VisitedHistorySize = 10
	}
	if config.Engine.SimilarLimit == 0 {
		config.Engine.SimilarLimit = 6
	}
	if config.Engine.SimilarRadiusKm == 0 {
		config.Engine.SimilarRadiusKm = 5
	}
	if config.Engine.DetailCacheSize == 0 {
		config.Engine.DetailCacheSize = 128
	}
}

// Validate checks if required configurations are present
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("missing required configuration: database.path")
	}
	if c.Engine.VisitedHistorySize < 0 {
		return fmt.Errorf("engine.visited_history_size must not be negative")
	}
	if c.Engine.SimilarLimit < 0 {
		return fmt.Errorf("engine.similar_limit must not be negative")
	}
	return nil
}
