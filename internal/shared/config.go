package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Providers  ProvidersConfig  `toml:"providers"`
	Processing ProcessingConfig `toml:"processing"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
}

// ProvidersConfig contains credentials and call budgets for the external metadata providers.
type ProvidersConfig struct {
	AcoustIDAPIKey string  `toml:"acoustid_api_key"`
	GeniusAPIKey   string  `toml:"genius_api_key"`
	FpcalcPath     string  `toml:"fpcalc_path"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxAttempts    int     `toml:"max_attempts"`
	RateLimit      float64 `toml:"rate_limit"`
}

// ProcessingConfig contains pipeline execution settings.
type ProcessingConfig struct {
	Workers       int      `toml:"workers"`
	OutputPattern string   `toml:"output_pattern"`
	LyricsSource  string   `toml:"lyrics_source"`
	TagFallback   bool     `toml:"tag_fallback"`
	MinScore      float64  `toml:"min_score"`
	Extensions    []string `toml:"extensions"`
}

// DatabaseConfig contains metadata cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}

	if key := os.Getenv("ACOUSTID_API_KEY"); key != "" {
		config.Providers.AcoustIDAPIKey = key
	}
	if key := os.Getenv("GENIUS_API_KEY"); key != "" {
		config.Providers.GeniusAPIKey = key
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
