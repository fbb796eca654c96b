package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Gateway     GatewayConfig    `toml:"gateway"`
	Encryption  EncryptionConfig `toml:"encryption"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // "sqlite" (default) or "badger"
	SQLite SQLiteConfig `toml:"sqlite"`
	Badger BadgerConfig `toml:"badger"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path"`            // Database file path
	CacheSizeMB   int    `toml:"cache_size_mb"`   // Page cache size in MB
	BusyTimeoutMS int    `toml:"busy_timeout_ms"` // Lock wait timeout
	WALMode       bool   `toml:"wal_mode"`        // Enable WAL journal mode
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path"` // Database directory path
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// GatewayConfig controls the external MCP gateway process.
// The gateway serves every user; per-user credentials travel as
// per-request headers, never as process environment.
type GatewayConfig struct {
	Command        string `toml:"command"`         // Executable to spawn (default: "mcp-atlassian")
	Host           string `toml:"host"`            // Gateway listen host
	Port           int    `toml:"port"`            // Gateway listen port
	StartupRetries int    `toml:"startup_retries"` // Health poll attempts after spawn
	PollInterval   string `toml:"poll_interval"`   // Delay between health polls, duration string (default: "1s")
	RequestTimeout string `toml:"request_timeout"` // Client-side timeout per tool call, duration string (default: "30s")
}

// EncryptionConfig controls token encryption at rest. The key must be
// supplied via config or TESSERA_ENCRYPTION_KEY; allow_generated permits a
// process-lifetime generated key for development only.
type EncryptionConfig struct {
	Key            string `toml:"key"`
	AllowGenerated bool   `toml:"allow_generated"`
}

// BaseURL returns the gateway's HTTP base address.
func (g *GatewayConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", g.Host, g.Port)
}

// PollIntervalDuration returns the parsed health poll interval
func (g *GatewayConfig) PollIntervalDuration() time.Duration {
	return parseDuration(g.PollInterval, time.Second)
}

// RequestTimeoutDuration returns the parsed per-call timeout
func (g *GatewayConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(g.RequestTimeout, 30*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path:          "./data/tessera.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Gateway: GatewayConfig{
			Command:        "mcp-atlassian",
			Host:           "localhost",
			Port:           8080,
			StartupRetries: 15,
			PollInterval:   "1s",
			RequestTimeout: "30s",
		},
		Encryption: EncryptionConfig{
			AllowGenerated: false,
		},
	}
}

// LoadFromFile loads configuration from a TOML file, merged over defaults
// and followed by environment overrides.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from TOML files in order. Later files
// override earlier ones; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TESSERA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("TESSERA_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("TESSERA_STORAGE_TYPE"); v != "" {
		config.Storage.Type = v
	}
	if v := os.Getenv("TESSERA_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("TESSERA_GATEWAY_HOST"); v != "" {
		config.Gateway.Host = v
	}
	if v := os.Getenv("TESSERA_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Gateway.Port = port
		}
	}
	if v := os.Getenv("TESSERA_ENCRYPTION_KEY"); v != "" {
		config.Encryption.Key = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func validateConfig(config *Config) error {
	switch config.Storage.Type {
	case "sqlite", "badger":
	default:
		return fmt.Errorf("invalid storage type %q (expected sqlite or badger)", config.Storage.Type)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Gateway.Port <= 0 || config.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port %d", config.Gateway.Port)
	}
	if config.Gateway.StartupRetries <= 0 {
		config.Gateway.StartupRetries = 15
	}
	if config.Gateway.PollInterval != "" {
		if _, err := time.ParseDuration(config.Gateway.PollInterval); err != nil {
			return fmt.Errorf("invalid gateway poll_interval %q: %w", config.Gateway.PollInterval, err)
		}
	}
	if config.Gateway.RequestTimeout != "" {
		if _, err := time.ParseDuration(config.Gateway.RequestTimeout); err != nil {
			return fmt.Errorf("invalid gateway request_timeout %q: %w", config.Gateway.RequestTimeout, err)
		}
	}

	return nil
}
