package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxBodyBytes fits an embedded photo with room for the JSON around it
const DefaultMaxBodyBytes int64 = 10 << 20

// Config holds all configuration for the server
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Photos   PhotosConfig   `yaml:"photos"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `yaml:"port"`
	Host         string `yaml:"host"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database configuration.
// Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// PhotosConfig selects where photo payloads live.
// Storage is "inline" (kept in the row) or "s3".
type PhotosConfig struct {
	Storage   string `yaml:"storage"`
	S3Bucket  string `yaml:"s3_bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// ClientConfig holds configuration for the moodsync CLI
type ClientConfig struct {
	Client ClientSection `yaml:"client"`
	Log    LogConfig     `yaml:"log"`
}

// ClientSection holds sync client settings
type ClientSection struct {
	ServerURL      string        `yaml:"server_url"`
	StoreDriver    string        `yaml:"store_driver"`
	StorePath      string        `yaml:"store_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Load reads server configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Photos.Storage == "" {
		c.Photos.Storage = "inline"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	switch c.Photos.Storage {
	case "inline":
	case "s3":
		if c.Photos.S3Bucket == "" {
			return errors.New("photos.s3_bucket is required when photos.storage is s3")
		}
	default:
		return fmt.Errorf("unknown photos.storage %q", c.Photos.Storage)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LoadClient reads client configuration. An empty path or a missing file
// yields the defaults.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *ClientConfig) applyDefaults() {
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = "http://localhost:8080"
	}
	if c.Client.StoreDriver == "" {
		c.Client.StoreDriver = "file"
	}
	if c.Client.StorePath == "" {
		c.Client.StorePath = defaultStorePath()
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".moodsync"
	}
	return filepath.Join(dir, "moodsync")
}
