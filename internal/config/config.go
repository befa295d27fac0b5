package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COURSEFLOW_"

// Preference backends.
const (
	PreferencesSQLite = "sqlite"
	PreferencesRedis  = "redis"
)

// Config defines application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" envPrefix:"SERVER_"`
	Transport   TransportConfig   `yaml:"transport" envPrefix:"TRANSPORT_"`
	DB          DBConfig          `yaml:"db" envPrefix:"DB_"`
	Log         LogConfig         `yaml:"log" envPrefix:"LOG_"`
	Locale      string            `yaml:"locale" env:"LOCALE"`
	CourseAPI   CourseAPIConfig   `yaml:"course_api" envPrefix:"COURSE_API_"`
	Content     ContentConfig     `yaml:"content" envPrefix:"CONTENT_"`
	Preferences PreferencesConfig `yaml:"preferences" envPrefix:"PREFERENCES_"`
	Auth        AuthConfig        `yaml:"auth" envPrefix:"AUTH_"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// TransportConfig selects how the MCP server is exposed: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode" env:"MODE"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Path enables a size-capped log file in addition to stderr.
	Path     string `yaml:"path" env:"PATH"`
	MaxBytes int64  `yaml:"max_bytes" env:"MAX_BYTES"`
}

type CourseAPIConfig struct {
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	APIKey      string        `yaml:"api_key" env:"API_KEY"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxAttempts int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

type ContentConfig struct {
	// BaseURL serves content artifacts. Defaults to the course API base URL.
	BaseURL           string `yaml:"base_url" env:"BASE_URL"`
	DestinationFolder string `yaml:"destination_folder" env:"DESTINATION_FOLDER"`
	EventBuffer       int    `yaml:"event_buffer" env:"EVENT_BUFFER"`
}

type PreferencesConfig struct {
	Backend       string `yaml:"backend" env:"BACKEND"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

type AuthConfig struct {
	// Disabled serves every request as a guest.
	Disabled bool `yaml:"disabled" env:"DISABLED"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "courseflow.db",
		},
		Log: LogConfig{
			Level:    "info",
			MaxBytes: 10 << 20,
		},
		Locale: "en-US",
		CourseAPI: CourseAPIConfig{
			BaseURL:     "http://localhost:9000/api",
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
		},
		Content: ContentConfig{
			DestinationFolder: "content",
			EventBuffer:       64,
		},
		Preferences: PreferencesConfig{
			Backend:   PreferencesSQLite,
			RedisAddr: "localhost:6379",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "courseflow",
		},
	}
}

// Load reads configuration from the defaults, an optional YAML file named by
// COURSEFLOW_CONFIG_PATH and COURSEFLOW_* environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Content.BaseURL == "" {
		cfg.Content.BaseURL = cfg.CourseAPI.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Preferences.Backend {
	case PreferencesSQLite, PreferencesRedis:
	default:
		return fmt.Errorf("invalid preferences backend %q", c.Preferences.Backend)
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
