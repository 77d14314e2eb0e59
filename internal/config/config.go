package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported DB_DRIVER values.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultFirebaseCertsURL publishes the x509 certificates that sign Firebase ID tokens.
const DefaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

var ErrMissingProjectID = errors.New("FIREBASE_PROJECT_ID is required")

type Config struct {
	Port     string `mapstructure:"port"`
	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`

	DBDriver   string `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBPath     string `mapstructure:"db_path"`

	FirebaseProjectID string `mapstructure:"firebase_project_id"`
	FirebaseCertsURL  string `mapstructure:"firebase_certs_url"`

	SessionSecret   string        `mapstructure:"session_secret"`
	SessionTokenTTL time.Duration `mapstructure:"session_token_ttl"`

	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration from environment variables, optionally layered
// over a YAML file. Environment variables always win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")

	v.SetDefault("db_driver", DriverMySQL)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_user", "taskuser")
	v.SetDefault("db_password", "taskpassword")
	v.SetDefault("db_name", "task_management")
	v.SetDefault("db_path", "tasks.db")

	v.SetDefault("firebase_project_id", "")
	v.SetDefault("firebase_certs_url", DefaultFirebaseCertsURL)

	v.SetDefault("session_secret", "")
	v.SetDefault("session_token_ttl", "24h")

	v.SetDefault("cors_allowed_origins", "http://localhost:5173")
	v.SetDefault("shutdown_timeout", "15s")
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.FirebaseProjectID == "" {
		return ErrMissingProjectID
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
