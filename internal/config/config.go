package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the crt.sh client, logging,
// metrics export and the optional inventory database.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// CrtSh contains the certificate transparency client settings
	CrtSh struct {
		// BaseURL is the crt.sh search endpoint
		BaseURL string `env:"CRTSH_BASE_URL" env-default:"https://crt.sh/" yaml:"baseURL"`
		// UserAgent identifies the client to crt.sh
		UserAgent string `env:"CRTSH_USER_AGENT" env-default:"subhunt/1.0 (+certificate transparency recon)" yaml:"userAgent"` //nolint: lll
		// Timeout bounds the whole request. Zero waits for crt.sh as long as it takes.
		Timeout time.Duration `env:"CRTSH_TIMEOUT" env-default:"0s" yaml:"timeout"`
	} `yaml:"crtsh"`

	// Log contains logging sink settings
	Log struct {
		// File is truncated and rewritten on every run. Empty disables the file sink.
		File string `env:"LOG_FILE" env-default:"subhunt.log" yaml:"file"`
	} `yaml:"log"`

	// Metrics contains metrics export settings
	Metrics struct {
		// Textfile is where the run's metrics are written on exit. Empty disables it.
		Textfile string `env:"METRICS_TEXTFILE" yaml:"textfile"`
	} `yaml:"metrics"`

	// Database contains all database connection related configurations
	Database struct {
		// Enabled records every discovery in the inventory database
		Enabled bool `env:"DATABASE_ENABLED" env-default:"false" yaml:"enabled"`
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"subhunt" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"subhunt" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"subhunt" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"2" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"1" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`
}

// Load receives the path for yaml config file and returns a filled Config struct.
// A missing file is not an error: the configuration then comes from the
// environment and the defaults.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from environment: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
