package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the assistant client.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory for the local fallback store
	Data string
	// DSN points to where lyceum stores its local session copies
	DSN string
	// Driver is the local database driver (only sqlite is supported)
	Driver string
	// ServerURL is the base URL of the Lyceum backend
	ServerURL string
	// AccessToken is the bearer token used against the backend
	AccessToken string
	// RequestTimeout bounds every outbound HTTP request
	RequestTimeout time.Duration
	// Version is the current version of the client
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from LYCEUM_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("LYCEUM_MODE", p.Mode)
	p.Data = getEnvOrDefault("LYCEUM_DATA", p.Data)
	p.DSN = getEnvOrDefault("LYCEUM_DSN", p.DSN)
	p.Driver = getEnvOrDefault("LYCEUM_DRIVER", p.Driver)
	p.ServerURL = getEnvOrDefault("LYCEUM_SERVER_URL", p.ServerURL)
	p.AccessToken = getEnvOrDefault("LYCEUM_ACCESS_TOKEN", p.AccessToken)
	if v := os.Getenv("LYCEUM_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.RequestTimeout = d
		}
	}
}

// FromFile merges values from an optional YAML config file. Flags and
// environment variables take precedence, so only unset fields are filled in.
func (p *Profile) FromFile(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".lyceum"))
	}
	if err := v.ReadInConfig(); err != nil {
		if path == "" {
			// A missing default config file is not an error.
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}

	if p.Mode == "" {
		p.Mode = v.GetString("mode")
	}
	if p.Data == "" {
		p.Data = v.GetString("data")
	}
	if p.DSN == "" {
		p.DSN = v.GetString("dsn")
	}
	if p.Driver == "" {
		p.Driver = v.GetString("driver")
	}
	if p.ServerURL == "" {
		p.ServerURL = v.GetString("server-url")
	}
	if p.AccessToken == "" {
		p.AccessToken = v.GetString("access-token")
	}
	if p.RequestTimeout == 0 {
		p.RequestTimeout = v.GetDuration("request-timeout")
	}
	return nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 30 * time.Second
	}

	if p.Data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve home directory")
		}
		p.Data = filepath.Join(home, ".lyceum")
	}
	if _, err := os.Stat(p.Data); os.IsNotExist(err) {
		if err := os.MkdirAll(p.Data, 0770); err != nil {
			slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("lyceum_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
