// Package config loads server settings from a .env file and BOLAO_* environment
// variables. Environment variables always take precedence over .env values.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. BOLAO_PORT
const EnvPrefix = "BOLAO"

// Config holds all application configuration
type Config struct {
	Port               int
	DBPath             string
	AdminPassword      string
	LogLevel           string
	RankWorkers        int
	SubstituteAttempts int
	BaseURL            string
	CORSOrigins        []string
}

// Load reads configuration from the given .env files (default ".env", missing
// files are ignored) and then from the environment.
func Load(envFiles ...string) (*Config, error) {
	v, err := newViper(envFiles)
	if err != nil {
		return nil, err
	}

	v.SetDefault("PORT", 8081)
	v.SetDefault("DB_PATH", "bolao.db")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RANK_WORKERS", 4)
	v.SetDefault("SUBSTITUTE_ATTEMPTS", 1000)
	v.SetDefault("BASE_URL", "")
	v.SetDefault("CORS_ORIGINS", "")

	cfg := &Config{
		Port:               v.GetInt("PORT"),
		DBPath:             v.GetString("DB_PATH"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		RankWorkers:        v.GetInt("RANK_WORKERS"),
		SubstituteAttempts: v.GetInt("SUBSTITUTE_ATTEMPTS"),
		BaseURL:            strings.TrimRight(v.GetString("BASE_URL"), "/"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if len(c.AdminPassword) > 72 {
		return fmt.Errorf("config: ADMIN_PASSWORD must be at most 72 bytes")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: DB_PATH must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.RankWorkers < 1 {
		return fmt.Errorf("config: RANK_WORKERS must be at least 1")
	}
	if c.SubstituteAttempts < 1 {
		return fmt.Errorf("config: SUBSTITUTE_ATTEMPTS must be at least 1")
	}
	return nil
}

// splitList parses a comma separated value, dropping empty items
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func newViper(envFiles []string) (*viper.Viper, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing .env is fine; real deployments use the environment.
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v, nil
}
