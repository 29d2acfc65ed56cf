// Package config loads service configuration from environment variables
// and an optional config file, with defaults for every key.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Port string `mapstructure:"port"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	DataFetcherURL string `mapstructure:"data_fetcher_url"`

	// Optional; empty disables the result cache
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DatabaseURL assembles the Postgres connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Load reads configuration from config.yaml (if present) and the
// environment. Environment keys are upper-cased with underscores, e.g.
// DB_HOST or DATA_FETCHER_URL.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8083")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "baseball_user")
	v.SetDefault("db_password", "baseball_pass")
	v.SetDefault("db_name", "baseball_sim")
	v.SetDefault("data_fetcher_url", "http://localhost:8082")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
