package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Server struct {
	Port  string `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
	// RateLimitPerMinute caps requests per client IP; 0 disables the limiter.
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`
}

type CoinGecko struct {
	BaseURL       string `mapstructure:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout"`
	RetryAttempts int    `mapstructure:"retry_attempts"`
	RetryDelayMs  int    `mapstructure:"retry_delay_ms"`
	APIKey        string `mapstructure:"api_key"`
}

// Timeout is the per-attempt upstream timeout.
func (c CoinGecko) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// RetryDelay is the fixed pause between upstream attempts.
func (c CoinGecko) RetryDelay() time.Duration { return time.Duration(c.RetryDelayMs) * time.Millisecond }

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server    Server    `mapstructure:"server"`
	CoinGecko CoinGecko `mapstructure:"coingecko"`
	Logging   Logging   `mapstructure:"logging"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:               "8000",
			RateLimitPerMinute: 60,
			CORSOrigins:        []string{"*"},
			ShutdownTimeoutSec: 5,
		},
		CoinGecko: CoinGecko{
			BaseURL:       "https://api.coingecko.com/api/v3",
			TimeoutSec:    10,
			RetryAttempts: 3,
			RetryDelayMs:  100,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// envKeys maps config keys to the environment variables overriding them.
var envKeys = map[string]string{
	"server.port":                  "PORT",
	"server.debug":                 "APP_DEBUG",
	"server.rate_limit_per_minute": "RATE_LIMIT_PER_MINUTE",
	"server.cors_origins":          "CORS_ORIGINS",
	"server.shutdown_timeout_sec":  "SHUTDOWN_TIMEOUT_SEC",
	"coingecko.base_url":           "COINGECKO_BASE_URL",
	"coingecko.timeout":            "COINGECKO_TIMEOUT",
	"coingecko.retry_attempts":     "COINGECKO_RETRY_ATTEMPTS",
	"coingecko.retry_delay_ms":     "COINGECKO_RETRY_DELAY_MS",
	"coingecko.api_key":            "COINGECKO_API_KEY",
	"logging.level":                "LOG_LEVEL",
	"logging.format":               "LOG_FORMAT",
}

// Load reads an optional YAML/JSON config file at path, then applies a .env
// file from the working directory and the process environment on top.
// A missing file is not an error; defaults are used instead.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Default(), fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Default(), fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	cfg.Server.CORSOrigins = splitCSV(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is empty"))
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("server.rate_limit_per_minute must not be negative"))
	}
	if strings.TrimSpace(c.CoinGecko.BaseURL) == "" {
		errs = append(errs, errors.New("coingecko.base_url is empty"))
	}
	if c.CoinGecko.TimeoutSec <= 0 {
		errs = append(errs, errors.New("coingecko.timeout must be positive"))
	}
	if c.CoinGecko.RetryAttempts < 1 {
		errs = append(errs, errors.New("coingecko.retry_attempts must be at least 1"))
	}
	if c.CoinGecko.RetryDelayMs < 0 {
		errs = append(errs, errors.New("coingecko.retry_delay_ms must not be negative"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.debug", d.Server.Debug)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.shutdown_timeout_sec", d.Server.ShutdownTimeoutSec)
	v.SetDefault("coingecko.base_url", d.CoinGecko.BaseURL)
	v.SetDefault("coingecko.timeout", d.CoinGecko.TimeoutSec)
	v.SetDefault("coingecko.retry_attempts", d.CoinGecko.RetryAttempts)
	v.SetDefault("coingecko.retry_delay_ms", d.CoinGecko.RetryDelayMs)
	v.SetDefault("coingecko.api_key", d.CoinGecko.APIKey)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// splitCSV flattens entries that still hold comma-separated values and drops blanks.
func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
