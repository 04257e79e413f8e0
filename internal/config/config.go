package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fyDesk/internal/market"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	PrivateKey   string
	Market       string
	Markets      []market.Definition
	CacheFile    string
	PgDSN        string
	Journal      string
	Interval     time.Duration
	MetricsAddr  string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache-file", "./data/cache.json")
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("metrics-addr", ":9090")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		PrivateKey:   v.GetString("private-key"),
		Market:       v.GetString("market"),
		CacheFile:    v.GetString("cache-file"),
		PgDSN:        v.GetString("pg-dsn"),
		Journal:      v.GetString("journal"),
		Interval:     v.GetDuration("interval"),
		MetricsAddr:  v.GetString("metrics-addr"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	if err := v.UnmarshalKey("markets", &cfg.Markets); err != nil {
		return Config{}, fmt.Errorf("parse markets: %w", err)
	}

	return cfg, nil
}

// SelectMarket finds the configured market by name; with exactly one
// market configured the name may be omitted.
func (c Config) SelectMarket() (market.Market, error) {
	if len(c.Markets) == 0 {
		return market.Market{}, fmt.Errorf("no markets configured")
	}
	if c.Market == "" {
		if len(c.Markets) == 1 {
			return market.Parse(c.Markets[0])
		}
		return market.Market{}, fmt.Errorf("market name is required (%d configured)", len(c.Markets))
	}
	for _, def := range c.Markets {
		if strings.EqualFold(def.Name, c.Market) {
			return market.Parse(def)
		}
	}
	return market.Market{}, fmt.Errorf("market %q not configured", c.Market)
}
