package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	} `yaml:"server"`
	Market struct {
		InitialPrice   float64 `yaml:"initial_price"`
		Drift          float64 `yaml:"drift"`
		Volatility     float64 `yaml:"volatility"`
		TickIntervalMs int     `yaml:"tick_interval_ms"`
		JumpProb       float64 `yaml:"jump_prob"`
		JumpMin        float64 `yaml:"jump_min"`
		JumpMax        float64 `yaml:"jump_max"`
		PriceFloor     float64 `yaml:"price_floor"`
		PriceCeiling   float64 `yaml:"price_ceiling"`
	} `yaml:"market"`
	Feed struct {
		SMAWindow       int `yaml:"sma_window"`
		HistoryDepth    int `yaml:"history_depth"`
		SubscriberQueue int `yaml:"subscriber_queue"`
	} `yaml:"feed"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":8000"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Market.InitialPrice = 45000.0
	c.Market.Drift = 0.0001
	c.Market.Volatility = 0.02
	c.Market.TickIntervalMs = 500
	c.Market.JumpProb = 0.03
	c.Market.JumpMin = 0.002
	c.Market.JumpMax = 0.008
	c.Market.PriceFloor = 1000.0
	c.Market.PriceCeiling = 100000.0
	c.Feed.SMAWindow = 20
	c.Feed.HistoryDepth = 100
	c.Feed.SubscriberQueue = 64
	return c
}

// Load builds the config from defaults, an optional YAML file pointed at by
// VIDAR_CONFIG, and env overrides, in that precedence order.
func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("VIDAR_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("VIDAR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VIDAR_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("VIDAR_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VIDAR_INITIAL_PRICE"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f > 0 {
			c.Market.InitialPrice = f
		}
	}
	if v := os.Getenv("VIDAR_TICK_INTERVAL_MS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Market.TickIntervalMs = n
		}
	}
	if v := os.Getenv("VIDAR_SMA_WINDOW"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.SMAWindow = n
		}
	}
	if v := os.Getenv("VIDAR_SUBSCRIBER_QUEUE"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.SubscriberQueue = n
		}
	}
	return c
}

// TickInterval is the configured tick cadence as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Market.TickIntervalMs) * time.Millisecond
}
