package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log         LoggingConfig     `yaml:"log"`
	Venue       VenueConfig       `yaml:"venue"`
	Instruments InstrumentsConfig `yaml:"instruments"`
	Pairs       [][2]string       `yaml:"pairs"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	State       StateConfig       `yaml:"state"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Timescale   TimescaleConfig   `yaml:"timescale"`
	Telegram    TelegramConfig    `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type VenueConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type InstrumentsConfig struct {
	Underlying []string                    `yaml:"underlying"`
	Composites map[string]map[string]int64 `yaml:"composites"`
	SwapCosts  map[string]int64            `yaml:"swap_costs"`
}

type StrategyConfig struct {
	EnableNAV     bool          `yaml:"enable_nav"`
	EnablePairs   bool          `yaml:"enable_pairs"`
	EnableQuoting bool          `yaml:"enable_quoting"`
	Margin        int64         `yaml:"margin"`
	CrossTicks    int64         `yaml:"cross_ticks"`
	CompositeQty  int64         `yaml:"composite_qty"`
	PairQty       int64         `yaml:"pair_qty"`
	ZThreshold    float64       `yaml:"z_threshold"`
	Window        int           `yaml:"window"`
	Edge          int64         `yaml:"edge"`
	QuoteSize     int64         `yaml:"quote_size"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	PnLEvery      int           `yaml:"pnl_every"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type TimescaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	QueueSize int    `yaml:"queue_size"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Venue.ReconnectDelay == 0 {
		cfg.Venue.ReconnectDelay = 3 * time.Second
	}
	if cfg.Venue.PingInterval == 0 {
		cfg.Venue.PingInterval = 20 * time.Second
	}
	if cfg.Venue.RequestTimeout == 0 {
		cfg.Venue.RequestTimeout = 5 * time.Second
	}
	if cfg.Strategy.CrossTicks == 0 {
		cfg.Strategy.CrossTicks = 10
	}
	if cfg.Strategy.CompositeQty == 0 {
		cfg.Strategy.CompositeQty = 10
	}
	if cfg.Strategy.PairQty == 0 {
		cfg.Strategy.PairQty = 1
	}
	if cfg.Strategy.ZThreshold == 0 {
		cfg.Strategy.ZThreshold = 1.0
	}
	if cfg.Strategy.Window == 0 {
		cfg.Strategy.Window = 20
	}
	if cfg.Strategy.QuoteSize == 0 {
		cfg.Strategy.QuoteSize = 10
	}
	if cfg.Strategy.TickInterval == 0 {
		cfg.Strategy.TickInterval = time.Second
	}
	if cfg.Strategy.PnLEvery == 0 {
		cfg.Strategy.PnLEvery = 12
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/etf-arb-bot.db"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}
}

func validate(cfg *Config) error {
	if cfg.Venue.URL == "" {
		return errors.New("venue.url is required")
	}
	for composite, basket := range cfg.Instruments.Composites {
		if len(basket) == 0 {
			return fmt.Errorf("instruments.composites.%s has an empty basket", composite)
		}
		for symbol, units := range basket {
			if units <= 0 {
				return fmt.Errorf("instruments.composites.%s.%s must be > 0", composite, symbol)
			}
		}
		if _, ok := cfg.Instruments.SwapCosts[composite]; !ok {
			return fmt.Errorf("instruments.swap_costs.%s is required", composite)
		}
	}
	for i, pair := range cfg.Pairs {
		if pair[0] == "" || pair[1] == "" || pair[0] == pair[1] {
			return fmt.Errorf("pairs[%d] must name two distinct symbols", i)
		}
	}
	if cfg.Strategy.EnableNAV && cfg.Strategy.Margin < 0 {
		return errors.New("strategy.margin must be >= 0")
	}
	if cfg.Strategy.EnablePairs && cfg.Strategy.Window < 2 {
		return errors.New("strategy.window must be >= 2")
	}
	if cfg.Strategy.EnableQuoting && cfg.Strategy.Edge <= 0 {
		return errors.New("strategy.edge must be > 0")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}
