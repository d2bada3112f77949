package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
)

// Interval bounds exposed to the dashboard control surface.
const (
	MinInterval = 1 * time.Second
	MaxInterval = 10 * time.Second
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Sales     SalesConfig     `mapstructure:"sales"`
	Window    WindowConfig    `mapstructure:"window"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// GeneratorConfig shapes the synthetic activity signal.
type GeneratorConfig struct {
	BaseLevel          float64 `mapstructure:"base_level"`
	NoiseAmplitude     float64 `mapstructure:"noise_amplitude"`
	AnomalyProbability float64 `mapstructure:"anomaly_probability"`
	SpikeMin           float64 `mapstructure:"spike_min"`
	SpikeMax           float64 `mapstructure:"spike_max"`
	TrendEnabled       bool    `mapstructure:"trend_enabled"`
	TrendAmplitude     float64 `mapstructure:"trend_amplitude"`
	TrendSpeed         float64 `mapstructure:"trend_speed"`
	Seed               int64   `mapstructure:"seed"`
}

// SalesConfig shapes the synthetic order stream.
type SalesConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	HourlyRevenue     float64 `mapstructure:"hourly_revenue"`
	HolidayMode       bool    `mapstructure:"holiday_mode"`
	AverageOrderValue float64 `mapstructure:"average_order_value"`
}

// WindowConfig bounds the in-memory sample windows.
type WindowConfig struct {
	SignalCapacity int `mapstructure:"signal_capacity"`
	SalesCapacity  int `mapstructure:"sales_capacity"`
}

// RefreshConfig governs the redraw cadence.
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToStart bool          `mapstructure:"align_to_start"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// ForecastConfig tunes the short-horizon revenue forecast.
type ForecastConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Every       time.Duration `mapstructure:"every"`
	BinSize     time.Duration `mapstructure:"bin_size"`
	Lookback    time.Duration `mapstructure:"lookback"`
	Horizon     time.Duration `mapstructure:"horizon"`
	HistorySize int           `mapstructure:"history_size"`
}

// ServerConfig covers the HTTP/WebSocket surface.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// AlertingConfig defines spike alert thresholds and routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram alert channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STREAMDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "streamdash")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("generator.base_level", 50.0)
	v.SetDefault("generator.noise_amplitude", 5.0)
	v.SetDefault("generator.anomaly_probability", 0.02)
	v.SetDefault("generator.spike_min", 20.0)
	v.SetDefault("generator.spike_max", 50.0)
	v.SetDefault("generator.trend_enabled", true)
	v.SetDefault("generator.trend_amplitude", 10.0)
	v.SetDefault("generator.trend_speed", 0.02)

	v.SetDefault("sales.enabled", true)
	v.SetDefault("sales.hourly_revenue", 30000.0)
	v.SetDefault("sales.holiday_mode", false)
	v.SetDefault("sales.average_order_value", 100.0)

	v.SetDefault("window.signal_capacity", 100)
	v.SetDefault("window.sales_capacity", 200)

	v.SetDefault("refresh.interval", "2s")
	v.SetDefault("refresh.align_to_start", false)
	v.SetDefault("refresh.startup_delay", "0s")

	v.SetDefault("forecast.enabled", true)
	v.SetDefault("forecast.every", "30s")
	v.SetDefault("forecast.bin_size", "10s")
	v.SetDefault("forecast.lookback", "10m")
	v.SetDefault("forecast.horizon", "60s")
	v.SetDefault("forecast.history_size", 20)

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.ping_interval", "30s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "5m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Generator.NoiseAmplitude < 0 {
		return fmt.Errorf("generator.noise_amplitude cannot be negative")
	}
	if c.Generator.AnomalyProbability < 0 || c.Generator.AnomalyProbability > 1 {
		return fmt.Errorf("generator.anomaly_probability must be within [0,1]")
	}
	if c.Generator.SpikeMin < 0 || c.Generator.SpikeMax < c.Generator.SpikeMin {
		return fmt.Errorf("generator.spike_min/spike_max must satisfy 0 <= min <= max")
	}
	if c.Window.SignalCapacity <= 0 {
		return fmt.Errorf("window.signal_capacity must be greater than zero")
	}
	if c.Window.SalesCapacity <= 0 {
		return fmt.Errorf("window.sales_capacity must be greater than zero")
	}
	if c.Refresh.Interval < MinInterval || c.Refresh.Interval > MaxInterval {
		return fmt.Errorf("refresh.interval must be within [%s, %s]", MinInterval, MaxInterval)
	}
	if c.Sales.HourlyRevenue <= 0 {
		return fmt.Errorf("sales.hourly_revenue must be greater than zero")
	}
	if c.Sales.AverageOrderValue <= 0 {
		return fmt.Errorf("sales.average_order_value must be greater than zero")
	}
	if c.Forecast.Enabled {
		if c.Forecast.BinSize <= 0 {
			return fmt.Errorf("forecast.bin_size must be greater than zero")
		}
		if c.Forecast.Every < c.Refresh.Interval {
			return fmt.Errorf("forecast.every cannot be shorter than refresh.interval")
		}
		if c.Forecast.Lookback < c.Forecast.Horizon {
			return fmt.Errorf("forecast.lookback cannot be shorter than forecast.horizon")
		}
		if c.Forecast.HistorySize <= 0 {
			return fmt.Errorf("forecast.history_size must be greater than zero")
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
