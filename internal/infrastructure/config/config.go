// Package config loads the server configuration from config.toml and
// ANTHRILO_-prefixed environment variables.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"anthrilo/internal/domain/reports"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Reports  ReportsConfig
	Metrics  MetricsConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
	// DatasetPath switches the server to the in-memory store loaded from a
	// JSON dataset instead of PostgreSQL.
	DatasetPath string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL             string // takes precedence over the discrete fields
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	StatsInterval   time.Duration // 0 disables periodic pool stats logging
}

// RedisConfig holds report cache settings. An empty URL disables the cache.
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string
	Development bool
	OutputPaths []string
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// PanelRatesConfig overrides settlement rates for one panel.
type PanelRatesConfig struct {
	CommissionRate float64 `mapstructure:"commission_rate"`
	LogisticsRate  float64 `mapstructure:"logistics_rate"`
}

// ReportsConfig holds the business constants and the report cache TTL.
type ReportsConfig struct {
	CommissionRate       float64
	LogisticsRate        float64
	PanelRates           map[string]PanelRatesConfig // keyed by panel id
	YarnDailyConsumption float64
	SlowTurnoverBelow    float64
	SlowMinStock         int64
	FastTurnoverAbove    float64
	ReorderBelowDays     float64
	ReplenishDays        float64
	CacheTTL             time.Duration
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with ANTHRILO_ prefix (e.g., ANTHRILO_DATABASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/anthrilo")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ANTHRILO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Zero is a meaningful value for these, so they are defaulted in viper
	// rather than in applyDefaults.
	v.SetDefault("reports.commission_rate", 0.10)
	v.SetDefault("reports.logistics_rate", 0.05)
	v.SetDefault("reports.yarn_daily_consumption", 5.0)
	v.SetDefault("reports.slow_turnover_below", 0.1)
	v.SetDefault("reports.slow_min_stock", 10)
	v.SetDefault("reports.fast_turnover_above", 1.0)
	v.SetDefault("reports.reorder_below_days", 30)
	v.SetDefault("reports.replenish_days", 60)
	v.SetDefault("metrics.enabled", true)

	var panelRates map[string]PanelRatesConfig
	if err := v.UnmarshalKey("reports.panel_rates", &panelRates); err != nil {
		return nil, fmt.Errorf("decode reports.panel_rates: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			DatasetPath: v.GetString("app.dataset_path"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxConns:        v.GetInt32("database.max_conns"),
			MinConns:        v.GetInt32("database.min_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			StatsInterval:   v.GetDuration("database.stats_interval"),
		},
		Redis: RedisConfig{
			URL:       v.GetString("redis.url"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			OutputPaths: v.GetStringSlice("log.output_paths"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			RequestTimeout:  v.GetDuration("http.request_timeout"),
		},
		Reports: ReportsConfig{
			CommissionRate:       v.GetFloat64("reports.commission_rate"),
			LogisticsRate:        v.GetFloat64("reports.logistics_rate"),
			PanelRates:           panelRates,
			YarnDailyConsumption: v.GetFloat64("reports.yarn_daily_consumption"),
			SlowTurnoverBelow:    v.GetFloat64("reports.slow_turnover_below"),
			SlowMinStock:         v.GetInt64("reports.slow_min_stock"),
			FastTurnoverAbove:    v.GetFloat64("reports.fast_turnover_above"),
			ReorderBelowDays:     v.GetFloat64("reports.reorder_below_days"),
			ReplenishDays:        v.GetFloat64("reports.replenish_days"),
			CacheTTL:             v.GetDuration("reports.cache_ttl"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "anthrilo-reports"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "anthrilo"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "anthrilo:report:"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.Reports.CacheTTL == 0 {
		cfg.Reports.CacheTTL = 5 * time.Minute
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate performs validation on the configuration.
func (c *Config) validate() error {
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be positive")
	}
	if c.Database.MinConns < 0 {
		return fmt.Errorf("database.min_conns cannot be negative")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) cannot exceed database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Reports.CacheTTL < 0 {
		return fmt.Errorf("reports.cache_ttl cannot be negative")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}

	if c.App.Env == "production" && c.App.DatasetPath == "" && c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}

	if _, err := c.Reports.Settings(); err != nil {
		return fmt.Errorf("reports: %w", err)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsDemo reports whether the server runs on an in-memory dataset.
func (c *Config) IsDemo() bool {
	return c.App.DatasetPath != ""
}

// Settings converts the configured constants into reports.Settings.
func (r ReportsConfig) Settings() (reports.Settings, error) {
	s := reports.Settings{
		CommissionRate:       decimal.NewFromFloat(r.CommissionRate),
		LogisticsRate:        decimal.NewFromFloat(r.LogisticsRate),
		YarnDailyConsumption: decimal.NewFromFloat(r.YarnDailyConsumption),
		SlowTurnoverBelow:    decimal.NewFromFloat(r.SlowTurnoverBelow),
		SlowMinStock:         r.SlowMinStock,
		FastTurnoverAbove:    decimal.NewFromFloat(r.FastTurnoverAbove),
		ReorderBelowDays:     decimal.NewFromFloat(r.ReorderBelowDays),
		ReplenishDays:        decimal.NewFromFloat(r.ReplenishDays),
	}

	if len(r.PanelRates) > 0 {
		s.PanelRates = make(map[int64]reports.PanelRates, len(r.PanelRates))
		for key, rates := range r.PanelRates {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return reports.Settings{}, fmt.Errorf("panel_rates key %q is not a panel id", key)
			}
			s.PanelRates[id] = reports.PanelRates{
				CommissionRate: decimal.NewFromFloat(rates.CommissionRate),
				LogisticsRate:  decimal.NewFromFloat(rates.LogisticsRate),
			}
		}
	}

	if err := s.Validate(); err != nil {
		return reports.Settings{}, err
	}
	return s, nil
}
