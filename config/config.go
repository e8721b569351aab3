package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/types"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Rate      RateConfig      `mapstructure:"rate"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Export    ExportConfig    `mapstructure:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIKey       string        `mapstructure:"api_key"`
}

// PricingConfig holds the initial run settings
type PricingConfig struct {
	ExchangeRate float64 `mapstructure:"exchange_rate"`
	MarginPct    float64 `mapstructure:"margin_pct"`
	JoinStrategy string  `mapstructure:"join_strategy"`
	Anchor       string  `mapstructure:"anchor"`
}

// RateConfig holds exchange rate fetching configuration
type RateConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	URL                string        `mapstructure:"url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	InitialBackoffMs   int           `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs       int           `mapstructure:"max_backoff_ms"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// RateLimitConfig holds inbound API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StorageConfig holds upload archive configuration
type StorageConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BasePath string `mapstructure:"base_path"`
}

// ExportConfig holds report export configuration
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("PRICE_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if _, err := cfg.Settings(); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile sets KEY=VALUE lines as environment variables without
// overriding variables already set
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		os.Setenv(key, strings.Trim(strings.TrimSpace(value), "\"'"))
	}
	return scanner.Err()
}

// bindEnvVars binds unprefixed environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PRICE_SERVICE_SERVER_PORT", "PORT")
	v.BindEnv("server.host", "PRICE_SERVICE_SERVER_HOST", "HOST")
	v.BindEnv("server.api_key", "PRICE_SERVICE_SERVER_API_KEY", "API_KEY")
	v.BindEnv("logging.level", "PRICE_SERVICE_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("storage.base_path", "PRICE_SERVICE_STORAGE_BASE_PATH", "STORAGE_PATH")
	v.BindEnv("telemetry.endpoint", "PRICE_SERVICE_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.api_key", "")

	v.SetDefault("pricing.exchange_rate", pipeline.DefaultExchangeRate)
	v.SetDefault("pricing.margin_pct", pipeline.DefaultMarginPct)
	v.SetDefault("pricing.join_strategy", string(engine.JoinAnchorCentric))
	v.SetDefault("pricing.anchor", string(types.SupplierDroactiva))

	v.SetDefault("rate.enabled", true)
	v.SetDefault("rate.url", "https://www.bcv.org.ve/")
	v.SetDefault("rate.timeout", 15*time.Second)
	v.SetDefault("rate.insecure_skip_verify", false)
	v.SetDefault("rate.max_retries", 2)
	v.SetDefault("rate.requests_per_second", 1)
	v.SetDefault("rate.initial_backoff_ms", 500)
	v.SetDefault("rate.max_backoff_ms", 10000)

	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.base_path", "./data/archive")
	v.SetDefault("export.dir", "./data/reports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "price-service")
	v.SetDefault("telemetry.environment", "development")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Settings builds the initial run settings from the pricing section
func (c *Config) Settings() (pipeline.Settings, error) {
	strategy, err := engine.ParseJoinStrategy(c.Pricing.JoinStrategy)
	if err != nil {
		return pipeline.Settings{}, err
	}
	s := pipeline.DefaultSettings().
		WithExchangeRate(c.Pricing.ExchangeRate).
		WithMargin(c.Pricing.MarginPct).
		WithJoinStrategy(strategy)
	if c.Pricing.Anchor != "" {
		anchor, err := types.ParseSupplierID(c.Pricing.Anchor)
		if err != nil {
			return pipeline.Settings{}, err
		}
		s.Anchor = anchor
	}
	s.FetchRate = c.Rate.Enabled
	return s, s.Validate()
}

// Pricing returns the run settings of the global configuration, or the
// defaults when nothing was loaded
func Pricing() pipeline.Settings {
	if cfg := Get(); cfg != nil {
		if s, err := cfg.Settings(); err == nil {
			return s
		}
	}
	return pipeline.DefaultSettings()
}
