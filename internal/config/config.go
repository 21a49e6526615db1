package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultEnvFile        = ".env"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultStoreRPS       = 20.0
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables (.env included) > Defaults
type Config struct {
	Port                 string
	StoreURL             string
	StoreToken           string
	StoreRPS             float64
	SeedFile             string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	Store                yamlStore     `yaml:"store"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlStore selects the configuration store.
type yamlStore struct {
	URL      string   `yaml:"url"`
	Token    string   `yaml:"token"`
	RPS      *float64 `yaml:"rps"`
	SeedFile string   `yaml:"seed_file"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        string
	Port           *string
	StoreURL       *string
	SeedFile       *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envFile := ""
	if overrides != nil {
		envFile = overrides.EnvFile
	}
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		StoreRPS:             defaultStoreRPS,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadEnvFile exports variables from a dotenv file without overriding the
// real environment. A missing default file is not an error; a missing
// explicitly requested one is.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.Store.URL != "" {
		cfg.StoreURL = yamlCfg.Store.URL
	}
	if yamlCfg.Store.Token != "" {
		cfg.StoreToken = yamlCfg.Store.Token
	}
	if yamlCfg.Store.RPS != nil {
		cfg.StoreRPS = *yamlCfg.Store.RPS
	}
	if yamlCfg.Store.SeedFile != "" {
		cfg.SeedFile = yamlCfg.Store.SeedFile
	}

	var errs *multierror.Error
	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{name: "shutdown_grace_period", raw: yamlCfg.ShutdownGracePeriod, target: &cfg.ShutdownGracePeriod},
		{name: "read_header_timeout", raw: yamlCfg.ReadHeaderTimeout, target: &cfg.ReadHeaderTimeout},
		{name: "write_timeout", raw: yamlCfg.WriteTimeout, target: &cfg.WriteTimeout},
		{name: "idle_timeout", raw: yamlCfg.IdleTimeout, target: &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", d.name, err))
			continue
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	return errs.ErrorOrNil()
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if storeURL := strings.TrimSpace(os.Getenv("STORE_URL")); storeURL != "" {
		cfg.StoreURL = storeURL
	}

	if token := strings.TrimSpace(os.Getenv("STORE_TOKEN")); token != "" {
		cfg.StoreToken = token
	}

	if rps := strings.TrimSpace(os.Getenv("STORE_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.StoreRPS = value
		}
	}

	if seed := strings.TrimSpace(os.Getenv("SEED_FILE")); seed != "" {
		cfg.SeedFile = seed
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.StoreURL != nil && *overrides.StoreURL != "" {
		cfg.StoreURL = *overrides.StoreURL
	}

	if overrides.SeedFile != nil && *overrides.SeedFile != "" {
		cfg.SeedFile = *overrides.SeedFile
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig reports every problem with the final configuration at once.
func validateConfig(cfg Config) error {
	var errs *multierror.Error

	if strings.TrimSpace(cfg.Port) == "" {
		errs = multierror.Append(errs, errors.New("port cannot be empty"))
	}
	if cfg.RateLimitRPS < 0 {
		errs = multierror.Append(errs, errors.New("RATE_LIMIT_RPS must be >= 0"))
	}
	if cfg.RateLimitBurst < 0 {
		errs = multierror.Append(errs, errors.New("RATE_LIMIT_BURST must be >= 0"))
	}
	if cfg.StoreRPS < 0 {
		errs = multierror.Append(errs, errors.New("STORE_RPS must be >= 0"))
	}
	if cfg.StoreURL != "" {
		if u, err := url.Parse(cfg.StoreURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = multierror.Append(errs, fmt.Errorf("store URL %q must be an absolute http(s) URL", cfg.StoreURL))
		}
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log level: %w", err))
	}
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{name: "shutdown_grace_period", value: cfg.ShutdownGracePeriod},
		{name: "read_header_timeout", value: cfg.ReadHeaderTimeout},
		{name: "write_timeout", value: cfg.WriteTimeout},
		{name: "idle_timeout", value: cfg.IdleTimeout},
	}
	for _, d := range timeouts {
		if d.value <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}

	return errs.ErrorOrNil()
}

// UsesRemoteStore reports whether entries come from a remote configuration store.
func (c Config) UsesRemoteStore() bool {
	return c.StoreURL != ""
}
