package config

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type HAProxyConfig struct {
	StatsURL             string        `mapstructure:"stats_url"`
	FetchInterval        time.Duration `mapstructure:"fetch_interval"`
	HealthyBackendUptime time.Duration `mapstructure:"healthy_backend_uptime"`
	LogDownInterval      time.Duration `mapstructure:"log_down_interval"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	SignalDirectory      string `mapstructure:"signal_directory"`
	ServiceName          string `mapstructure:"service_name"`
	Return404OnAdminDown bool   `mapstructure:"return_404_on_admin_down"`
}

type StatusConfig struct {
	OutputFilename string `mapstructure:"output_filename"`
}

type RefreshConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	HAProxy HAProxyConfig `mapstructure:"haproxy"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Status  StatusConfig  `mapstructure:"status"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

const defaultFetchInterval = 15 * time.Second

// DefaultHealthyUptime is twice the fetch interval plus two seconds, so a
// backend that is really restarting is seen DOWN at least once before it
// counts as healthy, allowing for the fetch jitter.
func DefaultHealthyUptime(fetchInterval time.Duration) time.Duration {
	return 2*fetchInterval + 2*time.Second
}

// Load reads config.yaml from ./config or the working directory, then applies
// environment overrides such as HAPROXY_STATS_URL. SERVICE_NAME sets
// admin.service_name.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("haproxy.stats_url", "/var/run/haproxy-control/stats")
	v.SetDefault("haproxy.fetch_interval", defaultFetchInterval)
	v.SetDefault("haproxy.log_down_interval", 60*time.Second)
	v.SetDefault("haproxy.timeout", 5*time.Second)
	v.SetDefault("admin.signal_directory", "/var/run/haproxy-status")
	v.SetDefault("admin.service_name", "")
	v.SetDefault("admin.return_404_on_admin_down", false)
	v.SetDefault("status.output_filename", "")
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("metrics.buffer_size", 256)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("admin.service_name", "SERVICE_NAME"); err != nil {
		return nil, err
	}
	// Listed so AutomaticEnv can find it, there is no static default.
	if err := v.BindEnv("haproxy.healthy_backend_uptime"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if cfg.HAProxy.HealthyBackendUptime == 0 {
		cfg.HAProxy.HealthyBackendUptime = DefaultHealthyUptime(cfg.HAProxy.FetchInterval)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.HAProxy,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HAProxyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HAProxyConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.StatsURL,
						validation.Required,
						validation.By(validateStatsURL),
					),
					validation.Field(&hc.FetchInterval, validation.Required, validation.Min(time.Second)),
					validation.Field(&hc.HealthyBackendUptime, validation.Min(time.Duration(0))),
					validation.Field(&hc.LogDownInterval, validation.Required, validation.Min(time.Second)),
					validation.Field(&hc.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
				)
			}),
		),
		validation.Field(&c.Admin,
			validation.By(func(value interface{}) error {
				ac, ok := value.(AdminConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an AdminConfig")
				}
				return validation.ValidateStruct(&ac,
					validation.Field(&ac.SignalDirectory,
						validation.Required,
						validation.By(validateDirectory),
					),
					validation.Field(&ac.ServiceName,
						validation.By(validateMarkerName),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

// validateStatsURL accepts http(s) URLs and socket paths, optionally given as
// file:// URLs.
func validateStatsURL(value interface{}) error {
	statsURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	switch {
	case strings.HasPrefix(statsURL, "http://"), strings.HasPrefix(statsURL, "https://"):
		if err := is.URL.Validate(statsURL); err != nil {
			return validation.NewError("validation_invalid_url", "must be a valid URL")
		}
	case strings.HasPrefix(statsURL, "file://"):
		if strings.TrimPrefix(statsURL, "file://") == "" {
			return validation.NewError("validation_empty_socket", "socket path cannot be empty")
		}
	case strings.Contains(statsURL, "://"):
		return validation.NewError("validation_invalid_scheme", "URL must use http, https or file scheme")
	}

	return nil
}

func validateDirectory(value interface{}) error {
	dir, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return validation.NewError("validation_missing_directory", "directory does not exist")
	}
	if !info.IsDir() {
		return validation.NewError("validation_not_directory", "must be a directory")
	}

	return nil
}

func validateMarkerName(value interface{}) error {
	name, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if strings.ContainsRune(name, os.PathSeparator) || name == "." || name == ".." {
		return validation.NewError("validation_invalid_service_name", "must be a plain file name")
	}

	return nil
}
